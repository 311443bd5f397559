package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Pipeline drives a push event end to end: persist commits, decide when
// to post, generate drafts, and hand them to the approval gateway. Each
// webhook delivery and each digest run is one independent, short-lived
// unit of work.
type Pipeline struct {
	commits    port.CommitStore
	projects   port.ProjectRegistry
	classifier *Classifier
	generator  *Generator
	router     *Router
	approval   *Approval

	genTimeout time.Duration
	loc        *time.Location
}

// NewPipeline wires the pipeline together. genTimeout bounds every
// generation call; loc fixes the calendar day for digest cutoffs.
func NewPipeline(
	commits port.CommitStore,
	projects port.ProjectRegistry,
	classifier *Classifier,
	generator *Generator,
	router *Router,
	approval *Approval,
	genTimeout time.Duration,
	loc *time.Location,
) *Pipeline {
	if genTimeout == 0 {
		genTimeout = 60 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{
		commits:    commits,
		projects:   projects,
		classifier: classifier,
		generator:  generator,
		router:     router,
		approval:   approval,
		genTimeout: genTimeout,
		loc:        loc,
	}
}

// IngestResult summarizes one webhook delivery. Message is set for
// business non-events ("no postable commits") that still answer 200.
type IngestResult struct {
	Success        bool   `json:"success"`
	Project        string `json:"project,omitempty"`
	Mode           string `json:"mode,omitempty"`
	CommitsStored  int    `json:"commitsStored"`
	PostsGenerated int    `json:"postsGenerated,omitempty"`
	ImmediateCount int    `json:"immediateCommits,omitempty"`
	BatchedCount   int    `json:"batchedCommits,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Ingest handles a push event for a repository. Non-postable commits are
// filtered before storage; how the rest flow depends on the project's
// post frequency mode.
func (p *Pipeline) Ingest(ctx context.Context, repo string, incoming []domain.Commit) (IngestResult, error) {
	project, err := p.projects.FindByRepo(ctx, repo)
	if errors.Is(err, port.ErrProjectNotFound) {
		slog.Info("push for unconfigured repository", "repo", repo)
		return IngestResult{Success: true, Message: "repository not configured"}, nil
	}
	if err != nil {
		return IngestResult{}, fmt.Errorf("find project: %w", err)
	}
	if !project.Active {
		return IngestResult{Success: true, Project: project.Name, Message: "project is paused"}, nil
	}

	var stored []domain.Commit
	for _, c := range incoming {
		if !c.Postable() {
			continue
		}
		c.ProjectID = project.ID
		rec, err := p.commits.Record(ctx, c)
		if err != nil {
			return IngestResult{}, fmt.Errorf("record commit %s: %w", c.ID, err)
		}
		if rec.Processed {
			// Replay of an already-handled commit; never post it twice.
			continue
		}
		stored = append(stored, rec)
	}

	slog.Info("commits ingested", "project", project.ID, "received", len(incoming), "stored", len(stored))

	if len(stored) == 0 {
		return IngestResult{
			Success: true, Project: project.Name,
			Mode: project.PostFrequency, Message: "no postable commits",
		}, nil
	}

	switch project.PostFrequency {
	case domain.FrequencyPerCommit, domain.FrequencyImmediate:
		generated, err := p.ProcessNow(ctx, project, stored)
		if err != nil {
			return IngestResult{}, err
		}
		return IngestResult{
			Success: true, Project: project.Name, Mode: domain.FrequencyPerCommit,
			CommitsStored: len(stored), PostsGenerated: generated,
		}, nil

	case domain.FrequencySmart:
		genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
		classification := p.classifier.Classify(genCtx, stored, project)
		cancel()

		generated := 0
		if len(classification.Immediate) > 0 {
			generated, err = p.ProcessNow(ctx, project, classification.Immediate)
			if err != nil {
				return IngestResult{}, err
			}
		}
		return IngestResult{
			Success: true, Project: project.Name, Mode: domain.FrequencySmart,
			CommitsStored:  len(stored),
			ImmediateCount: len(classification.Immediate),
			BatchedCount:   len(classification.Batch),
			PostsGenerated: generated,
			Reasoning:      classification.Reasoning,
		}, nil
	}

	return IngestResult{
		Success: true, Project: project.Name,
		Mode:          domain.FrequencyDailyDigest,
		CommitsStored: len(stored),
		Message:       "commits queued for daily digest",
	}, nil
}

// ProcessNow generates drafts for the commits, hands them to the approval
// gateway, and only then marks the commits processed. A crash before the
// handoff leaves commits unprocessed and safely retryable.
func (p *Pipeline) ProcessNow(ctx context.Context, project domain.Project, commits []domain.Commit) (int, error) {
	targets := p.router.Targets(project)
	if len(targets) == 0 {
		targets = []Target{{Platform: "twitter", Destination: domain.Destination{Kind: domain.DestinationDirect}}}
	}

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	drafts := p.generator.GenerateAll(genCtx, commits, project, targets)
	cancel()

	if len(drafts) == 0 {
		slog.Info("no postable content generated", "project", project.ID)
		return 0, nil
	}

	if _, err := p.approval.Present(ctx, drafts, project.SlackChannel); err != nil {
		// Drafts were persisted before delivery was attempted; the commits
		// stay unprocessed so a later invocation can retry.
		return 0, fmt.Errorf("present drafts: %w", err)
	}

	ids := make([]string, 0, len(commits))
	for _, c := range commits {
		ids = append(ids, c.ID)
	}
	if err := p.commits.MarkProcessed(ctx, project.ID, ids); err != nil {
		return len(drafts), fmt.Errorf("mark processed: %w", err)
	}

	return len(drafts), nil
}

// GenerateOnDemand pulls a project's unprocessed commits and runs the
// full generate-and-approve flow synchronously.
func (p *Pipeline) GenerateOnDemand(ctx context.Context, projectID string) (IngestResult, error) {
	project, err := p.projects.GetProject(ctx, projectID)
	if err != nil {
		return IngestResult{}, err
	}

	commits, err := p.commits.UnprocessedSince(ctx, project.ID, p.startOfToday())
	if err != nil {
		return IngestResult{}, fmt.Errorf("load unprocessed commits: %w", err)
	}
	if len(commits) == 0 {
		return IngestResult{Success: false, Project: project.Name, Message: "no unprocessed commits"}, nil
	}

	generated, err := p.ProcessNow(ctx, project, commits)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{
		Success: true, Project: project.Name,
		CommitsStored: len(commits), PostsGenerated: generated,
	}, nil
}

// DigestResult summarizes one scheduled digest run.
type DigestResult struct {
	ProjectsChecked int `json:"projectsChecked"`
	PostsGenerated  int `json:"postsGenerated"`
}

// RunDigest processes today's batched commits for every active
// daily-digest project. Per-project failures are logged and skipped; one
// bad project never blocks the rest of the run.
func (p *Pipeline) RunDigest(ctx context.Context) (DigestResult, error) {
	projects, err := p.projects.ListActive(ctx)
	if err != nil {
		return DigestResult{}, fmt.Errorf("list active projects: %w", err)
	}

	result := DigestResult{ProjectsChecked: len(projects)}
	for _, project := range projects {
		if project.PostFrequency != domain.FrequencyDailyDigest && project.PostFrequency != domain.FrequencySmart {
			continue
		}

		commits, err := p.commits.UnprocessedSince(ctx, project.ID, p.startOfToday())
		if err != nil {
			slog.Error("digest: load commits failed", "project", project.ID, "error", err)
			continue
		}
		if len(commits) == 0 {
			continue
		}

		generated, err := p.ProcessNow(ctx, project, commits)
		if err != nil {
			slog.Error("digest: processing failed", "project", project.ID, "error", err)
			continue
		}
		result.PostsGenerated += generated
	}
	return result, nil
}

// startOfToday is the digest cutoff: midnight in the configured timezone.
func (p *Pipeline) startOfToday() time.Time {
	now := time.Now().In(p.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
}
