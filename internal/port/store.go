package port

import (
	"context"
	"time"

	"github.com/shippost/shippost/internal/domain"
)

// CommitStore is the append-only log of ingested commits. Commits are
// mutated only to flip processed from false to true; never deleted.
type CommitStore interface {
	// Record inserts a commit, idempotent per (projectID, commit.ID).
	// A commit already marked processed is never resurrected as unprocessed.
	Record(ctx context.Context, commit domain.Commit) (domain.Commit, error)

	// UnprocessedSince returns unprocessed commits with timestamp >= cutoff,
	// ordered by timestamp ascending.
	UnprocessedSince(ctx context.Context, projectID string, cutoff time.Time) ([]domain.Commit, error)

	// MarkProcessed flips processed=true for the given ids.
	// Unknown ids are ignored; they do not fail the batch.
	MarkProcessed(ctx context.Context, projectID string, ids []string) error
}

// ProjectRegistry is the keyed store of project configurations, with a
// secondary index by repository identifier.
type ProjectRegistry interface {
	// CreateProject registers a project. Returns ErrRepoConflict if the
	// repository is already bound to an active project.
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)

	// GetProject returns a project by id, or ErrProjectNotFound.
	GetProject(ctx context.Context, id string) (domain.Project, error)

	// FindByRepo returns the project bound to a repository identifier,
	// or ErrProjectNotFound.
	FindByRepo(ctx context.Context, repo string) (domain.Project, error)

	// ListActive returns all active projects.
	ListActive(ctx context.Context) ([]domain.Project, error)

	// UpdateProject applies a partial patch, or returns ErrProjectNotFound.
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)

	// DeleteProject removes a project. Deleting an unknown id is a no-op.
	DeleteProject(ctx context.Context, id string) error
}

// DraftStore persists generated drafts and their approval-state transitions.
type DraftStore interface {
	// SaveDraft inserts or replaces a draft by id.
	SaveDraft(ctx context.Context, draft domain.Draft) error

	// GetDraft returns a draft by id, or ErrDraftNotFound.
	GetDraft(ctx context.Context, id string) (domain.Draft, error)

	// ListDraftsByProject returns a project's drafts, newest first.
	ListDraftsByProject(ctx context.Context, projectID string) ([]domain.Draft, error)
}
