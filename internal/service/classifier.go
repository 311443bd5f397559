package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Classifier decides, per commit, immediate vs. batch. Batching is the
// safe outcome: any classification failure defaults the whole set to
// batch, never the other way around.
type Classifier struct {
	ai port.TextGenerator
}

// NewClassifier creates an urgency classifier backed by the given generator.
func NewClassifier(ai port.TextGenerator) *Classifier {
	return &Classifier{ai: ai}
}

// Classify partitions commits into immediate and batch sets, preserving
// input order within each set. An empty input returns empty sets without
// invoking generation.
func (c *Classifier) Classify(ctx context.Context, commits []domain.Commit, project domain.Project) domain.Classification {
	if len(commits) == 0 {
		return domain.Classification{Immediate: []domain.Commit{}, Batch: []domain.Commit{}}
	}

	response, err := c.ai.Generate(ctx, "", classifyPrompt(commits, project))
	if err != nil {
		slog.Warn("classification failed, defaulting to batch", "project", project.ID, "error", err)
		return allBatch(commits, "classification error, defaulting to batch")
	}

	parsed, err := parseClassification(response)
	if err != nil {
		slog.Warn("classification output unparseable, defaulting to batch", "project", project.ID, "error", err)
		return allBatch(commits, "parse failed, defaulting to batch")
	}

	// Map the model's tagged messages back to literal input commits. A
	// message that matches no input commit is treated as batch.
	result := domain.Classification{
		Immediate: []domain.Commit{},
		Batch:     []domain.Commit{},
		Reasoning: parsed.Reasoning,
	}
	for _, commit := range commits {
		if matchesAny(commit.Message, parsed.Immediate) {
			result.Immediate = append(result.Immediate, commit)
		} else {
			result.Batch = append(result.Batch, commit)
		}
	}

	slog.Info("commits classified",
		"project", project.ID,
		"immediate", len(result.Immediate),
		"batch", len(result.Batch),
		"reasoning", result.Reasoning,
	)
	return result
}

type classificationOutput struct {
	Immediate []string `json:"immediate"`
	Batch     []string `json:"batch"`
	Reasoning string   `json:"reasoning"`
}

// parseClassification extracts the JSON object from the model response.
// The model sometimes wraps JSON in prose, so we take the outermost braces.
func parseClassification(response string) (classificationOutput, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return classificationOutput{}, fmt.Errorf("no JSON object in response")
	}

	var out classificationOutput
	if err := json.Unmarshal([]byte(response[start:end+1]), &out); err != nil {
		return classificationOutput{}, fmt.Errorf("decode classification: %w", err)
	}
	return out, nil
}

// matchesAny reports whether msg matches any tagged message, exactly or
// by substring in either direction.
func matchesAny(msg string, tagged []string) bool {
	for _, t := range tagged {
		if t == "" {
			continue
		}
		if strings.Contains(msg, t) || strings.Contains(t, msg) {
			return true
		}
	}
	return false
}

func allBatch(commits []domain.Commit, reasoning string) domain.Classification {
	batch := make([]domain.Commit, len(commits))
	copy(batch, commits)
	return domain.Classification{Immediate: []domain.Commit{}, Batch: batch, Reasoning: reasoning}
}

func classifyPrompt(commits []domain.Commit, project domain.Project) string {
	var list strings.Builder
	for _, c := range commits {
		fmt.Fprintf(&list, "- %s (%d files)\n", c.Message, c.FilesChanged)
	}

	return fmt.Sprintf(`You're deciding which commits deserve an immediate "build in public" post vs. which should be batched for a daily digest.

PROJECT: %s
VOICE: %s

COMMITS:
%s
CLASSIFY each commit as IMMEDIATE or BATCH:

**IMMEDIATE** (post right away) - these create excitement:
- Major new features users will love
- Milestones (MRR, users, launches)
- Interesting technical breakthroughs
- "Shipped!" moments worth celebrating

**BATCH** (save for daily digest) - these are routine:
- Bug fixes (unless major)
- Refactoring/cleanup
- Documentation updates
- Minor tweaks
- Internal changes users don't see

Return JSON:
{
  "immediate": ["exact commit message 1"],
  "batch": ["exact commit message 2", "exact commit message 3"],
  "reasoning": "brief explanation"
}`, project.Brand.Name, project.Brand.Voice, list.String())
}
