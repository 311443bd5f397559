package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// MemoryStore implements port.CommitStore, port.ProjectRegistry, and
// port.DraftStore in process memory. The fallback when no DATABASE_URL is
// configured, and the backend used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	commits  map[string][]domain.Commit // projectID -> append-only log
	drafts   map[string]domain.Draft
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]domain.Project),
		commits:  make(map[string][]domain.Commit),
		drafts:   make(map[string]domain.Draft),
	}
}

// --- CommitStore ---

// Record inserts a commit, idempotent per (projectID, commit.ID). A commit
// already marked processed is dropped silently, never resurrected.
func (s *MemoryStore) Record(ctx context.Context, commit domain.Commit) (domain.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.commits[commit.ProjectID]
	for _, existing := range log {
		if existing.ID == commit.ID {
			return existing, nil
		}
	}

	commit.Processed = false
	s.commits[commit.ProjectID] = append(log, commit)
	return commit, nil
}

// UnprocessedSince returns unprocessed commits newer than cutoff, ordered
// by timestamp ascending.
func (s *MemoryStore) UnprocessedSince(ctx context.Context, projectID string, cutoff time.Time) ([]domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Commit
	for _, c := range s.commits[projectID] {
		if !c.Processed && !c.Timestamp.Before(cutoff) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// MarkProcessed flips processed=true for the given ids; unknown ids are
// ignored.
func (s *MemoryStore) MarkProcessed(ctx context.Context, projectID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	log := s.commits[projectID]
	for i := range log {
		if wanted[log[i].ID] {
			log[i].Processed = true
		}
	}
	return nil
}

// --- ProjectRegistry ---

// CreateProject registers a project, enforcing one active project per repository.
func (s *MemoryStore) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.Repo != "" {
		for _, p := range s.projects {
			if p.Repo == project.Repo && p.Active {
				return domain.Project{}, port.ErrRepoConflict
			}
		}
	}

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	s.projects[project.ID] = project
	return project, nil
}

// GetProject returns a project by id.
func (s *MemoryStore) GetProject(ctx context.Context, id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, port.ErrProjectNotFound
	}
	return p, nil
}

// FindByRepo returns the project bound to a repository identifier.
func (s *MemoryStore) FindByRepo(ctx context.Context, repo string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.Repo == repo {
			return p, nil
		}
	}
	return domain.Project{}, port.ErrProjectNotFound
}

// ListActive returns all active projects.
func (s *MemoryStore) ListActive(ctx context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Project
	for _, p := range s.projects {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateProject applies a partial patch to a project.
func (s *MemoryStore) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, port.ErrProjectNotFound
	}
	p.Apply(patch)
	s.projects[id] = p
	return p, nil
}

// DeleteProject removes a project; unknown ids are a no-op.
func (s *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, id)
	return nil
}

// --- DraftStore ---

// SaveDraft inserts or replaces a draft by id.
func (s *MemoryStore) SaveDraft(ctx context.Context, draft domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts[draft.ID] = draft
	return nil
}

// GetDraft returns a draft by id.
func (s *MemoryStore) GetDraft(ctx context.Context, id string) (domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok {
		return domain.Draft{}, port.ErrDraftNotFound
	}
	return d, nil
}

// ListDraftsByProject returns a project's drafts, newest first.
func (s *MemoryStore) ListDraftsByProject(ctx context.Context, projectID string) ([]domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Draft
	for _, d := range s.drafts {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}
