package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// PostgresStore handles all relational database operations. It implements
// the same interfaces as MemoryStore so the pipeline never knows which
// backend it runs on.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ port.CommitStore     = (*PostgresStore)(nil)
	_ port.ProjectRegistry = (*PostgresStore)(nil)
	_ port.DraftStore      = (*PostgresStore)(nil)
)

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- CommitStore ---

// Record inserts a commit. ON CONFLICT DO NOTHING keeps the insert
// idempotent per (project_id, id); an already-processed commit is never
// resurrected because the existing row is returned untouched.
func (s *PostgresStore) Record(ctx context.Context, commit domain.Commit) (domain.Commit, error) {
	query := `
		INSERT INTO commits (id, project_id, message, author, timestamp, files_changed, processed)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (project_id, id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query,
		commit.ID, commit.ProjectID, commit.Message, commit.Author, commit.Timestamp, commit.FilesChanged,
	); err != nil {
		return domain.Commit{}, fmt.Errorf("record commit: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, message, author, timestamp, files_changed, processed
		 FROM commits WHERE project_id = $1 AND id = $2`,
		commit.ProjectID, commit.ID,
	)

	var stored domain.Commit
	if err := row.Scan(
		&stored.ID, &stored.ProjectID, &stored.Message, &stored.Author,
		&stored.Timestamp, &stored.FilesChanged, &stored.Processed,
	); err != nil {
		return domain.Commit{}, fmt.Errorf("read back commit: %w", err)
	}
	return stored, nil
}

// UnprocessedSince returns unprocessed commits newer than cutoff.
func (s *PostgresStore) UnprocessedSince(ctx context.Context, projectID string, cutoff time.Time) ([]domain.Commit, error) {
	query := `
		SELECT id, project_id, message, author, timestamp, files_changed, processed
		FROM commits
		WHERE project_id = $1 AND processed = FALSE AND timestamp >= $2
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, projectID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed commits: %w", err)
	}
	defer rows.Close()

	var commits []domain.Commit
	for rows.Next() {
		var c domain.Commit
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Message, &c.Author, &c.Timestamp, &c.FilesChanged, &c.Processed); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// MarkProcessed flips processed=true; unknown ids simply match no rows.
func (s *PostgresStore) MarkProcessed(ctx context.Context, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE commits SET processed = TRUE WHERE project_id = $1 AND id = ANY($2)`
	if _, err := s.db.ExecContext(ctx, query, projectID, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// --- ProjectRegistry ---

// CreateProject registers a project; a partial unique index on active
// projects' repo column enforces the one-repo-one-project invariant.
func (s *PostgresStore) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	brand, err := json.Marshal(project.Brand)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal brand: %w", err)
	}
	tagging, err := json.Marshal(project.Tagging)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal tagging: %w", err)
	}

	query := `
		INSERT INTO projects (id, name, repo, brand, tagging, post_frequency, slack_channel, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err = s.db.QueryRowContext(ctx, query,
		project.ID, project.Name, project.Repo, brand, tagging,
		project.PostFrequency, project.SlackChannel, project.Active,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.Project{}, port.ErrRepoConflict
		}
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// GetProject returns a project by id.
func (s *PostgresStore) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return s.scanProject(s.db.QueryRowContext(ctx,
		`SELECT id, name, repo, brand, tagging, post_frequency, slack_channel, active, created_at, updated_at
		 FROM projects WHERE id = $1`, id))
}

// FindByRepo returns the project bound to a repository identifier.
func (s *PostgresStore) FindByRepo(ctx context.Context, repo string) (domain.Project, error) {
	return s.scanProject(s.db.QueryRowContext(ctx,
		`SELECT id, name, repo, brand, tagging, post_frequency, slack_channel, active, created_at, updated_at
		 FROM projects WHERE repo = $1 LIMIT 1`, repo))
}

// ListActive returns all active projects.
func (s *PostgresStore) ListActive(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, repo, brand, tagging, post_frequency, slack_channel, active, created_at, updated_at
		 FROM projects WHERE active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := s.scanProjectRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies a partial patch inside a read-modify-write.
func (s *PostgresStore) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	project.Apply(patch)

	brand, err := json.Marshal(project.Brand)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal brand: %w", err)
	}
	tagging, err := json.Marshal(project.Tagging)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal tagging: %w", err)
	}

	query := `
		UPDATE projects
		SET name = $1, brand = $2, tagging = $3, post_frequency = $4,
		    slack_channel = $5, active = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err = s.db.QueryRowContext(ctx, query,
		project.Name, brand, tagging, project.PostFrequency,
		project.SlackChannel, project.Active, id,
	).Scan(&project.UpdatedAt)
	if err != nil {
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project.
func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// --- DraftStore ---

// SaveDraft inserts or replaces a draft by id.
func (s *PostgresStore) SaveDraft(ctx context.Context, draft domain.Draft) error {
	selection, err := json.Marshal(draft.Selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	destination, err := json.Marshal(draft.Destination)
	if err != nil {
		return fmt.Errorf("marshal destination: %w", err)
	}

	query := `
		INSERT INTO drafts (id, project_id, platform, content, source_commit_ids, selection, destination, approval_state, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			approval_state = EXCLUDED.approval_state`

	_, err = s.db.ExecContext(ctx, query,
		draft.ID, draft.ProjectID, draft.Platform, draft.Content,
		pq.Array(draft.SourceCommitIDs), selection, destination,
		draft.ApprovalState, draft.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// GetDraft returns a draft by id.
func (s *PostgresStore) GetDraft(ctx context.Context, id string) (domain.Draft, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, platform, content, source_commit_ids, selection, destination, approval_state, generated_at
		 FROM drafts WHERE id = $1`, id)
	return scanDraft(row)
}

// ListDraftsByProject returns a project's drafts, newest first.
func (s *PostgresStore) ListDraftsByProject(ctx context.Context, projectID string) ([]domain.Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, platform, content, source_commit_ids, selection, destination, approval_state, generated_at
		 FROM drafts WHERE project_id = $1 ORDER BY generated_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanProject(row rowScanner) (domain.Project, error) {
	var (
		p              domain.Project
		brand, tagging []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Repo, &brand, &tagging,
		&p.PostFrequency, &p.SlackChannel, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, port.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("scan project: %w", err)
	}
	if err := json.Unmarshal(brand, &p.Brand); err != nil {
		return domain.Project{}, fmt.Errorf("decode brand: %w", err)
	}
	if err := json.Unmarshal(tagging, &p.Tagging); err != nil {
		return domain.Project{}, fmt.Errorf("decode tagging: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) scanProjectRows(rows *sql.Rows) (domain.Project, error) {
	return s.scanProject(rows)
}

func scanDraft(row rowScanner) (domain.Draft, error) {
	var (
		d                      domain.Draft
		selection, destination []byte
	)
	err := row.Scan(&d.ID, &d.ProjectID, &d.Platform, &d.Content,
		pq.Array(&d.SourceCommitIDs), &selection, &destination,
		&d.ApprovalState, &d.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Draft{}, port.ErrDraftNotFound
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("scan draft: %w", err)
	}
	if err := json.Unmarshal(selection, &d.Selection); err != nil {
		return domain.Draft{}, fmt.Errorf("decode selection: %w", err)
	}
	if err := json.Unmarshal(destination, &d.Destination); err != nil {
		return domain.Draft{}, fmt.Errorf("decode destination: %w", err)
	}
	return d, nil
}
