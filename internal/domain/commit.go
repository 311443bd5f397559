package domain

import (
	"strings"
	"time"
)

// Commit is one VCS commit captured from a push event, scoped to a project.
// The ID is the provider-assigned identifier (SHA); (ProjectID, ID) is unique.
type Commit struct {
	ID           string    `json:"id"            db:"id"`
	ProjectID    string    `json:"project_id"    db:"project_id"`
	Message      string    `json:"message"       db:"message"`
	Author       string    `json:"author"        db:"author"`
	Timestamp    time.Time `json:"timestamp"     db:"timestamp"`
	FilesChanged int       `json:"files_changed" db:"files_changed"`
	Processed    bool      `json:"processed"     db:"processed"`
}

// SkipMarker in a commit message opts the commit out of post generation.
const SkipMarker = "[skip-post]"

// Postable reports whether a commit should enter the pipeline at all.
// Merge commits, bot commits, and opted-out commits are dropped at ingestion.
func (c Commit) Postable() bool {
	if strings.HasPrefix(c.Message, "Merge ") {
		return false
	}
	if strings.Contains(strings.ToLower(c.Author), "bot") {
		return false
	}
	if strings.Contains(c.Message, SkipMarker) {
		return false
	}
	return true
}
