package domain

import "time"

// Draft is one candidate post for one platform, awaiting human review.
// A draft targets exactly one destination; multi-target content becomes
// multiple independent drafts.
type Draft struct {
	ID              string      `json:"id"                db:"id"`
	ProjectID       string      `json:"project_id"        db:"project_id"`
	Platform        string      `json:"platform"          db:"platform"`
	Content         string      `json:"content"           db:"content"`
	SourceCommitIDs []string    `json:"source_commit_ids" db:"source_commit_ids"`
	Selection       Selection   `json:"selection"         db:"selection"`
	Destination     Destination `json:"destination"       db:"destination"`
	ApprovalState   string      `json:"approval_state"    db:"approval_state"`
	GeneratedAt     time.Time   `json:"generated_at"      db:"generated_at"`
}

// Selection records why these commits were chosen. Traceability metadata,
// not business logic.
type Selection struct {
	Theme    string   `json:"theme"`
	Angle    string   `json:"angle"`
	HookType string   `json:"hook_type"` // mrr, shipped, til, journey, contrarian
	Topics   []string `json:"topics"`
}

// Destination kinds.
const (
	DestinationDirect = "direct"       // programmatic publish path
	DestinationManual = "manual-group" // human copy/paste into a group
)

// Destination is where an approved draft goes.
type Destination struct {
	Kind    string `json:"kind"`
	Account string `json:"account,omitempty"` // publishing account/channel for direct
	GroupID string `json:"group_id,omitempty"`
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Approval states. Terminal states are published, failed, and skipped.
const (
	StatePending   = "pending"
	StateApproved  = "approved"
	StateEdited    = "edited"
	StateSkipped   = "skipped"
	StatePublished = "published"
	StateFailed    = "failed"
)

// Terminal reports whether the draft can no longer change state.
func (d Draft) Terminal() bool {
	switch d.ApprovalState {
	case StatePublished, StateFailed, StateSkipped:
		return true
	}
	return false
}

// PastePackage is the ready-to-paste bundle prepared for a manual-group
// destination. No automatic submission is ever attempted for these.
type PastePackage struct {
	Content   string `json:"content"`
	GroupName string `json:"group_name"`
	GroupURL  string `json:"group_url"`
}
