package domain

import "time"

// Project represents one brand/repository the system posts on behalf of.
type Project struct {
	ID            string    `json:"id"             db:"id"`
	Name          string    `json:"name"           db:"name"`
	Repo          string    `json:"repo"           db:"repo"` // e.g. "username/repo"
	Brand         Brand     `json:"brand"          db:"brand"`
	Tagging       Tagging   `json:"tagging"        db:"tagging"`
	PostFrequency string    `json:"post_frequency" db:"post_frequency"`
	SlackChannel  string    `json:"slack_channel"  db:"slack_channel"`
	Active        bool      `json:"active"         db:"active"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// Brand holds the voice and platform routing configuration for a project.
type Brand struct {
	Name          string        `json:"name"           yaml:"name"`
	Voice         string        `json:"voice"          yaml:"voice"` // casual-founder, professional, technical, playful
	Platforms     []string      `json:"platforms"      yaml:"platforms"`
	AccountHandle string        `json:"account_handle" yaml:"account_handle"`
	Groups        []GroupTarget `json:"groups"         yaml:"groups"` // manual-paste destinations
}

// Tagging configures handle mentions attached to generated posts.
type Tagging struct {
	AlwaysTag []string            `json:"always_tag" yaml:"always_tag"`
	TopicTags map[string][]string `json:"topic_tags" yaml:"topic_tags"`
}

// GroupTarget is a manual-group destination the project posts to by hand.
type GroupTarget struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url"  yaml:"url"`
}

// Post frequency modes.
const (
	FrequencyDailyDigest = "daily-digest"
	FrequencyPerCommit   = "per-commit"
	FrequencyImmediate   = "immediate"
	FrequencySmart       = "smart"
)

// ProjectPatch is a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Name          *string  `json:"name,omitempty"`
	Brand         *Brand   `json:"brand,omitempty"`
	Tagging       *Tagging `json:"tagging,omitempty"`
	PostFrequency *string  `json:"post_frequency,omitempty"`
	SlackChannel  *string  `json:"slack_channel,omitempty"`
	Active        *bool    `json:"active,omitempty"`
}

// Apply copies non-nil patch fields onto the project.
func (p *Project) Apply(patch ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Tagging != nil {
		p.Tagging = *patch.Tagging
	}
	if patch.PostFrequency != nil {
		p.PostFrequency = *patch.PostFrequency
	}
	if patch.SlackChannel != nil {
		p.SlackChannel = *patch.SlackChannel
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	p.UpdatedAt = time.Now().UTC()
}
