package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Target binds a platform's formatting constraints to the destination a
// generated draft will be routed to. Multi-destination content is always
// expanded into one Target (and so one Draft) per destination up front.
type Target struct {
	Platform    string
	Destination domain.Destination
}

// Generator turns a set of commits into one polished draft per target.
// Generation is stochastic; callers assert on structural properties, not
// exact text.
type Generator struct {
	ai port.TextGenerator
}

// NewGenerator creates a content generator backed by the given text generator.
func NewGenerator(ai port.TextGenerator) *Generator {
	return &Generator{ai: ai}
}

// GenerateAll runs the selection stage once, then drafts each target
// independently and concurrently. A failure on one target is logged and
// excluded; it never aborts the others. A failed or empty selection
// abandons all targets quietly.
func (g *Generator) GenerateAll(ctx context.Context, commits []domain.Commit, project domain.Project, targets []Target) []domain.Draft {
	if len(commits) == 0 || len(targets) == 0 {
		return nil
	}

	sel, err := g.selectCommits(ctx, commits, project)
	if err != nil || sel == nil {
		if err != nil {
			slog.Warn("commit selection failed, abandoning generation", "project", project.ID, "error", err)
		} else {
			slog.Info("no postable commits selected", "project", project.ID)
		}
		return nil
	}

	sourceIDs := make([]string, 0, len(commits))
	for _, c := range commits {
		sourceIDs = append(sourceIDs, c.ID)
	}

	var (
		mu     sync.Mutex
		drafts []domain.Draft
		wg     sync.WaitGroup
	)
	for _, target := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			content, err := g.draft(ctx, sel, project, t.Platform)
			if err != nil {
				slog.Warn("draft generation failed for target",
					"project", project.ID, "platform", t.Platform, "error", err)
				return
			}

			mu.Lock()
			drafts = append(drafts, domain.Draft{
				ID:              uuid.NewString(),
				ProjectID:       project.ID,
				Platform:        t.Platform,
				Content:         content,
				SourceCommitIDs: sourceIDs,
				Selection:       sel.Selection,
				Destination:     t.Destination,
				ApprovalState:   domain.StatePending,
				GeneratedAt:     time.Now().UTC(),
			})
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	slog.Info("drafts generated", "project", project.ID, "requested", len(targets), "generated", len(drafts))
	return drafts
}

// selectionResult is the output of the selection stage.
type selectionResult struct {
	SelectedCommits []string
	Selection       domain.Selection
}

// selectCommits picks the 1-3 most postable commits and the narrative
// angle. A malformed or empty selection returns (nil, nil): a quiet
// no-op, not an error.
func (g *Generator) selectCommits(ctx context.Context, commits []domain.Commit, project domain.Project) (*selectionResult, error) {
	response, err := g.ai.Generate(ctx, "", selectionPrompt(commits, project))
	if err != nil {
		return nil, fmt.Errorf("selection stage: %w", err)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, nil
	}

	var parsed struct {
		SelectedCommits  []string `json:"selectedCommits"`
		MainTheme        string   `json:"mainTheme"`
		InterestingAngle string   `json:"interestingAngle"`
		HookType         string   `json:"hookType"`
		SuggestedTopics  []string `json:"suggestedTopics"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, nil
	}
	if len(parsed.SelectedCommits) == 0 {
		return nil, nil
	}

	return &selectionResult{
		SelectedCommits: parsed.SelectedCommits,
		Selection: domain.Selection{
			Theme:    parsed.MainTheme,
			Angle:    parsed.InterestingAngle,
			HookType: parsed.HookType,
			Topics:   parsed.SuggestedTopics,
		},
	}, nil
}

// draft composes one platform post from the selection. The result is
// trimmed and bounded by the platform's max length.
func (g *Generator) draft(ctx context.Context, sel *selectionResult, project domain.Project, platform string) (string, error) {
	format := domain.FormatFor(platform)

	response, err := g.ai.Generate(ctx, voicePrompt(project), draftPrompt(sel, project, format))
	if err != nil {
		return "", fmt.Errorf("drafting stage (%s): %w", platform, err)
	}

	content := strings.TrimSpace(response)
	if content == "" {
		return "", fmt.Errorf("drafting stage (%s): empty post", platform)
	}
	return truncate(content, format.MaxLength), nil
}

// truncate bounds content to max runes, reserving three for an ellipsis
// marker when cutting.
func truncate(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max-3]) + "..."
}

// mentionSuggestions combines always-tag handles with topic-matched ones.
func mentionSuggestions(project domain.Project, topics []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(handles []string) {
		for _, h := range handles {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	add(project.Tagging.AlwaysTag)
	for _, topic := range topics {
		add(project.Tagging.TopicTags[strings.ToLower(topic)])
	}
	return out
}

func selectionPrompt(commits []domain.Commit, project domain.Project) string {
	var summary strings.Builder
	for _, c := range commits {
		fmt.Fprintf(&summary, "- %s (%d files)\n", c.Message, c.FilesChanged)
	}

	return fmt.Sprintf(`You are analyzing git commits for "%s" to pick the most interesting ones for a "build in public" social media post.

COMMITS:
%s
Pick 1-3 commits that would make the most engaging social post. Consider:
- User-facing features > internal refactors
- Interesting technical challenges > routine updates
- Milestones > incremental progress
- Things that show personality/struggle > dry updates

Return JSON:
{
  "selectedCommits": ["commit message 1", "commit message 2"],
  "mainTheme": "brief description of the narrative",
  "interestingAngle": "what makes this postable",
  "hookType": "mrr|shipped|til|journey|contrarian",
  "suggestedTopics": ["ai", "automation"]
}`, project.Brand.Name, summary.String())
}

func voicePrompt(project domain.Project) string {
	voice := project.Brand.Voice
	if voice == "" {
		voice = "casual, authentic founder voice"
	}
	return fmt.Sprintf(`You are a "build in public" content creator writing for %s.

VOICE: %s

Voice rules:
- specific numbers over vague metrics
- short punchy sentences
- authentic struggles, not just wins
- no corporate speak ("We're excited to announce...")
- at most 2 hashtags`, project.Brand.Name, voice)
}

func draftPrompt(sel *selectionResult, project domain.Project, format domain.PlatformFormat) string {
	var shipped strings.Builder
	for _, msg := range sel.SelectedCommits {
		fmt.Fprintf(&shipped, "- %s\n", msg)
	}

	prompt := fmt.Sprintf(`Generate a %s post about today's shipping progress.

WHAT WE SHIPPED:
%s
NARRATIVE: %s
ANGLE: %s
HOOK TYPE TO USE: %s

PLATFORM CONSTRAINTS:
- Max length: %d chars
- Hashtags: %s`,
		format.Name, shipped.String(), sel.Selection.Theme, sel.Selection.Angle,
		sel.Selection.HookType, format.MaxLength, format.HashtagStyle)

	if mentions := mentionSuggestions(project, sel.Selection.Topics); len(mentions) > 0 {
		prompt += fmt.Sprintf("\n- Consider mentioning: %s", strings.Join(mentions, ", "))
	}

	prompt += "\n\nGenerate ONE natural, engaging post. Be authentic, not salesy.\nReturn ONLY the post text, nothing else."
	return prompt
}
