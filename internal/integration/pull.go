package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// Fetcher retrieves every record of a resource collection.
type Fetcher interface {
	Fetch(ctx context.Context, resource string, params url.Values) ([]json.RawMessage, error)
}

// Puller retrieves the raw state of a Todoist account, one resource at a time.
type Puller struct {
	fetcher Fetcher
	out     io.Writer
	events  core.EventLogger
}

// NewPuller creates a Puller that reports progress to out and records
// skipped comment fetches on events. Both out and events may be nil.
func NewPuller(fetcher Fetcher, out io.Writer, events core.EventLogger) *Puller {
	if out == nil {
		out = io.Discard
	}
	return &Puller{fetcher: fetcher, out: out, events: events}
}

// Pull fetches projects, sections, tasks, and labels, in that order, then the
// comments of every project and every task. Any failure on the first four
// collections aborts the pull. A failed comment fetch is reported and skipped.
func (p *Puller) Pull(ctx context.Context) (*models.RawCollections, error) {
	raw := &models.RawCollections{}

	steps := []struct {
		kind models.Kind
		dst  *[]json.RawMessage
	}{
		{models.KindProject, &raw.Projects},
		{models.KindSection, &raw.Sections},
		{models.KindTask, &raw.Tasks},
		{models.KindLabel, &raw.Labels},
	}
	for _, step := range steps {
		fmt.Fprintf(p.out, "Pulling %s...\n", step.kind.Resource())
		records, err := p.fetcher.Fetch(ctx, step.kind.Resource(), nil)
		if err != nil {
			return nil, fmt.Errorf("pulling %s: %w", step.kind.Resource(), err)
		}
		*step.dst = records
	}

	fmt.Fprintf(p.out, "Pulling comments for %d projects...\n", len(raw.Projects))
	raw.Comments = append(raw.Comments, p.fanOut(ctx, "project_id", raw.Projects)...)
	fmt.Fprintf(p.out, "Pulling comments for %d tasks...\n", len(raw.Tasks))
	raw.Comments = append(raw.Comments, p.fanOut(ctx, "task_id", raw.Tasks)...)

	return raw, nil
}

// fanOut fetches the comments of each owner record, filtering by param.
func (p *Puller) fanOut(ctx context.Context, param string, owners []json.RawMessage) []json.RawMessage {
	var comments []json.RawMessage
	resource := models.KindComment.Resource()
	for _, owner := range owners {
		id := rawID(owner)
		if id == "" {
			continue
		}
		records, err := p.fetcher.Fetch(ctx, resource, url.Values{param: {id}})
		if err != nil {
			fmt.Fprintf(p.out, "  Warning: failed to fetch comments for %s %s: %v\n", param, id, err)
			core.LogEvent(p.events, core.LevelWarn, "comments.fetch_failed", map[string]any{
				param:   id,
				"error": err.Error(),
			})
			continue
		}
		comments = append(comments, records...)
	}
	return comments
}

// rawID reads the string id of an undecoded record, or "" when it has none.
func rawID(raw json.RawMessage) string {
	var head struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	id, _ := head.ID.(string)
	return id
}
