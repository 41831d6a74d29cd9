package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// Poster creates one entity in a resource collection.
type Poster interface {
	Post(ctx context.Context, resource string, payload any, requestID string) (*Response, error)
}

// PushOutcome records what happened to one entity during a push.
type PushOutcome struct {
	Kind       models.Kind
	LocalID    string
	RemoteID   string
	StatusCode int
	Body       string
	Skipped    bool
	Err        error
}

// PushReport lists the outcome of every entity a push visited, in replay
// order.
type PushReport struct {
	Outcomes []PushOutcome
	DryRun   bool
}

// Created returns how many entities were created remotely (or would be, in a
// dry run).
func (r *PushReport) Created() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Skipped && o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns how many POSTs failed.
func (r *PushReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Skipped returns how many entities were not sent because an ancestor failed.
func (r *PushReport) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped {
			n++
		}
	}
	return n
}

// Pusher replays a project hierarchy against the API, creating every project,
// section, and task anew.
//
// Failure policy: a failed POST does not stop its siblings, but every entity
// beneath it is skipped, since there is no remote identifier to attach it to.
// Push returns an error when any POST failed.
type Pusher struct {
	poster Poster
	out    io.Writer
	events core.EventLogger
	dryRun bool
	newID  func() string

	// remote maps local project ids to the ids the API assigned this run.
	remote map[string]string
	// lost holds local project ids that failed or were skipped this run.
	lost   map[string]bool
	report *PushReport
}

// PusherOption configures a Pusher.
type PusherOption func(*Pusher)

// WithDryRun makes the Pusher print its plan without sending anything.
func WithDryRun(dryRun bool) PusherOption {
	return func(p *Pusher) { p.dryRun = dryRun }
}

// WithRequestIDs replaces the X-Request-Id generator.
func WithRequestIDs(newID func() string) PusherOption {
	return func(p *Pusher) { p.newID = newID }
}

// NewPusher creates a Pusher. poster may be nil in a dry run.
func NewPusher(poster Poster, out io.Writer, events core.EventLogger, opts ...PusherOption) *Pusher {
	if out == nil {
		out = io.Discard
	}
	p := &Pusher{
		poster: poster,
		out:    out,
		events: events,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Push creates each project, then each of its sections, then the tasks of
// each section depth-first (subtasks after their parent), then the tasks
// filed directly under the project. Parent projects are created before their
// children; a child project whose parent failed is skipped with everything
// beneath it.
func (p *Pusher) Push(ctx context.Context, projects []models.Project) (*PushReport, error) {
	if !p.dryRun && p.poster == nil {
		return nil, fmt.Errorf("push: no API client configured")
	}
	p.remote = make(map[string]string, len(projects))
	p.lost = make(map[string]bool)
	p.report = &PushReport{DryRun: p.dryRun}

	for _, proj := range orderProjects(projects) {
		if parent, ok := refValue(proj.ParentID); ok && p.lost[parent] {
			fmt.Fprintf(p.out, "  Skipping project %s %q: parent project %s was not created\n", proj.ID, proj.Name, parent)
			core.LogEvent(p.events, core.LevelWarn, "push.entity_skipped", map[string]any{
				"kind":      string(models.KindProject),
				"local_id":  proj.ID,
				"parent_id": parent,
			})
			p.lost[proj.ID] = true
			p.skip(models.KindProject, proj.ID)
			p.skipProject(proj)
			continue
		}
		projectID, ok := p.create(ctx, models.KindProject, proj.ID, proj.Name, projectPayload(proj, p.remote))
		if !ok {
			p.lost[proj.ID] = true
			p.skipProject(proj)
			continue
		}
		p.remote[proj.ID] = projectID

		for _, sec := range proj.Sections {
			sectionID, ok := p.create(ctx, models.KindSection, sec.ID, sec.Name, sectionPayload(sec, projectID))
			if !ok {
				p.skipTasks(sec.Tasks)
				continue
			}
			p.pushTasks(ctx, sec.Tasks, projectID, sectionID, "")
		}
		p.pushTasks(ctx, proj.Tasks, projectID, "", "")
	}

	report := p.report
	if failed := report.Failed(); failed > 0 {
		var errs []error
		for _, o := range report.Outcomes {
			if o.Err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", o.Kind, o.LocalID, o.Err))
			}
		}
		return report, fmt.Errorf("%d of %d entities failed to push: %w", failed, len(report.Outcomes), errors.Join(errs...))
	}
	return report, nil
}

func (p *Pusher) pushTasks(ctx context.Context, tasks []models.Task, projectID, sectionID, parentID string) {
	for _, t := range tasks {
		taskID, ok := p.create(ctx, models.KindTask, t.ID, t.Content, taskPayload(t, projectID, sectionID, parentID))
		if !ok {
			p.skipTasks(t.Subtasks)
			continue
		}
		p.pushTasks(ctx, t.Subtasks, projectID, sectionID, taskID)
	}
}

// create POSTs one entity and reports whether it now has a remote id.
func (p *Pusher) create(ctx context.Context, kind models.Kind, localID, name string, payload map[string]any) (string, bool) {
	if p.dryRun {
		fmt.Fprintf(p.out, "  would create %s %s %q\n", kind, localID, name)
		p.report.Outcomes = append(p.report.Outcomes, PushOutcome{Kind: kind, LocalID: localID, RemoteID: localID})
		return localID, true
	}

	outcome := PushOutcome{Kind: kind, LocalID: localID}
	resp, err := p.poster.Post(ctx, kind.Resource(), payload, p.newID())
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		outcome.StatusCode = httpErr.StatusCode
		outcome.Body = httpErr.Body
		outcome.Err = err
	case err != nil:
		outcome.Err = err
	default:
		outcome.StatusCode = resp.StatusCode
		outcome.Body = string(resp.Body)
		outcome.RemoteID = rawID(resp.Body)
		if outcome.RemoteID == "" {
			outcome.Err = fmt.Errorf("response for %s %s has no id", kind, localID)
		}
	}

	if outcome.StatusCode != 0 {
		fmt.Fprintf(p.out, "  %s %s %q -> %d %s\n", kind, localID, name, outcome.StatusCode, strings.TrimSpace(outcome.Body))
	}
	if outcome.Err != nil {
		fmt.Fprintf(p.out, "  Error: %s %s %q: %v\n", kind, localID, name, outcome.Err)
		core.LogEvent(p.events, core.LevelError, "push.entity_failed", map[string]any{
			"kind":     string(kind),
			"local_id": localID,
			"status":   outcome.StatusCode,
			"error":    outcome.Err.Error(),
		})
	} else {
		core.LogEvent(p.events, core.LevelInfo, "push.entity_created", map[string]any{
			"kind":      string(kind),
			"local_id":  localID,
			"remote_id": outcome.RemoteID,
		})
	}

	p.report.Outcomes = append(p.report.Outcomes, outcome)
	return outcome.RemoteID, outcome.Err == nil
}

func (p *Pusher) skipProject(proj models.Project) {
	for _, sec := range proj.Sections {
		p.skip(models.KindSection, sec.ID)
		p.skipTasks(sec.Tasks)
	}
	p.skipTasks(proj.Tasks)
}

func (p *Pusher) skipTasks(tasks []models.Task) {
	for _, t := range tasks {
		p.skip(models.KindTask, t.ID)
		p.skipTasks(t.Subtasks)
	}
}

func (p *Pusher) skip(kind models.Kind, localID string) {
	p.report.Outcomes = append(p.report.Outcomes, PushOutcome{Kind: kind, LocalID: localID, Skipped: true})
}

// orderProjects returns projects with every parent ahead of its children and
// otherwise in input order. A parent cycle is broken where it closes.
func orderProjects(projects []models.Project) []models.Project {
	index := make(map[string]int, len(projects))
	for i, proj := range projects {
		if _, dup := index[proj.ID]; !dup {
			index[proj.ID] = i
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(projects))
	out := make([]models.Project, 0, len(projects))
	var visit func(i int)
	visit = func(i int) {
		if state[i] != unvisited {
			return
		}
		state[i] = visiting
		if parent, ok := refValue(projects[i].ParentID); ok {
			if j, ok := index[parent]; ok {
				visit(j)
			}
		}
		state[i] = done
		out = append(out, projects[i])
	}
	for i := range projects {
		visit(i)
	}
	return out
}

// projectPayload builds the create-project body. The parent is linked when
// it was created earlier in the run; a parent missing from the snapshot, or
// one that closes a cycle, leaves the project at the top level.
func projectPayload(proj models.Project, remote map[string]string) map[string]any {
	payload := map[string]any{
		"name":        proj.Name,
		"color":       proj.Color,
		"is_favorite": proj.IsFavorite,
		"view_style":  proj.ViewStyle,
	}
	if parent, ok := refValue(proj.ParentID); ok {
		if id, ok := remote[parent]; ok {
			payload["parent_id"] = id
		}
	}
	return payload
}

func sectionPayload(sec models.Section, projectID string) map[string]any {
	return map[string]any{
		"name":       sec.Name,
		"project_id": projectID,
		"order":      sec.Order,
	}
}

func taskPayload(t models.Task, projectID, sectionID, parentID string) map[string]any {
	labels := t.Labels
	if labels == nil {
		labels = []string{}
	}
	payload := map[string]any{
		"content":    t.Content,
		"project_id": projectID,
		"labels":     labels,
		"priority":   t.Priority,
		"order":      t.Order,
	}
	if t.Description != nil {
		payload["description"] = *t.Description
	}
	if sectionID != "" {
		payload["section_id"] = sectionID
	}
	if parentID != "" {
		payload["parent_id"] = parentID
	}
	if t.Due != nil {
		switch {
		case t.Due.IsRecurring:
			payload["due_string"] = t.Due.String
		case t.Due.Datetime != nil && *t.Due.Datetime != "":
			payload["due_datetime"] = *t.Due.Datetime
		default:
			payload["due_date"] = t.Due.Date
		}
	}
	if t.Duration != nil {
		payload["duration"] = t.Duration.Amount
		payload["duration_unit"] = string(t.Duration.Unit)
	}
	return payload
}

func refValue(id *string) (string, bool) {
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}

// ensure the API client satisfies both roles.
var (
	_ Fetcher = (*Client)(nil)
	_ Poster  = (*Client)(nil)
)

// String renders an outcome for summaries.
func (o PushOutcome) String() string {
	switch {
	case o.Skipped:
		return fmt.Sprintf("%s %s skipped", o.Kind, o.LocalID)
	case o.Err != nil:
		return fmt.Sprintf("%s %s failed: %v", o.Kind, o.LocalID, o.Err)
	}
	return fmt.Sprintf("%s %s created as %s", o.Kind, o.LocalID, o.RemoteID)
}
