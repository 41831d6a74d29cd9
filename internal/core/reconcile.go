package core

import (
	"fmt"

	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// Reconciler turns raw resource collections into a validated, assembled
// Snapshot.
type Reconciler interface {
	// Reconcile validates freshly fetched collections and assembles the
	// project hierarchy.
	Reconcile(raw *models.RawCollections) (*models.Snapshot, error)
	// Revalidate rebuilds a Snapshot from records read back from a snapshot
	// file, under the same validation rules as Reconcile.
	Revalidate(raw *models.RawCollections) (*models.Snapshot, error)
}

type reconciler struct{}

// NewReconciler creates a Reconciler.
func NewReconciler() Reconciler {
	return &reconciler{}
}

func (r *reconciler) Reconcile(raw *models.RawCollections) (*models.Snapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("no data to reconcile")
	}

	projects, err := ValidateBatch(models.KindProject, raw.Projects, func(p models.Project) string { return p.ID })
	if err != nil {
		return nil, err
	}
	sections, err := ValidateBatch(models.KindSection, raw.Sections, func(s models.Section) string { return s.ID })
	if err != nil {
		return nil, err
	}
	tasks, err := ValidateBatch(models.KindTask, raw.Tasks, func(t models.Task) string { return t.ID })
	if err != nil {
		return nil, err
	}
	labels, err := ValidateBatch(models.KindLabel, raw.Labels, func(l models.Label) string { return l.ID })
	if err != nil {
		return nil, err
	}
	comments, err := ValidateBatch(models.KindComment, raw.Comments, func(c models.Comment) string { return c.ID })
	if err != nil {
		return nil, err
	}

	snap := Assemble(projects, sections, tasks)
	snap.Labels = labels
	snap.Comments = comments
	return snap, nil
}

// Revalidate shares Reconcile's path: a snapshot file holds the same flat
// records the API returns, so the hierarchy is rebuilt rather than trusted.
func (r *reconciler) Revalidate(raw *models.RawCollections) (*models.Snapshot, error) {
	return r.Reconcile(raw)
}

// ref returns the referenced identifier of an optional join key. A null or
// empty key references nothing.
func ref(id *string) (string, bool) {
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}

// indexByID maps each identifier to the position of its first occurrence.
func indexByID[T any](items []T, id func(T) string) map[string]int {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		key := id(item)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// Assemble nests sections under projects and tasks under parent tasks,
// sections, or projects, in that priority order: a task whose parent_id
// resolves is a subtask and nothing else; otherwise a resolvable section_id
// files it in that section; otherwise a resolvable project_id files it
// directly under the project. Owned lists keep input order.
//
// Records that resolve to no owner, or live beneath one that is not in the
// hierarchy (including parent cycles), are returned flat in the Unattached
// lists. The inputs are not modified.
func Assemble(projects []models.Project, sections []models.Section, tasks []models.Task) *models.Snapshot {
	projectIdx := indexByID(projects, func(p models.Project) string { return p.ID })
	sectionIdx := indexByID(sections, func(s models.Section) string { return s.ID })
	taskIdx := indexByID(tasks, func(t models.Task) string { return t.ID })

	sectionsOf := make([][]int, len(projects))
	sectionAttached := make([]bool, len(sections))
	for i, s := range sections {
		if p, ok := projectIdx[s.ProjectID]; ok {
			sectionsOf[p] = append(sectionsOf[p], i)
			sectionAttached[i] = true
		}
	}

	subtasksOf := make([][]int, len(tasks))
	tasksOfSection := make([][]int, len(sections))
	tasksOfProject := make([][]int, len(projects))
	for i, t := range tasks {
		if id, ok := ref(t.ParentID); ok {
			if p, ok := taskIdx[id]; ok {
				subtasksOf[p] = append(subtasksOf[p], i)
				continue
			}
		}
		if id, ok := ref(t.SectionID); ok {
			if s, ok := sectionIdx[id]; ok {
				tasksOfSection[s] = append(tasksOfSection[s], i)
				continue
			}
		}
		if p, ok := projectIdx[t.ProjectID]; ok {
			tasksOfProject[p] = append(tasksOfProject[p], i)
		}
	}

	placed := make([]bool, len(tasks))
	var build func(ids []int) []models.Task
	build = func(ids []int) []models.Task {
		if len(ids) == 0 {
			return nil
		}
		out := make([]models.Task, 0, len(ids))
		for _, i := range ids {
			placed[i] = true
			t := tasks[i].Flat()
			t.Subtasks = build(subtasksOf[i])
			out = append(out, t)
		}
		return out
	}

	snap := &models.Snapshot{}
	if len(projects) > 0 {
		snap.Projects = make([]models.Project, 0, len(projects))
	}
	for pi, p := range projects {
		proj := p.Flat()
		for _, si := range sectionsOf[pi] {
			sec := sections[si].Flat()
			sec.Tasks = build(tasksOfSection[si])
			proj.Sections = append(proj.Sections, sec)
		}
		proj.Tasks = build(tasksOfProject[pi])
		snap.Projects = append(snap.Projects, proj)
	}

	for i, s := range sections {
		if !sectionAttached[i] {
			snap.UnattachedSections = append(snap.UnattachedSections, s.Flat())
		}
	}
	for i, t := range tasks {
		if !placed[i] {
			snap.UnattachedTasks = append(snap.UnattachedTasks, t.Flat())
		}
	}
	return snap
}
