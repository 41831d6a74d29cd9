package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/observability"
	"github.com/valter-silva-au/todoist-interlingua/internal/storage"
)

const (
	projectJSON = `{"id":"1","name":"Work","comment_count":0,"order":1,"color":"charcoal","is_shared":false,"is_favorite":false,"parent_id":null,"is_inbox_project":false,"is_team_inbox":false,"view_style":"list","url":"https://todoist.com/showProject?id=1"}`
	sectionJSON = `{"id":"10","project_id":"1","order":1,"name":"Backlog"}`
	taskJSON    = `{"id":"100","creator_id":"2671355","created_at":"2019-12-11T22:36:50.000000Z","assignee_id":null,"assigner_id":null,"comment_count":1,"is_completed":false,"content":"Buy milk","description":"","due":null,"duration":null,"labels":["Food"],"order":1,"priority":1,"project_id":"1","section_id":"10","parent_id":null,"url":"https://todoist.com/showTask?id=100"}`
	subtaskJSON = `{"id":"101","creator_id":"2671355","created_at":"2019-12-11T22:36:50.000000Z","assignee_id":null,"assigner_id":null,"comment_count":0,"is_completed":false,"content":"Check the fridge","description":null,"due":null,"duration":null,"labels":[],"order":1,"priority":2,"project_id":"1","section_id":"10","parent_id":"100","url":"https://todoist.com/showTask?id=101"}`
	labelJSON   = `{"id":"7","name":"Food","color":"berry_red","order":1,"is_favorite":false}`
	commentJSON = `{"id":"c1","task_id":"100","project_id":null,"posted_at":"2016-09-22T07:00:00.000000Z","content":"Need milk","attachment":null}`
)

// fakeTodoist is an in-memory stand-in for the Todoist REST API.
type fakeTodoist struct {
	mu       sync.Mutex
	projects []string
	hits     int
	auth     []string
	posts    []string
	bodies   []map[string]any
	nextID   int
}

func (f *fakeTodoist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if r.Method == http.MethodPost {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.posts = append(f.posts, r.URL.Path)
		f.bodies = append(f.bodies, body)
		f.nextID++
		fmt.Fprintf(w, `{"id":"r%d"}`, f.nextID)
		return
	}

	var records []string
	switch r.URL.Path {
	case "/projects":
		records = f.projects
	case "/sections":
		records = []string{sectionJSON}
	case "/tasks":
		records = []string{taskJSON, subtaskJSON}
	case "/labels":
		records = []string{labelJSON}
	case "/comments":
		if r.URL.Query().Get("task_id") == "100" {
			records = []string{commentJSON}
		}
	default:
		http.NotFound(w, r)
		return
	}
	_, _ = io.WriteString(w, "["+strings.Join(records, ",")+"]")
}

// fakeEvents records logged event types.
type fakeEvents struct {
	events []string
}

func (f *fakeEvents) LogEvent(level, eventType string, _ map[string]any) error {
	f.events = append(f.events, level+" "+eventType)
	return nil
}

type testEnv struct {
	dir    string
	api    *fakeTodoist
	events *fakeEvents
}

// setupServices points the package-level services at a temp directory and a
// fake API server, restoring everything when the test ends.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	origBase, origCfg, origMgr := BasePath, Config, ConfigMgr
	origRec, origSnaps, origEvents := Reconciler, Snapshots, Events
	origJournal, origConfigErr := Journal, ConfigErr
	origPull, origPush, origDry, origForce := pullToken, pushToken, pushDryRun, initForce
	origTypes, origLevel, origSince, origLimit, origLastRun := logTypes, logLevel, logSince, logLimit, logLastRun
	t.Cleanup(func() {
		if Journal != nil {
			_ = Journal.Close()
		}
		BasePath, Config, ConfigMgr = origBase, origCfg, origMgr
		Reconciler, Snapshots, Events = origRec, origSnaps, origEvents
		Journal, ConfigErr = origJournal, origConfigErr
		pullToken, pushToken, pushDryRun, initForce = origPull, origPush, origDry, origForce
		logTypes, logLevel, logSince, logLimit, logLastRun = origTypes, origLevel, origSince, origLimit, origLastRun
	})
	t.Setenv(core.TokenEnvVar, "")

	env := &testEnv{
		dir:    t.TempDir(),
		api:    &fakeTodoist{projects: []string{projectJSON}},
		events: &fakeEvents{},
	}
	srv := httptest.NewServer(env.api)
	t.Cleanup(srv.Close)

	cfg := core.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	BasePath = env.dir
	Config = cfg
	ConfigMgr = core.NewConfigurationManager(env.dir)
	Reconciler = core.NewReconciler()
	Snapshots = storage.NewSnapshotStore(filepath.Join(env.dir, cfg.Files.Snapshot))
	Journal = observability.NewJournal(filepath.Join(env.dir, cfg.Files.Events), "test-run")
	Events = env.events
	ConfigErr = nil
	pullToken, pushToken, pushDryRun, initForce = "", "", false, false
	logTypes, logLevel, logSince, logLimit, logLastRun = nil, "", 0, 50, false
	return env
}

// run invokes a command's RunE with captured output.
func run(cmd *cobra.Command) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.RunE(cmd, []string{})
	return out.String(), errOut.String(), err
}
