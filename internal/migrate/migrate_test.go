package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freakybytes/tracmigrate"
	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/trac"
)

func testTicket(t *testing.T, id int, attrs map[string]string) *trac.Ticket {
	t.Helper()
	raw := make(map[string]json.RawMessage, len(attrs))
	for k, v := range attrs {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal attr %s: %v", k, err)
		}
		raw[k] = data
	}
	return &trac.Ticket{ID: id, Attributes: raw}
}

func TestIssueState(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"new", "open"},
		{"reopened", "open"},
		{"assigned", "open"},
		{"accepted", "open"},
		{"closed", "closed"},
		{"", "open"},
	}

	for _, tt := range tests {
		if got := issueState(tt.status); got != tt.expected {
			t.Errorf("issueState(%q) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestCollectLabels(t *testing.T) {
	ticket := testTicket(t, 1, map[string]string{
		"component":  "core",
		"type":       "defect",
		"priority":   "major",
		"milestone":  "",
		"resolution": "fixed",
		"keywords":   "crash, startup core",
	})

	labels := collectLabels(ticket)
	expected := []string{"migrated", "core", "defect", "major", "fixed", "crash", "startup"}
	if len(labels) != len(expected) {
		t.Fatalf("labels = %v, want %v", labels, expected)
	}
	for i, l := range expected {
		if labels[i] != l {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], l)
		}
	}
}

func TestCollectLabelsMinimal(t *testing.T) {
	labels := collectLabels(testTicket(t, 1, nil))
	if len(labels) != 1 || labels[0] != "migrated" {
		t.Errorf("labels = %v, want [migrated]", labels)
	}
}

func TestBuildIssueBody(t *testing.T) {
	ticket := testTicket(t, 7, map[string]string{
		"reporter":    "alice",
		"description": "Some '''bold''' text.",
	})
	conv := tracmigrate.NewConverter()

	body := buildIssueBody(ticket, "http://trac.example.org/demo", conv)

	for _, want := range []string{
		"*Migrated from http://trac.example.org/demo/ticket/7*",
		"Original reporter: **alice**",
		"Some **bold** text.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildIssueBodyUnknownReporter(t *testing.T) {
	body := buildIssueBody(testTicket(t, 1, nil), "http://trac.example.org/demo", tracmigrate.NewConverter())
	if !strings.Contains(body, "Original reporter: **-**") {
		t.Errorf("body missing reporter placeholder:\n%s", body)
	}
}

func TestBuildCommentBody(t *testing.T) {
	entry := &trac.ChangeEntry{
		Author:   "bob",
		Field:    "comment",
		NewValue: "See TracGuide for details.",
	}
	body := buildCommentBody(entry, tracmigrate.NewConverter())

	if !strings.Contains(body, "*Original comment by **bob**") {
		t.Errorf("body missing author line:\n%s", body)
	}
	if !strings.Contains(body, "wiki/TracGuide") {
		t.Errorf("comment text not converted:\n%s", body)
	}
}

func TestRunNoEnabledEnvironments(t *testing.T) {
	cfg := config.Default()
	cfg.Environments = []config.Environment{
		{TracID: "demo", GitHubProject: "acme/demo", Enabled: false},
	}

	m := New(cfg, nil, Options{}, nil)
	if err := m.Run(context.Background()); !errors.Is(err, ErrNoEnvironments) {
		t.Errorf("err = %v, want ErrNoEnvironments", err)
	}
}

func TestMigrateProjectBadRepoName(t *testing.T) {
	cfg := config.Default()
	env := config.Environment{TracID: "demo", GitHubProject: "a/b/c", Enabled: true}

	m := New(cfg, nil, Options{DryRun: true}, nil)
	if err := m.MigrateProject(context.Background(), env); err == nil {
		t.Error("expected error for invalid repository name")
	}
}

// tracServer serves canned JSON-RPC results keyed by method name under the
// demo environment path.
func tracServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			_, _ = w.Write([]byte(`{"result": null, "error": {"message": "no such method", "code": -32601}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result": ` + result + `, "error": null}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readRepoFile(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	return string(data), err
}

func TestMigrateProjectDryRun(t *testing.T) {
	srv := tracServer(t, map[string]string{
		"wiki.getAllPages": `["WikiStart", "TracGuide", "ProjectDocs"]`,
		"wiki.getPage":     `"= Title =\nSee ProjectDocs.\n"`,
		"ticket.query":     `[1]`,
		"ticket.get": `[1,
			{"__jsonclass__": ["datetime", "2014-03-01T10:20:30"]},
			{"__jsonclass__": ["datetime", "2014-03-01T10:20:30"]},
			{"summary": "crash", "status": "new", "description": "text"}]`,
	})

	cfg := config.Default()
	cfg.Trac.BaseURL = srv.URL
	env := config.Environment{TracID: "demo", GitHubProject: "acme/demo", Enabled: true}
	cfg.Environments = []config.Environment{env}

	// Dry run never touches the GitHub client or the filesystem, so a nil
	// client is enough.
	m := New(cfg, nil, Options{DryRun: true}, nil)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestMigrateWikiWritesBranch(t *testing.T) {
	srv := tracServer(t, map[string]string{
		"wiki.getAllPages":     `["WikiStart", "TracGuide", "ProjectDocs"]`,
		"wiki.getPage":         `"= Title =\nSome '''bold''' text.\n"`,
		"wiki.listAttachments": `[]`,
	})

	cfg := config.Default()
	cfg.Trac.BaseURL = srv.URL
	env := config.Environment{
		TracID:        "demo",
		GitHubProject: "acme/demo",
		GitRepository: t.TempDir(),
		Enabled:       true,
	}

	m := New(cfg, nil, Options{NoPush: true}, nil)
	tc, err := m.tracClient(env)
	if err != nil {
		t.Fatalf("tracClient: %v", err)
	}
	if err := m.migrateWiki(context.Background(), env, tc, "acme", "demo"); err != nil {
		t.Fatalf("migrateWiki: %v", err)
	}

	// TracGuide is on the stock filter list, the other two pages are kept.
	for _, name := range []string{"WikiStart.md", "ProjectDocs.md"} {
		data, err := readRepoFile(env.GitRepository, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(data, "Title\n=====") {
			t.Errorf("%s not converted:\n%s", name, data)
		}
	}
	if _, err := readRepoFile(env.GitRepository, "TracGuide.md"); err == nil {
		t.Error("stock page TracGuide was migrated")
	}

	// Running again sees the existing branch and leaves it alone.
	if err := m.migrateWiki(context.Background(), env, tc, "acme", "demo"); err != nil {
		t.Fatalf("migrateWiki (second run): %v", err)
	}
}
