package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/remote"
	"github.com/charmbracelet/log"
)

type env struct {
	dir     string
	extra   []string
	confirm bool
	asked   int
}

func newEnv(t *testing.T, extra ...string) *env {
	t.Helper()
	for _, k := range []string{"QRGEN_SLOT", "QRGEN_MIRROR_URL", "QRGEN_LOG_LEVEL", "QRGEN_EXPORT_DIR", "QRGEN_PAGE_SIZE"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("QRGEN_DATA_DIR", dir)
	return &env{dir: dir, extra: extra}
}

// run executes one CLI invocation with a fresh command tree.
func (e *env) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp()
	a.out, a.errOut = &out, &errOut
	a.confirm = func(title, description string) (bool, error) {
		e.asked++
		return e.confirm, nil
	}
	root := newRootCmd(a)
	root.SetArgs(append(append([]string{"--data-dir", e.dir, "--theme", "mono"}, e.extra...), args...))
	err = root.Execute()
	a.close()
	return out.String(), errOut.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, stderr)
	}
	return out
}

func (e *env) list(t *testing.T) []model.Record {
	t.Helper()
	var recs []model.Record
	if err := json.Unmarshal([]byte(e.mustRun(t, "ls", "--format", "json")), &recs); err != nil {
		t.Fatalf("ls json: %v", err)
	}
	return recs
}

func TestAddAndList(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "add", "--title", "Go", "https://go.dev")
	if !strings.Contains(out, "added ") {
		t.Errorf("add output = %q", out)
	}
	recs := e.list(t)
	if len(recs) != 1 || recs[0].Title != "Go" || recs[0].URL != "https://go.dev" || recs[0].ID == "" {
		t.Fatalf("records = %+v", recs)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "qrCodes.json")); err != nil {
		t.Errorf("slot file missing: %v", err)
	}

	table := e.mustRun(t, "ls")
	if !strings.Contains(table, "https://go.dev") || !strings.Contains(table, recs[0].ID[:8]) {
		t.Errorf("table = %q", table)
	}
}

func TestListEmptyJSON(t *testing.T) {
	e := newEnv(t)
	if out := strings.TrimSpace(e.mustRun(t, "ls", "-f", "json")); out != "[]" {
		t.Fatalf("ls json on empty list = %q", out)
	}
}

func TestAddRejectsInvalidURL(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "add", "not a url")
	if err == nil || err.Error() != "The URL provided is not valid." {
		t.Fatalf("err = %v", err)
	}
	if len(e.list(t)) != 0 {
		t.Fatal("invalid url stored")
	}
}

func TestEditByPrefix(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "https://old.com")
	id := e.list(t)[0].ID

	e.mustRun(t, "edit", id[:6], "--url", "https://new.com")
	recs := e.list(t)
	if len(recs) != 1 || recs[0].ID != id || recs[0].URL != "https://new.com" {
		t.Fatalf("records = %+v", recs)
	}

	if _, _, err := e.run(t, "edit", id); err == nil {
		t.Error("edit without flags should fail")
	}
	if _, _, err := e.run(t, "edit", "zzzz", "--title", "x"); err == nil {
		t.Error("edit of unknown id should fail")
	}
}

func TestRemoveAsksFirst(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "https://a.io")
	e.mustRun(t, "add", "https://b.io")
	id := e.list(t)[0].ID

	e.confirm = false
	if out := e.mustRun(t, "rm", id); !strings.Contains(out, "kept") {
		t.Errorf("output = %q", out)
	}
	if len(e.list(t)) != 2 || e.asked != 1 {
		t.Fatal("declined delete removed the record")
	}

	e.confirm = true
	e.mustRun(t, "rm", id)
	recs := e.list(t)
	if len(recs) != 1 || recs[0].URL != "https://b.io" {
		t.Fatalf("records = %+v", recs)
	}

	e.mustRun(t, "rm", "--yes", recs[0].ID)
	if e.asked != 2 {
		t.Errorf("--yes still prompted (asked %d)", e.asked)
	}
	if len(e.list(t)) != 0 {
		t.Fatal("rm --yes did not remove")
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "https://a.io")
	id := e.list(t)[0].ID
	outDir := filepath.Join(t.TempDir(), "png")

	out := e.mustRun(t, "export", id, "--dir", outDir)
	matches, _ := filepath.Glob(filepath.Join(outDir, "qrcode-"+id+"-*.png"))
	if len(matches) != 1 {
		t.Fatalf("exported files = %v", matches)
	}
	if !strings.Contains(out, "Saved "+matches[0]) {
		t.Errorf("output = %q", out)
	}
}

func TestShow(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "--title", "Docs", "https://go.dev/doc")
	out := e.mustRun(t, "show", e.list(t)[0].ID)
	if !strings.Contains(out, "Docs") || !strings.Contains(out, "https://go.dev/doc") {
		t.Errorf("show output = %q", out)
	}
}

func TestCSVListAndImport(t *testing.T) {
	e := newEnv(t)
	file := filepath.Join(t.TempDir(), "in.csv")
	body := "title,url\nGo,https://go.dev\nbad,not a url\n,https://example.com\n"
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out := e.mustRun(t, "import", file)
	if !strings.Contains(out, "imported 2, skipped 1") {
		t.Errorf("import output = %q", out)
	}

	csvOut := e.mustRun(t, "ls", "--format", "csv")
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	if len(lines) != 3 || lines[0] != "id,title,url" {
		t.Fatalf("csv = %q", csvOut)
	}
	if !strings.HasSuffix(lines[1], ",Go,https://go.dev") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestListPage(t *testing.T) {
	e := newEnv(t)
	for _, u := range []string{"https://a.io", "https://b.io", "https://c.io", "https://d.io"} {
		e.mustRun(t, "add", u)
	}
	out := e.mustRun(t, "ls", "--page", "2", "--format", "json")
	var recs []model.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].URL != "https://d.io" {
		t.Fatalf("page 2 = %+v", recs)
	}
	if _, _, err := e.run(t, "ls", "--page", "3"); err == nil {
		t.Error("out of range page accepted")
	}
}

func TestMirrorReceivesNotifications(t *testing.T) {
	j := remote.NewJournal()
	srv := httptest.NewServer(remote.NewRouter(j, log.New(io.Discard)))
	defer srv.Close()

	e := newEnv(t, "--mirror-url", srv.URL)
	e.mustRun(t, "add", "https://a.io")
	id := e.list(t)[0].ID
	e.mustRun(t, "rm", "-y", id)

	events := j.Events()
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Op != "save" || events[0].ID != id {
		t.Errorf("save event = %+v", events[0])
	}
	if events[1].Op != "remove" || *events[1].Index != 0 || events[1].ID != id {
		t.Errorf("remove event = %+v", events[1])
	}
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	e := newEnv(t, "--mirror-url", url)
	_, stderr, err := e.run(t, "add", "https://a.io")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(stderr, "Error saving the QR code.") {
		t.Errorf("stderr = %q", stderr)
	}
	if len(e.list(t)) != 1 {
		t.Fatal("local save rolled back")
	}
}

func TestSQLiteSlot(t *testing.T) {
	e := newEnv(t, "--slot", "sqlite")
	e.mustRun(t, "add", "https://a.io")
	if recs := e.list(t); len(recs) != 1 {
		t.Fatalf("records = %+v", recs)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "qrgen.db")); err != nil {
		t.Fatalf("db missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "qrCodes.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("file slot written while sqlite selected")
	}
}

func TestBadFlagValue(t *testing.T) {
	e := newEnv(t, "--slot", "redis")
	if _, _, err := e.run(t, "ls"); err == nil || !strings.Contains(err.Error(), "unknown slot") {
		t.Fatalf("err = %v", err)
	}
}
