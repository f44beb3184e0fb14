package api

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type pages struct {
	lines [][2]string
}

func (p pages) Summary() [][2]string { return p.lines }

func TestSetOutputFormat(t *testing.T) {
	t.Cleanup(func() { globalOutputFormat = DefaultOutput })

	for _, tt := range []struct {
		in   string
		want OutputFormat
	}{
		{"json", OutputFormatJSON},
		{"SUMMARY", OutputFormatSummary},
		{"", DefaultOutput},
		{"yaml", OutputFormatYAML},
	} {
		if err := SetOutputFormat(tt.in); err != nil {
			t.Fatalf("SetOutputFormat(%q) error = %v", tt.in, err)
		}
		if got := GetOutputFormat(); got != tt.want {
			t.Errorf("SetOutputFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if err := SetOutputFormat("table"); err == nil {
		t.Error("SetOutputFormat(table) should fail")
	}
}

func TestOutputSummary(t *testing.T) {
	res := pages{lines: [][2]string{
		{"session", "20261014-abc"},
		{"page 1", "scan.png"},
		{"  binary", "/out/scan_binary.png"},
		{"  ocr", ""},
		{"json", "/out/result.json"},
	}}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatSummary, res); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := "session   20261014-abc\n" +
		"page 1    scan.png\n" +
		"  binary  /out/scan_binary.png\n" +
		"json      /out/result.json\n"
	if got != want {
		t.Errorf("summary =\n%s\nwant\n%s", got, want)
	}
}

func TestOutputSummaryFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatSummary, map[string]int{"pages": 2}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "pages: 2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestOutputToFile(t *testing.T) {
	dir := t.TempDir()
	res := pages{lines: [][2]string{{"json", "/out/result.json"}}}

	txt := filepath.Join(dir, "result.txt")
	if err := OutputToFile(res, txt); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(txt)
	if string(data) != "json  /out/result.json\n" {
		t.Errorf("txt = %q", data)
	}

	js := filepath.Join(dir, "result.json")
	if err := OutputToFile(map[string]string{"session_id": "s1"}, js); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(js)
	if !strings.Contains(string(data), `"session_id": "s1"`) {
		t.Errorf("json = %s", data)
	}
}

func TestSaveDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	var buf bytes.Buffer
	if err := SaveDownload(&buf, path, []byte("PK\x03\x04")); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Saved "+path+" (4 bytes)\n" {
		t.Errorf("message = %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}

type fakeEndpoint struct {
	method, path, group string
	init                bool
}

func (e fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) {}
}

func (e fakeEndpoint) RequiresInit() bool { return e.init }

func (e fakeEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: strings.TrimPrefix(e.path, "/")}
}

type documentEndpoint struct{ fakeEndpoint }

func (e documentEndpoint) Group() string { return GroupDocuments }

func TestRoutesOf(t *testing.T) {
	eps := []Endpoint{
		fakeEndpoint{method: "GET", path: "/health"},
		documentEndpoint{fakeEndpoint{method: "POST", path: "/translate", init: true}},
		documentEndpoint{fakeEndpoint{method: "POST", path: "/generate-doc", init: true}},
		fakeEndpoint{method: "GET", path: "/metrics"},
	}
	got := RoutesOf(eps)
	var paths []string
	for _, r := range got {
		paths = append(paths, r.Path)
	}
	if want := "/generate-doc /translate /health /metrics"; strings.Join(paths, " ") != want {
		t.Errorf("order = %v, want %s", paths, want)
	}
	if got[0].Group != GroupDocuments || !got[0].RequiresInit {
		t.Errorf("route[0] = %+v", got[0])
	}
	if got[2].Group != GroupServer {
		t.Errorf("route[2].Group = %q, want %q", got[2].Group, GroupServer)
	}
}

func TestBuildCommandsGroups(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEndpoint{method: "GET", path: "/health"})
	r.Register(documentEndpoint{fakeEndpoint{method: "POST", path: "/translate"}})

	cmd := r.BuildCommands(func() string { return "http://localhost" })
	groups := map[string]string{}
	for _, c := range cmd.Commands() {
		groups[c.Name()] = c.GroupID
	}
	if groups["health"] != GroupServer || groups["translate"] != GroupDocuments {
		t.Errorf("groups = %v", groups)
	}
	if len(cmd.Groups()) != 2 {
		t.Errorf("len(Groups()) = %d, want 2", len(cmd.Groups()))
	}
}
