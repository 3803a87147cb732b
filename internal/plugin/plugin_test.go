package plugin

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/flowhttp/forwarder/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serverSettings points the forwarder at a test server via the
// template path, which accepts the ephemeral host:port as-is.
func serverSettings(serverURL string) models.Settings {
	s := models.DefaultSettings()
	s.CustomURLTemplate = serverURL + "/search?q={encoded_query}"
	s.RequestTimeout = "2"
	return s
}

func TestQuery_MapsServerResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang slices" {
			t.Errorf("server got q=%q, want %q", got, "golang slices")
		}
		w.Write([]byte(`[{"Title":"one","Score":3},{"Title":"two"}]`))
	}))
	defer server.Close()

	p := New(serverSettings(server.URL), testLogger(), &bytes.Buffer{})
	results := p.Query("golang slices")

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "one" || results[1].Title != "two" {
		t.Errorf("titles = %q, %q, want one, two", results[0].Title, results[1].Title)
	}
}

func TestQuery_EmptyArrayYieldsZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	p := New(serverSettings(server.URL), testLogger(), &bytes.Buffer{})
	results := p.Query("nothing matches")

	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestQuery_EmptyQueryShowsReadyRow(t *testing.T) {
	s := models.DefaultSettings()
	s.ServerAddress = "http://search.local"

	p := New(s, testLogger(), &bytes.Buffer{})

	for _, q := range []string{"", "   "} {
		results := p.Query(q)
		if len(results) != 1 {
			t.Fatalf("Query(%q) gave %d results, want 1", q, len(results))
		}
		if !strings.Contains(results[0].SubTitle, "search.local") {
			t.Errorf("ready row subtitle = %q, want server address included", results[0].SubTitle)
		}
	}
}

func TestQuery_TimeoutYieldsSingleDiagnostic(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer slow.Close()

	s := serverSettings(slow.URL)
	s.RequestTimeout = "1" // one second is the smallest the settings express

	p := New(s, testLogger(), &bytes.Buffer{})
	results := p.Query("slow")

	if len(results) != 1 {
		t.Fatalf("got %d results, want exactly 1 diagnostic", len(results))
	}
	if results[0].Title != "Error: Request Timed Out" {
		t.Errorf("Title = %q, want timeout diagnostic", results[0].Title)
	}
}

func TestQuery_NetworkFailureYieldsSingleDiagnostic(t *testing.T) {
	s := models.DefaultSettings()
	s.CustomURLTemplate = "http://127.0.0.1:1/search?q={encoded_query}"
	s.RequestTimeout = "2"

	p := New(s, testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Error: Network Request Failed" {
		t.Errorf("Title = %q, want network diagnostic", results[0].Title)
	}
}

func TestQuery_NonOKStatusYieldsSingleDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := New(serverSettings(server.URL), testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Error: Network Request Failed" {
		t.Errorf("Title = %q, want network diagnostic", results[0].Title)
	}
}

func TestQuery_MalformedJSONYieldsSingleDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	p := New(serverSettings(server.URL), testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Error: Plugin Error" {
		t.Errorf("Title = %q, want plugin error diagnostic", results[0].Title)
	}
}

func TestQuery_HTMLResponseNamesThePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Login Portal</title></head><body><p>Sign in</p></body></html>"))
	}))
	defer server.Close()

	p := New(serverSettings(server.URL), testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !strings.Contains(results[0].Title, "Login Portal") {
		t.Errorf("Title = %q, want page title included", results[0].Title)
	}
}

func TestQuery_BadConfigYieldsSingleDiagnostic(t *testing.T) {
	s := models.DefaultSettings()
	s.ServerAddress = ""

	p := New(s, testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Error: Invalid Configuration" {
		t.Errorf("Title = %q, want configuration diagnostic", results[0].Title)
	}
}

func TestContextMenu_RebuildsDefinedItems(t *testing.T) {
	p := New(models.DefaultSettings(), testLogger(), &bytes.Buffer{})

	// The host round-trips ContextData through JSON, so it arrives as
	// a plain map.
	data := map[string]any{
		"original_data": "payload",
		"defined_menu_items": []any{
			map[string]any{
				"Title":    "Copy link",
				"SubTitle": "to clipboard",
				"JsonRPCAction": map[string]any{
					"method":     "copy_to_clipboard",
					"parameters": []any{"https://go.dev"},
				},
			},
			map[string]any{
				"Title": "Forget it",
				"JsonRPCAction": map[string]any{
					"method": "format_disk",
				},
			},
		},
	}

	menu := p.ContextMenu(data)
	if len(menu) != 2 {
		t.Fatalf("got %d menu rows, want 2", len(menu))
	}

	first := menu[0]
	if first.Title != "Copy link" {
		t.Errorf("Title = %q, want Copy link", first.Title)
	}
	if first.JsonRPCAction == nil || first.JsonRPCAction.Method != "copy_to_clipboard" {
		t.Errorf("JsonRPCAction = %v, want copy_to_clipboard", first.JsonRPCAction)
	}

	// Unknown action methods are stripped, the row stays.
	if menu[1].JsonRPCAction != nil {
		t.Errorf("JsonRPCAction = %v for unknown method, want nil", menu[1].JsonRPCAction)
	}
}

func TestContextMenu_FallbackRow(t *testing.T) {
	p := New(models.DefaultSettings(), testLogger(), &bytes.Buffer{})

	tests := []struct {
		name string
		data any
	}{
		{name: "nil data", data: nil},
		{name: "string data", data: "opaque"},
		{name: "empty menu", data: map[string]any{"defined_menu_items": []any{}}},
		{name: "titleless items", data: map[string]any{"defined_menu_items": []any{map[string]any{"SubTitle": "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			menu := p.ContextMenu(tt.data)
			if len(menu) != 1 {
				t.Fatalf("got %d rows, want 1 fallback", len(menu))
			}
			if menu[0].Title != "No context actions available" {
				t.Errorf("Title = %q, want fallback row", menu[0].Title)
			}
		})
	}
}

func TestHandle_QueryWritesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Title":"one"}]`))
	}))
	defer server.Close()

	out := &bytes.Buffer{}
	p := New(serverSettings(server.URL), testLogger(), out)

	err := p.Handle(&Request{Method: "query", Parameters: []any{"abc"}})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(out.String(), `"result"`) {
		t.Errorf("output = %q, want a result envelope", out.String())
	}
	if !strings.Contains(out.String(), `"one"`) {
		t.Errorf("output = %q, want mapped row", out.String())
	}
}

func TestHandle_ActionMethod(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(models.DefaultSettings(), testLogger(), out)

	err := p.Handle(&Request{Method: "copy_to_clipboard", Parameters: []any{"abc"}})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(out.String(), "Flow.Launcher.CopyToClipboard") {
		t.Errorf("output = %q, want clipboard payload", out.String())
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		limit int
		want  string
	}{
		{name: "short string untouched", s: "abc", limit: 10, want: "abc"},
		{name: "ascii cut", s: "abcdef", limit: 3, want: "abc"},
		{name: "cut lands mid-rune", s: "abécd", limit: 3, want: "ab"}, // é is 2 bytes starting at index 2
		{name: "cut lands on rune start", s: "abécd", limit: 4, want: "abé"},
		{name: "multibyte only", s: "日本語", limit: 4, want: "日"}, // 3-byte runes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.limit)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.s, tt.limit, got)
			}
		})
	}
}

func TestQuery_DiagnosticSubtitleIsValidUTF8(t *testing.T) {
	s := models.DefaultSettings()
	// The bad port is echoed in the config error text; make it long
	// enough in multibyte runes that the cut lands mid-rune.
	s.ServerPort = strings.Repeat("é", errorLimit)

	p := New(s, testLogger(), &bytes.Buffer{})
	results := p.Query("abc")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !utf8.ValidString(results[0].SubTitle) {
		t.Errorf("SubTitle = %q is not valid UTF-8", results[0].SubTitle)
	}
}

func TestHandle_UnknownMethodIsNoOp(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(models.DefaultSettings(), testLogger(), out)

	if err := p.Handle(&Request{Method: "format_disk"}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing", out.String())
	}
}
