package plugin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flowhttp/forwarder/models"
	"github.com/flowhttp/forwarder/pkg/actions"
	"github.com/flowhttp/forwarder/pkg/caching"
	"github.com/flowhttp/forwarder/pkg/db"
	"github.com/flowhttp/forwarder/pkg/fetcher"
	"github.com/flowhttp/forwarder/pkg/mapper"
	"github.com/flowhttp/forwarder/pkg/urlbuild"
)

const (
	// Diagnostic subtitles are truncated so a single row stays readable.
	causeLimit = 50
	errorLimit = 100
)

// Plugin handles one host invocation: a query, a context menu
// request, or an action dispatch.
type Plugin struct {
	settings   models.Settings
	logger     *slog.Logger
	out        io.Writer
	dispatcher *actions.Dispatcher
	history    *db.DB // nil when history is disabled
	cacheDir   string // empty disables the response cache
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithHistory enables query recording.
func WithHistory(database *db.DB) Option {
	return func(p *Plugin) { p.history = database }
}

// WithCacheDir sets where response bodies are cached.
func WithCacheDir(dir string) Option {
	return func(p *Plugin) { p.cacheDir = dir }
}

func New(settings models.Settings, logger *slog.Logger, out io.Writer, opts ...Option) *Plugin {
	p := &Plugin{
		settings:   settings,
		logger:     logger,
		out:        out,
		dispatcher: actions.NewDispatcher(out, logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle routes a host request and writes the response. Every path
// terminates in a well-formed response; the host never sees an error.
func (p *Plugin) Handle(req *Request) error {
	switch req.Method {
	case "query":
		return WriteResults(p.out, p.Query(firstString(req.Parameters)))
	case "context_menu":
		var data any
		if len(req.Parameters) > 0 {
			data = req.Parameters[0]
		}
		return WriteResults(p.out, p.ContextMenu(data))
	default:
		// Anything else is an action selected on a result row.
		p.dispatcher.Dispatch(req.Method, req.Parameters)
		return nil
	}
}

// Query forwards the query to the configured endpoint and maps the
// response. All failures degrade to exactly one diagnostic row.
func (p *Plugin) Query(query string) []models.Result {
	if strings.TrimSpace(query) == "" {
		return []models.Result{{
			Title:    "HTTP Query Forwarder",
			SubTitle: "Ready. Server: " + p.settings.ServerAddress,
			IcoPath:  models.DefaultIcon,
		}}
	}

	start := time.Now()

	requestURL, err := urlbuild.Build(p.settings, query)
	if err != nil {
		p.logger.Error("failed to build request URL", "error", err)
		p.record(query, "", "config_error", err, 0, start)
		return []models.Result{{
			Title:    "Error: Invalid Configuration",
			SubTitle: truncate(err.Error(), errorLimit),
			IcoPath:  models.DefaultIcon,
		}}
	}

	body, err := p.newFetcher().Get(requestURL)
	if err != nil {
		return p.fetchDiagnostic(query, requestURL, err, start)
	}

	results, err := mapper.MapResponse(body)
	if err != nil {
		p.logger.Error("failed to map response", "url", requestURL, "error", err)
		p.record(query, requestURL, "parse_error", err, 0, start)
		if row, ok := mapper.HTMLDiagnostic(body, requestURL); ok {
			return []models.Result{row}
		}
		return []models.Result{{
			Title:    "Error: Plugin Error",
			SubTitle: truncate(err.Error(), errorLimit),
			IcoPath:  models.DefaultIcon,
		}}
	}

	p.logger.Info("query forwarded", "url", requestURL, "results", len(results), "duration_ms", time.Since(start).Milliseconds())
	p.record(query, requestURL, "success", nil, len(results), start)
	return results
}

// fetchDiagnostic converts a fetch failure into the single row the
// user sees.
func (p *Plugin) fetchDiagnostic(query, requestURL string, err error, start time.Time) []models.Result {
	p.logger.Error("fetch failed", "url", requestURL, "error", err)

	if errors.Is(err, fetcher.ErrTimeout) {
		p.record(query, requestURL, "timeout", err, 0, start)
		return []models.Result{{
			Title:    "Error: Request Timed Out",
			SubTitle: "Server at " + requestURL + " timed out",
			IcoPath:  models.DefaultIcon,
		}}
	}

	status := "network_error"
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		status = "status_error"
	}
	p.record(query, requestURL, status, err, 0, start)
	return []models.Result{{
		Title:    "Error: Network Request Failed",
		SubTitle: "Could not connect to server: " + truncate(err.Error(), causeLimit),
		IcoPath:  models.DefaultIcon,
	}}
}

// ContextMenu rebuilds the menu rows stored in a result's ContextData.
func (p *Plugin) ContextMenu(data any) []models.Result {
	var menu []models.Result

	for _, raw := range definedMenuItems(data) {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		title, _ := entry["Title"].(string)
		if title == "" {
			continue
		}

		row := models.Result{
			Title:    title,
			SubTitle: stringField(entry, "SubTitle"),
			IcoPath:  stringField(entry, "IcoPath"),
		}
		if row.IcoPath == "" {
			row.IcoPath = models.DefaultIcon
		}
		if action, ok := entry["JsonRPCAction"].(map[string]any); ok {
			method, _ := action["method"].(string)
			if method != "" && actions.Known(method) {
				params, _ := action["parameters"].([]any)
				if params == nil {
					params = []any{}
				}
				row.JsonRPCAction = &models.JsonRPCAction{Method: method, Parameters: params}
			}
		}
		menu = append(menu, row)
	}

	if len(menu) == 0 {
		menu = append(menu, models.Result{
			Title:   "No context actions available",
			IcoPath: models.DefaultIcon,
		})
	}
	return menu
}

// definedMenuItems digs the menu list out of the wrapped ContextData.
// The host round-trips it through JSON, so it arrives as a plain map.
func definedMenuItems(data any) []any {
	switch t := data.(type) {
	case models.MenuContextData:
		return t.DefinedMenuItems
	case map[string]any:
		items, _ := t["defined_menu_items"].([]any)
		return items
	default:
		return nil
	}
}

func (p *Plugin) newFetcher() *fetcher.Fetcher {
	f := fetcher.NewFetcher(p.settings.Timeout())

	ttl := p.settings.CacheDuration()
	if ttl > 0 && p.cacheDir != "" {
		cache, err := caching.NewCache(p.cacheDir, ttl)
		if err != nil {
			p.logger.Warn("response cache unavailable", "error", err)
			return f
		}
		f.WithCache(cache)
	}
	return f
}

// record logs the query cycle to the history database. History
// failures never affect the query result.
func (p *Plugin) record(query, requestURL, status string, cause error, resultCount int, start time.Time) {
	if p.history == nil || !p.settings.History {
		return
	}
	rec := db.QueryRecord{
		QueryText:   query,
		RequestURL:  requestURL,
		Status:      status,
		ResultCount: resultCount,
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if cause != nil {
		rec.ErrorMessage = cause.Error()
	}
	if _, err := p.history.InsertQuery(rec); err != nil {
		p.logger.Warn("failed to record query history", "error", err)
	}
}

func firstString(params []any) string {
	if len(params) == 0 {
		return ""
	}
	if s, ok := params[0].(string); ok {
		return s
	}
	data, err := json.Marshal(params[0])
	if err != nil {
		return ""
	}
	return string(data)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// truncate shortens s to at most limit bytes without cutting a rune
// in half; subtitles echo error text that can contain the user's
// multibyte query.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
