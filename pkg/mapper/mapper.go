// Package mapper translates the endpoint's JSON array response into
// displayable result rows.
package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowhttp/forwarder/models"
	"github.com/flowhttp/forwarder/pkg/actions"
)

// ParseError marks a response body that was not a JSON array of
// objects. Callers turn it into a single diagnostic row.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response is not a JSON array: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// MapResponse decodes the body into result rows. Entries without a
// Title are skipped; missing optional fields take defaults. An empty
// array maps to zero rows.
func MapResponse(body []byte) ([]models.Result, error) {
	var entries []map[string]any
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &ParseError{Cause: err}
	}

	results := make([]models.Result, 0, len(entries))
	for _, entry := range entries {
		title := asString(entry["Title"])
		if title == "" {
			continue
		}

		result := models.Result{
			Title:    title,
			SubTitle: asString(entry["SubTitle"]),
			IcoPath:  asString(entry["IcoPath"]),
			Score:    asInt(entry["Score"]),
		}
		if result.IcoPath == "" {
			result.IcoPath = models.DefaultIcon
		}
		if auto := asString(entry["AutoCompleteText"]); auto != "" {
			result.AutoCompleteText = auto
		}
		if data, ok := entry["ContextData"]; ok && data != nil {
			result.ContextData = data
		}

		// Server-defined context menus ride inside ContextData so the
		// context_menu RPC can rebuild them.
		if items, ok := entry["ContextMenuItems"].([]any); ok && len(items) > 0 {
			result.ContextData = models.MenuContextData{
				OriginalData:     entry["ContextData"],
				DefinedMenuItems: items,
			}
		}

		if action := mapAction(entry["JsonRPCAction"]); action != nil {
			result.JsonRPCAction = action
		}

		results = append(results, result)
	}
	return results, nil
}

// mapAction keeps an action only when its method is one the
// dispatcher knows.
func mapAction(v any) *models.JsonRPCAction {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	method := asString(raw["method"])
	if method == "" || !actions.Known(method) {
		return nil
	}
	params, _ := raw["parameters"].([]any)
	if params == nil {
		params = []any{}
	}
	return &models.JsonRPCAction{Method: method, Parameters: params}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
