// Package actions performs the side effect named by a result's
// JsonRPCAction when the user selects it.
package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/flowhttp/forwarder/models"
)

// Methods the forwarder knows how to dispatch. Anything else coming
// back from the endpoint is dropped during mapping and ignored at
// dispatch time.
const (
	MethodOpenURL         = "open_url"
	MethodShellRun        = "shell_run"
	MethodCopyToClipboard = "copy_to_clipboard"
	MethodChangeQuery     = "change_query"
	MethodShowMsg         = "flow_show_msg"
)

var known = map[string]bool{
	MethodOpenURL:         true,
	MethodShellRun:        true,
	MethodCopyToClipboard: true,
	MethodChangeQuery:     true,
	MethodShowMsg:         true,
}

// Known reports whether the method name is dispatchable.
func Known(method string) bool {
	return known[method]
}

// hostPayload is a JSON-RPC call forwarded back to the host process
// over stdout.
type hostPayload struct {
	Method     string `json:"method"`
	Parameters []any  `json:"parameters"`
}

// Dispatcher executes actions, writing host-bound payloads to out.
type Dispatcher struct {
	out    io.Writer
	logger *slog.Logger
	opener func(url string) error
}

func NewDispatcher(out io.Writer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		out:    out,
		logger: logger,
		opener: openInBrowser,
	}
}

// Dispatch runs the named action. Failures are logged and swallowed;
// an action must never take the host down with it.
func (d *Dispatcher) Dispatch(method string, params []any) {
	var err error
	switch method {
	case MethodOpenURL:
		err = d.openURL(params)
	case MethodShellRun:
		err = d.shellRun(params)
	case MethodCopyToClipboard:
		err = d.copyToClipboard(params)
	case MethodChangeQuery:
		err = d.changeQuery(params)
	case MethodShowMsg:
		err = d.showMsg(params)
	default:
		d.logger.Warn("unknown action method", "method", method)
		return
	}
	if err != nil {
		d.logger.Error("action dispatch failed", "method", method, "error", err)
	}
}

func (d *Dispatcher) openURL(params []any) error {
	if len(params) == 0 {
		return fmt.Errorf("open_url requires a URL parameter")
	}
	return d.opener(stringParam(params, 0))
}

func (d *Dispatcher) shellRun(params []any) error {
	if len(params) == 0 {
		return fmt.Errorf("shell_run requires a command parameter")
	}
	// The command may arrive as a single string or a one-element list.
	cmd := stringParam(params, 0)
	if list, ok := params[0].([]any); ok && len(list) > 0 {
		cmd = fmt.Sprintf("%v", list[0])
	}
	return d.emit(hostPayload{
		Method:     "Flow.Launcher.ShellRun",
		Parameters: []any{cmd},
	})
}

func (d *Dispatcher) copyToClipboard(params []any) error {
	if len(params) == 0 {
		return fmt.Errorf("copy_to_clipboard requires a text parameter")
	}
	text := stringParam(params, 0)
	directCopy := false
	showNotification := true
	if len(params) > 1 {
		directCopy = models.AsBool(params[1])
	}
	if len(params) > 2 {
		showNotification = models.AsBool(params[2])
	}
	return d.emit(hostPayload{
		Method:     "Flow.Launcher.CopyToClipboard",
		Parameters: []any{text, directCopy, showNotification},
	})
}

func (d *Dispatcher) changeQuery(params []any) error {
	if len(params) == 0 {
		return fmt.Errorf("change_query requires a query parameter")
	}
	requery := false
	if len(params) > 1 {
		requery = models.AsBool(params[1])
	}
	return d.emit(hostPayload{
		Method:     "Flow.Launcher.ChangeQuery",
		Parameters: []any{stringParam(params, 0), requery},
	})
}

func (d *Dispatcher) showMsg(params []any) error {
	title := stringParam(params, 0)
	subTitle := stringParam(params, 1)
	icon := stringParam(params, 2)
	if icon == "" {
		icon = models.DefaultIcon
	}
	return d.emit(hostPayload{
		Method:     "Flow.Launcher.ShowMsg",
		Parameters: []any{title, subTitle, icon},
	})
}

// emit writes one JSON-RPC payload line for the host to pick up.
func (d *Dispatcher) emit(p hostPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal host payload: %w", err)
	}
	if _, err := fmt.Fprintln(d.out, string(data)); err != nil {
		return fmt.Errorf("failed to write host payload: %w", err)
	}
	return nil
}

func stringParam(params []any, i int) string {
	if i >= len(params) || params[i] == nil {
		return ""
	}
	if s, ok := params[i].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", params[i])
}

// openInBrowser hands the URL to the platform's default handler.
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open URL: %w", err)
	}
	return nil
}
