// Package urlbuild derives the request URL for a query from settings,
// either by substituting a custom template or by assembling discrete
// address/port/path/param components.
package urlbuild

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/flowhttp/forwarder/models"
)

// ErrConfig marks failures caused by unusable settings rather than by
// the query itself. Callers surface these as a configuration hint, not
// a network error.
var ErrConfig = errors.New("invalid configuration")

const (
	placeholderQuery        = "{query}"
	placeholderEncodedQuery = "{encoded_query}"
	placeholderParamName    = "{query_param_name}"
)

// Build returns the absolute URL to GET for the given query. A custom
// template takes precedence over the component settings.
func Build(s models.Settings, query string) (string, error) {
	if tpl := strings.TrimSpace(s.CustomURLTemplate); tpl != "" {
		return fromTemplate(tpl, s, query)
	}
	return fromComponents(s, query)
}

// fromTemplate substitutes the query placeholders. Templates without a
// query placeholder get the query appended as a regular parameter.
func fromTemplate(tpl string, s models.Settings, query string) (string, error) {
	encoded := url.QueryEscape(query)

	raw := strings.NewReplacer(
		placeholderEncodedQuery, encoded,
		placeholderQuery, query,
		placeholderParamName, s.QueryParamName,
	).Replace(tpl)

	if !hasScheme(raw) {
		raw = "http://" + raw
	}

	if strings.Contains(tpl, placeholderQuery) || strings.Contains(tpl, placeholderEncodedQuery) {
		return raw, nil
	}

	// No query placeholder in the template: append the configured
	// parameter, keeping any query string the template already has.
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: template produced an unparsable URL: %v", ErrConfig, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: template has no host: %s", ErrConfig, tpl)
	}

	pair := s.QueryParamName + "=" + queryValue(query, s.URLEncodeQuery)
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}
	return u.String(), nil
}

// fromComponents assembles scheme://host:port/path?param=value. A port
// inside server_address wins over server_port.
func fromComponents(s models.Settings, query string) (string, error) {
	addr := strings.TrimSpace(s.ServerAddress)
	if addr == "" {
		return "", fmt.Errorf("%w: server address is empty", ErrConfig)
	}
	if !hasScheme(addr) {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("%w: invalid server address %q: %v", ErrConfig, s.ServerAddress, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: invalid server address %q", ErrConfig, s.ServerAddress)
	}

	port := u.Port()
	if port == "" && s.ServerPort != "" {
		if _, err := strconv.Atoi(strings.TrimSpace(s.ServerPort)); err != nil {
			return "", fmt.Errorf("%w: non-numeric server port %q", ErrConfig, s.ServerPort)
		}
		port = strings.TrimSpace(s.ServerPort)
	}

	netloc := host
	if port != "" {
		netloc = host + ":" + port
	}

	path := s.ServerPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	built := url.URL{
		Scheme:   u.Scheme,
		Host:     netloc,
		Path:     path,
		RawQuery: s.QueryParamName + "=" + queryValue(query, s.URLEncodeQuery),
	}
	return built.String(), nil
}

// queryValue encodes the query per the url_encode_query flag.
// QueryEscape uses '+' for spaces, matching what search endpoints
// built against the original plugin expect.
func queryValue(query string, encode bool) string {
	if encode {
		return url.QueryEscape(query)
	}
	return query
}

// hasScheme reports whether raw already starts with a URL scheme.
// Parsing alone is not enough: "127.0.0.1:8080" parses with scheme
// "127.0.0.1".
func hasScheme(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return strings.Contains(raw, "://")
}
