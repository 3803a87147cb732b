package mapper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/flowhttp/forwarder/models"
)

const excerptLimit = 100

// HTMLDiagnostic builds a diagnostic row for a body that failed JSON
// parsing but looks like an HTML page, which usually means the
// configured endpoint is a website rather than a search API. The row
// shows the page title and a short readable excerpt so the user can
// see what the server actually returned.
func HTMLDiagnostic(body []byte, pageURL string) (models.Result, bool) {
	if !looksLikeHTML(body) {
		return models.Result{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return models.Result{}, false
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "HTML page"
	}

	subTitle := "Endpoint returned an HTML page, not a JSON array"
	if excerpt := htmlExcerpt(body, pageURL); excerpt != "" {
		subTitle = excerpt
	}

	return models.Result{
		Title:    "Error: Endpoint returned HTML (" + title + ")",
		SubTitle: subTitle,
		IcoPath:  models.DefaultIcon,
	}, true
}

// htmlExcerpt pulls a short plain-text excerpt out of the page.
func htmlExcerpt(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(string(body)), parsed)
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) > excerptLimit {
		text = text[:excerptLimit] + "..."
	}
	return text
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body)))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<head") ||
		strings.Contains(head, "<body")
}
