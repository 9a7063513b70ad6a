package meetingnote

import (
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// contentPolicy allows the rich text a note editor produces: UGC formatting
// plus tables, text decorations and class attributes.
func contentPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark", "sub", "sup")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.AllowAttrs("class").Globally()
		p.AllowStyles("color", "background-color", "text-align").OnElements("span", "p")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers and unsafe URLs from note content.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return contentPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize for direct use in html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}
