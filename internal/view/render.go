package view

import (
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/portfolio-site/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("view").Funcs(template.FuncMap{
	"metrics":       topMetrics,
	"shortCategory": shortCategory,
	"telURL":        telURL,
}).ParseFS(templateFS, "templates/*.html"))

// sectionData is passed to every section template.
type sectionData struct {
	Name       string
	State      string
	Error      string
	Snapshot   *types.PortfolioSnapshot
	Projects   []types.ProjectItem
	Categories []string
	Category   string
	Form       *formData
}

// metric is one displayed project metric.
type metric struct {
	Key   string
	Value string
}

// topMetrics returns up to three metrics, ordered by key, with capitalised labels.
func topMetrics(m map[string]any) []metric {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 3 {
		keys = keys[:3]
	}

	out := make([]metric, 0, len(keys))
	for _, k := range keys {
		label := k
		if label != "" {
			r := []rune(label)
			r[0] = unicode.ToUpper(r[0])
			label = string(r)
		}
		out = append(out, metric{Key: label, Value: fmt.Sprint(m[k])})
	}
	return out
}

// shortCategory trims a category to the part before " & " for filter labels.
func shortCategory(c string) string {
	if c == types.CategoryAll {
		return "All Projects"
	}
	head, _, _ := strings.Cut(c, " & ")
	return head
}

// telURL builds a tel: link from the first number in a phone field.
func telURL(phone string) template.URL {
	first, _, _ := strings.Cut(phone, ",")
	var b strings.Builder
	for _, r := range first {
		if unicode.IsDigit(r) || r == '+' {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}
