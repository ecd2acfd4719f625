// Package docs embeds the help topics shown by `repertoire docs`.
package docs

import (
	"bufio"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.md
var contentFS embed.FS

// Topic describes one help page. Title is the page's first heading and
// Summary its first paragraph.
type Topic struct {
	Name    string `json:"name" yaml:"name"`
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`
}

// aliases maps words people reach for to the page that covers them.
var aliases = map[string]string{
	"root":    "folders",
	"roots":   "folders",
	"tree":    "folders",
	"folder":  "folders",
	"line":    "lines",
	"pgn":     "lines",
	"fen":     "lines",
	"note":    "lines",
	"notes":   "lines",
	"train":   "training",
	"trainer": "training",
	"drill":   "training",
	"hint":    "training",
	"export":  "sharing",
	"import":  "sharing",
	"publish": "sharing",
	"sync":    "sharing",
	"git":     "sharing",
	"web":     "sharing",
}

// Topics lists every page, sorted by name.
func Topics() []Topic {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []Topic{}
	}
	out := make([]Topic, 0, len(entries))
	for _, p := range entries {
		name := strings.TrimSuffix(path.Base(p), ".md")
		b, err := contentFS.ReadFile(p)
		if err != nil || name == "" {
			continue
		}
		title, summary := headline(string(b))
		out = append(out, Topic{Name: name, Title: title, Summary: summary})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve maps a topic or alias to a page name.
func Resolve(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	if name, ok := aliases[topic]; ok {
		topic = name
	}
	if _, err := fs.Stat(contentFS, "content/"+topic+".md"); err != nil {
		return "", false
	}
	return topic, true
}

// Get returns the markdown of a topic or alias.
func Get(topic string) (string, bool) {
	name, ok := Resolve(topic)
	if !ok {
		return "", false
	}
	b, err := contentFS.ReadFile("content/" + name + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}

func headline(md string) (title, summary string) {
	var para []string
	sc := bufio.NewScanner(strings.NewReader(md))
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		switch {
		case title == "" && strings.HasPrefix(ln, "# "):
			title = strings.TrimSpace(strings.TrimPrefix(ln, "# "))
		case title == "":
		case ln == "" && len(para) > 0:
			return title, strings.Join(para, " ")
		case ln != "" && !strings.HasPrefix(ln, "```"):
			para = append(para, ln)
		}
	}
	return title, strings.Join(para, " ")
}
