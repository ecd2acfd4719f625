package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// noteRenderer renders per-ply notes: short prose with links, emphasis and
// the odd emoji. Tables and task lists are left out. Raw HTML is dropped
// because html.WithUnsafe is not set.
var noteRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.Linkify,
		extension.Strikethrough,
		extension.NewTypographer(
			// "5...Nf6" is a move number, not an ellipsis.
			extension.WithTypographicSubstitutions(extension.TypographicSubstitutions{
				extension.Ellipsis: nil,
			}),
		),
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := noteRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}
