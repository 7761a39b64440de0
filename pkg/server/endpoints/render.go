package endpoints

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// renderMarkdown converts entry content to HTML. Entry content is
// treated as GitHub-flavored markdown.
func renderMarkdown(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
