package markdown

import (
	"fmt"
	"strings"
)

// Block is a generated region of a note delimited by HTML comments, so
// text outside it is left alone when the region is rewritten.
type Block struct {
	Name string
}

func (b Block) start() string { return fmt.Sprintf("<!-- worklens:%s:start -->", b.Name) }
func (b Block) end() string   { return fmt.Sprintf("<!-- worklens:%s:end -->", b.Name) }

// Replace swaps the block's content in body, appending the block when
// body has none.
func (b Block) Replace(body, generated string) string {
	startMarker, endMarker := b.start(), b.end()
	block := startMarker + "\n" + strings.TrimRight(generated, "\n") + "\n" + endMarker

	start := strings.Index(body, startMarker)
	end := strings.Index(body, endMarker)
	if start >= 0 && end > start {
		return body[:start] + block + body[end+len(endMarker):]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return block + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + block + "\n"
	default:
		return body + "\n\n" + block + "\n"
	}
}

// Contents returns the text between the block markers.
func (b Block) Contents(body string) (string, bool) {
	startMarker, endMarker := b.start(), b.end()
	start := strings.Index(body, startMarker)
	end := strings.Index(body, endMarker)
	if start < 0 || end <= start {
		return "", false
	}
	return strings.Trim(body[start+len(startMarker):end], "\n"), true
}
