package markdown

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// htmlText returns the text content of an HTML fragment, dropping tags and
// the contents of script and style elements.
func htmlText(fragment []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return b.String(), nil
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenElement(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenElement(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenElement(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}
