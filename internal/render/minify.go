package render

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/net/html"
)

// rawTextTags are elements whose text content must be left untouched.
var rawTextTags = map[string]bool{
	"pre":      true,
	"code":     true,
	"script":   true,
	"style":    true,
	"textarea": true,
}

// MinifyHTML collapses whitespace-only text between tags and trims runs of
// whitespace inside text nodes. Content of pre/code/script/style/textarea is
// preserved byte for byte. Anything the tokenizer does not understand passes
// through unchanged.
func MinifyHTML(in []byte) []byte {
	z := html.NewTokenizer(bytes.NewReader(in))
	var out bytes.Buffer
	out.Grow(len(in))

	rawDepth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF ends the document; any other error means we were fed
			// something odd, so fall back to the original input.
			if !errors.Is(z.Err(), io.EOF) {
				return in
			}
			return out.Bytes()

		case html.TextToken:
			raw := z.Raw()
			if rawDepth > 0 {
				out.Write(raw)
				continue
			}
			out.Write(collapseWhitespace(raw))

		case html.StartTagToken:
			name, _ := z.TagName()
			if rawTextTags[string(name)] {
				rawDepth++
			}
			out.Write(z.Raw())

		case html.EndTagToken:
			name, _ := z.TagName()
			if rawTextTags[string(name)] && rawDepth > 0 {
				rawDepth--
			}
			out.Write(z.Raw())

		default:
			out.Write(z.Raw())
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// collapseWhitespace reduces runs of whitespace to a single character and
// drops whitespace-only text entirely.
func collapseWhitespace(text []byte) []byte {
	trimmed := bytes.TrimFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(trimmed) == 0 {
		return nil
	}

	var out bytes.Buffer
	out.Grow(len(text))
	if isSpace(text[0]) {
		out.WriteByte(' ')
	}
	inSpace := false
	for _, b := range trimmed {
		if isSpace(b) {
			if !inSpace {
				out.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		out.WriteByte(b)
	}
	if isSpace(text[len(text)-1]) {
		out.WriteByte(' ')
	}
	return out.Bytes()
}
