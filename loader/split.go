package loader

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// segmentBoundary separates concatenated script segments. The statement
// terminator keeps a segment without a trailing semicolon from merging with
// the next one.
const segmentBoundary = "\n;\n"

// Split separates markup into its declarative content and the concatenation
// of its inline script segments, in document order. Scripts that reference an
// external src or declare a non-JavaScript type stay in the declarative part.
func Split(content string) Content {
	var (
		declarative strings.Builder
		segments    []string
		inScript    bool
		current     strings.Builder
	)

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				// The tokenizer only fails on read errors, which a string
				// reader never produces; keep whatever was consumed.
				declarative.Write(z.Raw())
			}
			break
		}

		raw := z.Raw()
		switch {
		case inScript && tt == html.EndTagToken && isScriptTag(z):
			segments = append(segments, current.String())
			current.Reset()
			inScript = false
		case inScript:
			current.Write(raw)
		case tt == html.StartTagToken:
			rawCopy := string(raw)
			tok := z.Token()
			if tok.Data == "script" && isExecutable(tok) {
				inScript = true
				continue
			}
			declarative.WriteString(rawCopy)
		default:
			declarative.Write(raw)
		}
	}

	// An unterminated script runs to the end of the document.
	if inScript {
		segments = append(segments, current.String())
	}

	return Content{
		Declarative: declarative.String(),
		Executable:  strings.Join(segments, segmentBoundary),
		Segments:    len(segments),
	}
}

func isScriptTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "script"
}

// isExecutable reports whether a script start tag holds inline JavaScript.
func isExecutable(tok html.Token) bool {
	for _, attr := range tok.Attr {
		switch strings.ToLower(attr.Key) {
		case "src":
			return false
		case "type":
			switch strings.ToLower(strings.TrimSpace(attr.Val)) {
			case "", "text/javascript", "application/javascript":
			default:
				return false
			}
		}
	}
	return true
}
