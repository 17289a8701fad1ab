// Package frontmatter splits, parses, and reassembles the YAML metadata block
// that prefixes a content unit. Split and Join are byte-exact inverses so tools
// that rewrite metadata (lint --fix) never churn untouched files.
package frontmatter

import (
	"bytes"
	"errors"
)

// Delimiters recognized for a front-matter block. The block always opens with
// DelimiterOpen on the first line; it closes with either DelimiterOpen or the
// YAML document-end marker.
const (
	DelimiterOpen = "---"
	DelimiterEnd  = "..."
)

// ErrMissingClosingDelimiter indicates the document started with a front-matter
// delimiter but never closed it. Such a unit is malformed and must be excluded
// from a build rather than guessed at.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
//
// It records newline flavor, trailing-newline presence, and which closing
// delimiter the author used. It does not attempt to preserve YAML formatting
// inside the block.
type Style struct {
	Newline            string
	HasTrailingNewline bool
	Close              string
}

// Split separates the YAML front-matter block (without delimiters) from the
// body. If the document does not open with a delimiter, had is false and body
// is the full input.
//
// A malformed block (opened, never closed) returns ErrMissingClosingDelimiter.
func Split(content []byte) (meta []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(DelimiterOpen + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	rest := content[len(open):]
	for _, close := range []string{DelimiterOpen, DelimiterEnd} {
		end, bodyStart, ok := findClose(rest, close, nl)
		if !ok {
			continue
		}
		style.Close = close
		return rest[:end], rest[bodyStart:], true, style, nil
	}
	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// findClose locates a closing delimiter line within block. It returns the end
// offset of the metadata bytes and the start offset of the body.
func findClose(block []byte, close, nl string) (end, bodyStart int, ok bool) {
	line := []byte(close + nl)
	if bytes.HasPrefix(block, line) {
		return 0, len(line), true
	}
	seq := []byte(nl + close + nl)
	idx := bytes.Index(block, seq)
	if idx < 0 {
		// A delimiter terminating the document without a final newline still
		// closes the block; the body is then empty.
		tail := []byte(nl + close)
		if bytes.HasSuffix(block, tail) {
			return len(block) - len(tail) + len(nl), len(block), true
		}
		return 0, 0, false
	}
	return idx + len(nl), idx + len(seq), true
}

// Join reassembles a document from raw front-matter bytes and body.
//
// If had is false, Join returns body as-is. Otherwise it emits the block using
// the delimiters and newline style captured at Split time, so
// Join(Split(doc)) == doc for every well-formed doc.
func Join(meta []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	close := style.Close
	if close == "" {
		close = DelimiterOpen
	}

	open := []byte(DelimiterOpen + nl)
	closing := []byte(close + nl)
	if len(body) == 0 && !style.HasTrailingNewline {
		closing = []byte(close)
	}

	out := make([]byte, 0, len(open)+len(meta)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, meta...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		if i > 0 && content[i-1] == '\r' {
			newline = "\r\n"
		}
		break
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
