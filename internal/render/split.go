package render

import "strings"

// Segment is a run of prose or one fenced code block.
type Segment struct {
	Code bool
	Lang string
	Text string
}

// Split cuts markdown into prose and fenced code segments. An unclosed
// fence runs to the end of the text. Blank prose is dropped.
func Split(text string) []Segment {
	var (
		out   []Segment
		buf   []string
		fence string
		lang  string
	)
	flush := func(code bool) {
		body := strings.Join(buf, "\n")
		buf = buf[:0]
		if !code {
			body = strings.TrimSpace(body)
			if body == "" {
				return
			}
		}
		out = append(out, Segment{Code: code, Lang: lang, Text: body})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence == "" {
			if f := fenceOf(trimmed); f != "" {
				flush(false)
				fence = f
				lang = strings.TrimSpace(trimmed[len(f):])
				continue
			}
			buf = append(buf, line)
			continue
		}
		if strings.HasPrefix(trimmed, fence) && strings.TrimLeft(trimmed, fence[:1]) == "" {
			flush(true)
			fence, lang = "", ""
			continue
		}
		buf = append(buf, line)
	}
	if fence != "" {
		flush(true)
	} else {
		flush(false)
	}
	return out
}

func fenceOf(line string) string {
	for _, ch := range []string{"`", "~"} {
		n := len(line) - len(strings.TrimLeft(line, ch))
		if n >= 3 {
			return strings.Repeat(ch, n)
		}
	}
	return ""
}
