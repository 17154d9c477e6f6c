package render

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

type token struct {
	text  string // literal text, or the trimmed tag body
	isTag bool
	line  int
}

// lex splits text into literal runs and tag bodies. Quoted strings inside a
// tag may contain the closing delimiter.
func lex(name, text string) ([]token, error) {
	var toks []token
	line := 1
	for len(text) > 0 {
		i := strings.Index(text, openDelim)
		if i < 0 {
			toks = append(toks, token{text: text, line: line})
			break
		}
		if i > 0 {
			toks = append(toks, token{text: text[:i], line: line})
			line += strings.Count(text[:i], "\n")
		}
		body, rest, ok := scanTag(text[i+len(openDelim):])
		if !ok {
			return nil, &ParseError{Template: name, Line: line, Msg: "unterminated tag"}
		}
		toks = append(toks, token{text: strings.TrimSpace(body), isTag: true, line: line})
		line += strings.Count(body, "\n")
		text = rest
	}
	return toks, nil
}

func scanTag(s string) (body, rest string, ok bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && strings.HasPrefix(s[i:], closeDelim):
			return s[:i], s[i+len(closeDelim):], true
		}
	}
	return "", "", false
}

func isControl(body string) bool {
	return strings.HasPrefix(body, "#") || strings.HasPrefix(body, "/") || body == "else"
}

// stripStandalone removes the indentation and line break around control tags
// that sit alone on their line, so block structure leaves no blank lines.
func stripStandalone(toks []token) {
	trimEnd := make([]bool, len(toks))
	trimStart := make([]bool, len(toks))
	for i, t := range toks {
		if !t.isTag || !isControl(t.text) {
			continue
		}
		prevOK := i == 0 || (!toks[i-1].isTag && endsLine(toks[i-1].text, i-1 == 0))
		nextOK := i == len(toks)-1 || (!toks[i+1].isTag && startsLine(toks[i+1].text, i+1 == len(toks)-1))
		if !prevOK || !nextOK {
			continue
		}
		if i > 0 {
			trimEnd[i-1] = true
		}
		if i < len(toks)-1 {
			trimStart[i+1] = true
		}
	}
	for i := range toks {
		if trimEnd[i] {
			s := toks[i].text
			toks[i].text = s[:strings.LastIndex(s, "\n")+1]
		}
		if trimStart[i] {
			s := toks[i].text
			if j := strings.Index(s, "\n"); j >= 0 {
				toks[i].text = s[j+1:]
			} else {
				toks[i].text = ""
			}
		}
	}
}

// endsLine reports whether s ends with a line break followed only by
// horizontal whitespace. At the start of input no line break is needed.
func endsLine(s string, first bool) bool {
	j := strings.LastIndex(s, "\n")
	if j < 0 && !first {
		return false
	}
	return strings.TrimLeft(s[j+1:], " \t") == ""
}

// startsLine reports whether s begins with horizontal whitespace up to a line
// break. At the end of input no line break is needed.
func startsLine(s string, last bool) bool {
	j := strings.Index(s, "\n")
	if j < 0 {
		return last && strings.TrimLeft(s, " \t") == ""
	}
	return strings.TrimRight(strings.TrimLeft(s[:j], " \t"), "\r") == ""
}
