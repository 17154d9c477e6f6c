package render

import (
	"fmt"
	"regexp"
	"strings"
)

var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

type node interface{ isNode() }

type textNode struct{ text string }

type valueNode struct {
	path string
	line int
}

type ifNode struct {
	path   string
	negate bool
	line   int
	then   []node
	els    []node
}

type eachNode struct {
	list string
	as   string
	line int
	body []node
}

type joinNode struct {
	path string
	sep  string
	line int
}

func (textNode) isNode()  {}
func (valueNode) isNode() {}
func (ifNode) isNode()    {}
func (eachNode) isNode()  {}
func (joinNode) isNode()  {}

// Template is a parsed template. It is immutable and safe to render
// concurrently.
type Template struct {
	name  string
	nodes []node
}

// Name returns the template's name as given to Parse.
func (t *Template) Name() string { return t.name }

// Parse builds the expression tree for text. Block tags must balance.
func Parse(name, text string) (*Template, error) {
	toks, err := lex(name, text)
	if err != nil {
		return nil, err
	}
	stripStandalone(toks)

	p := &parser{name: name, toks: toks}
	nodes, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, &ParseError{Template: name, Line: end.line, Msg: fmt.Sprintf("unexpected {{%s}}", end.text)}
	}
	return &Template{name: name, nodes: nodes}, nil
}

type parser struct {
	name string
	toks []token
	pos  int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &ParseError{Template: p.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// parseBlock consumes nodes until a closing or else tag, which it returns
// unconsumed-in-tree. A nil terminator means end of input.
func (p *parser) parseBlock() ([]node, *token, error) {
	var nodes []node
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++
		if !t.isTag {
			if t.text != "" {
				nodes = append(nodes, textNode{text: t.text})
			}
			continue
		}
		body := t.text
		switch {
		case body == "else" || strings.HasPrefix(body, "/"):
			return nodes, &t, nil
		case strings.HasPrefix(body, "#if "):
			n, err := p.parseIf(t)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case strings.HasPrefix(body, "#each "):
			n, err := p.parseEach(t)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case strings.HasPrefix(body, "#"):
			return nil, nil, p.errorf(t.line, "unknown block {{%s}}", body)
		case strings.HasPrefix(body, "join "):
			n, err := p.parseJoin(t)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case strings.HasPrefix(body, `"`):
			if len(body) < 2 || !strings.HasSuffix(body, `"`) {
				return nil, nil, p.errorf(t.line, "unterminated string literal")
			}
			nodes = append(nodes, textNode{text: body[1 : len(body)-1]})
		default:
			if !pathPattern.MatchString(body) {
				return nil, nil, p.errorf(t.line, "malformed placeholder {{%s}}", body)
			}
			nodes = append(nodes, valueNode{path: body, line: t.line})
		}
	}
	return nodes, nil, nil
}

func (p *parser) parseIf(open token) (node, error) {
	cond := strings.TrimSpace(strings.TrimPrefix(open.text, "#if "))
	n := ifNode{line: open.line}
	if strings.HasPrefix(cond, "!") {
		n.negate = true
		cond = strings.TrimSpace(cond[1:])
	}
	if !pathPattern.MatchString(cond) {
		return nil, p.errorf(open.line, "malformed condition %q", cond)
	}
	n.path = cond

	then, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n.then = then
	if end != nil && end.text == "else" {
		els, end2, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		n.els = els
		end = end2
	}
	if end == nil || end.text != "/if" {
		return nil, p.errorf(open.line, "{{#if %s}} is not closed by {{/if}}", cond)
	}
	return n, nil
}

func (p *parser) parseEach(open token) (node, error) {
	fields := strings.Fields(strings.TrimPrefix(open.text, "#each "))
	if len(fields) != 3 || fields[1] != "as" || !pathPattern.MatchString(fields[0]) || strings.Contains(fields[2], ".") {
		return nil, p.errorf(open.line, "malformed {{%s}}, want {{#each list as var}}", open.text)
	}
	body, end, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if end == nil || end.text != "/each" {
		return nil, p.errorf(open.line, "{{#each %s}} is not closed by {{/each}}", fields[0])
	}
	return eachNode{list: fields[0], as: fields[2], line: open.line, body: body}, nil
}

func (p *parser) parseJoin(t token) (node, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(t.text, "join "))
	path, sep, ok := strings.Cut(rest, " ")
	sep = strings.TrimSpace(sep)
	if !ok || !pathPattern.MatchString(path) || len(sep) < 2 || sep[0] != '"' || sep[len(sep)-1] != '"' {
		return nil, p.errorf(t.line, `malformed {{%s}}, want {{join list.field "sep"}}`, t.text)
	}
	return joinNode{path: path, sep: sep[1 : len(sep)-1], line: t.line}, nil
}
