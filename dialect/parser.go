package dialect

import (
	"strings"

	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/ir"
)

// Parser extracts declarations and stage regions from resolved source.
//
// The source is processed line by line. A line whose first token is a
// declaration keyword is consumed and becomes an ir.Declaration. Every other
// line is kept verbatim in the module body, split around stage sentinels and
// the common-data marker. Keywords and sentinels inside comments and string
// literals are not recognized.
type Parser struct {
	src    *Source
	tokens []Token
	pos    int
	diags  *diag.List

	module *ir.Module
	text   strings.Builder

	// line of each sentinel fragment in module.Body, by fragment index.
	sentinelLines map[int]int
}

// NewParser creates a parser for src that reports into diags.
// A nil diags discards diagnostics.
func NewParser(src *Source, diags *diag.List) *Parser {
	if diags == nil {
		diags = diag.NewList(nil)
	}
	return &Parser{
		src:           src,
		tokens:        Tokenize(src.Text),
		diags:         diags,
		module:        &ir.Module{},
		sentinelLines: make(map[int]int),
	}
}

// Parse runs the parser and returns the module.
func (p *Parser) Parse() *ir.Module {
	for !p.isAtEnd() {
		p.parseLine()
	}
	p.flushText()
	p.balanceStages()
	return p.module
}

// Parse is a convenience function that parses src.
func Parse(src *Source, diags *diag.List) *ir.Module {
	return NewParser(src, diags).Parse()
}

// parseLine consumes one line including its newline, if any.
func (p *Parser) parseLine() {
	end := p.pos
	for end < len(p.tokens) && p.tokens[end].Kind != TokenNewline && p.tokens[end].Kind != TokenEOF {
		end++
	}
	line := p.tokens[p.pos:end]
	var newline *Token
	if end < len(p.tokens) && p.tokens[end].Kind == TokenNewline {
		newline = &p.tokens[end]
		end++
	}
	p.pos = end

	if start := declarationStart(line); start >= 0 {
		category, _ := ir.LookupKeyword(line[start].Lexeme)
		if start > 0 {
			// Code before a multi-line block comment stays in the body on
			// its own line.
			prefix := line[:start]
			for len(prefix) > 0 && prefix[len(prefix)-1].Kind == TokenSpace {
				prefix = prefix[:len(prefix)-1]
			}
			for _, tok := range prefix {
				p.body(tok)
			}
			if newline != nil {
				p.text.WriteString(newline.Lexeme)
			}
		}
		p.parseDeclaration(category, line[start:])
		return
	}

	for _, tok := range line {
		p.body(tok)
	}
	if newline != nil {
		p.text.WriteString(newline.Lexeme)
	}
}

// parseDeclaration handles KEYWORD <type> <name>; The whole line is consumed
// whether or not it is well formed.
func (p *Parser) parseDeclaration(category ir.Category, line []Token) {
	keyword := line[0]
	origin := p.src.Origin(keyword.Line)

	semi := -1
	for i, tok := range line {
		if tok.Kind == TokenSemicolon {
			semi = i
			break
		}
	}
	if semi < 0 {
		p.diags.Report(diag.MalformedDeclaration, origin.File, origin.Line, keyword.Column,
			"wrong usage of %s: missing ';' in %q", category, lineText(line))
		return
	}

	words := splitWords(line[:semi])
	if len(words) != 3 {
		p.diags.Report(diag.MalformedDeclaration, origin.File, origin.Line, keyword.Column,
			"wrong usage of %s: want %s <type> <name>; got %q", category, category, lineText(line[:semi+1]))
		return
	}

	for _, tok := range line[semi+1:] {
		if !tok.IsTrivia() {
			p.diags.Report(diag.DiscardedContent, origin.File, origin.Line, tok.Column,
				"code after %s declaration is discarded: %q", category, strings.TrimSpace(lineText(line[semi+1:])))
			break
		}
	}

	p.module.Declarations = append(p.module.Declarations, ir.Declaration{
		Category: category,
		Type:     words[1],
		Name:     words[2],
		File:     origin.File,
		Line:     origin.Line,
	})
}

// body appends one token of a retained line.
func (p *Parser) body(tok Token) {
	switch tok.Kind {
	case TokenIdent:
		if stage, begin, ok := ir.LookupSentinel(tok.Lexeme); ok {
			kind := ir.FragmentEnd
			if begin {
				kind = ir.FragmentBegin
			}
			p.flushText()
			p.sentinelLines[len(p.module.Body)] = tok.Line
			p.module.Body = append(p.module.Body, ir.Fragment{Kind: kind, Stage: stage, Text: tok.Lexeme})
			return
		}
	case TokenLineComment:
		if strings.TrimRight(tok.Lexeme, " \t\r") == ir.CommonDataMarker {
			p.flushText()
			p.module.Body = append(p.module.Body, ir.Fragment{Kind: ir.FragmentCommonData, Text: tok.Lexeme})
			return
		}
	}
	p.text.WriteString(tok.Lexeme)
}

func (p *Parser) flushText() {
	if p.text.Len() == 0 {
		return
	}
	p.module.Body = append(p.module.Body, ir.Fragment{Kind: ir.FragmentText, Text: p.text.String()})
	p.text.Reset()
}

// balanceStages decides which stages are present. A stage is present when
// its first begin sentinel precedes its first end sentinel and its region
// does not start inside another stage's region. Repeated sentinels and the
// sentinels of unbalanced stages are dropped from the body.
func (p *Parser) balanceStages() {
	var begin, end [ir.StageCount]int
	for i := range begin {
		begin[i], end[i] = -1, -1
	}
	drop := make(map[int]bool)

	for i, f := range p.module.Body {
		if f.Kind != ir.FragmentBegin && f.Kind != ir.FragmentEnd {
			continue
		}
		first := &end[f.Stage]
		if f.Kind == ir.FragmentBegin {
			first = &begin[f.Stage]
		}
		if *first >= 0 {
			p.report(diag.DuplicateSentinel, i, "repeated %s ignored", f.Text)
			drop[i] = true
			continue
		}
		*first = i
	}

	for _, s := range ir.Stages {
		b, e := begin[s], end[s]
		switch {
		case b < 0 && e < 0:
			continue
		case b < 0:
			p.report(diag.UnbalancedStage, e, "%s without %s, %s stage ignored", s.End(), s.Begin(), s)
		case e < 0:
			p.report(diag.UnbalancedStage, b, "%s without %s, %s stage ignored", s.Begin(), s.End(), s)
		case e < b:
			p.report(diag.UnbalancedStage, e, "%s before %s, %s stage ignored", s.End(), s.Begin(), s)
		default:
			p.module.Present[s] = true
			continue
		}
		if b >= 0 {
			drop[b] = true
		}
		if e >= 0 {
			drop[e] = true
		}
	}

	// A region that opens inside another one cannot be excised cleanly.
	open := -1
	for i, f := range p.module.Body {
		if drop[i] || !p.module.Present[f.Stage] {
			continue
		}
		switch f.Kind {
		case ir.FragmentBegin:
			if open >= 0 {
				outer := p.module.Body[open].Stage
				p.report(diag.UnbalancedStage, i, "%s inside the %s stage, %s stage ignored", f.Text, outer, f.Stage)
				p.module.Present[f.Stage] = false
				drop[i] = true
				drop[end[f.Stage]] = true
				continue
			}
			open = i
		case ir.FragmentEnd:
			if open >= 0 && p.module.Body[open].Stage == f.Stage {
				open = -1
			}
		}
	}

	if len(drop) == 0 {
		return
	}
	body := p.module.Body[:0]
	for i, f := range p.module.Body {
		if !drop[i] {
			body = append(body, f)
		}
	}
	p.module.Body = mergeText(body)
}

func (p *Parser) report(k diag.Kind, fragment int, format string, args ...any) {
	origin := p.src.Origin(p.sentinelLines[fragment])
	p.diags.Report(k, origin.File, origin.Line, 0, format, args...)
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Kind == TokenEOF
}

// mergeText joins text fragments left adjacent by dropped sentinels.
func mergeText(body []ir.Fragment) []ir.Fragment {
	out := body[:0]
	for _, f := range body {
		if n := len(out); n > 0 && f.Kind == ir.FragmentText && out[n-1].Kind == ir.FragmentText {
			out[n-1].Text += f.Text
			continue
		}
		out = append(out, f)
	}
	return out
}

// declarationStart returns the index of the declaration keyword that starts
// a physical line of line, or -1. A token is at the start of a physical line
// when it is the first code token of line or the first code token after a
// block comment that spans lines.
func declarationStart(line []Token) int {
	isKeyword := func(i int) bool {
		if i < 0 || line[i].Kind != TokenIdent {
			return false
		}
		_, ok := ir.LookupKeyword(line[i].Lexeme)
		return ok
	}

	first := firstCode(line)
	if first < 0 {
		return -1
	}
	if isKeyword(first) {
		return first
	}
	for i := first + 1; i < len(line); i++ {
		if line[i].Kind != TokenBlockComment || !strings.Contains(line[i].Lexeme, "\n") {
			continue
		}
		next := firstCode(line[i+1:])
		if next < 0 {
			return -1
		}
		if isKeyword(i + 1 + next) {
			return i + 1 + next
		}
	}
	return -1
}

// firstCode returns the index of the first non-trivia token, or -1.
func firstCode(line []Token) int {
	for i, tok := range line {
		if !tok.IsTrivia() {
			return i
		}
	}
	return -1
}

// splitWords groups tokens into whitespace-separated words, ignoring comments.
func splitWords(tokens []Token) []string {
	var words []string
	var cur strings.Builder
	for _, tok := range tokens {
		if tok.IsTrivia() {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteString(tok.Lexeme)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func lineText(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Lexeme)
	}
	return sb.String()
}
