package parser

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/jamplate/jamplate/internal/tree"
)

// directiveHead is the grammar for one "#command rest-of-line" head:
// a keyword restricted to the known command set, followed by whatever
// text remains on the line. The remainder is deliberately left as raw
// text here — it becomes a child node of the directive so later
// expression-level parsers can carve it up on a subsequent
// fixed-point pass, rather than this grammar trying to parse
// expressions itself.
type directiveHead struct {
	Name string `parser:"\"#\" @Name"`
	Rest string `parser:"@Rest?"`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Hash", Pattern: `#`},
	{Name: "Name", Pattern: `define|undef|declare|ifdef|ifndef|elifdef|elifndef|elif|else|endif|if|endfor|for|import`},
	{Name: "Rest", Pattern: `[^\n]*`},
})

var directiveGrammar = participle.MustBuild[directiveHead](participle.Lexer(directiveLexer))

// directiveLineStart finds the start of every physical line in text
// that opens with one of the known directive keywords.
var directiveLineStart = regexp.MustCompile(`(?m)^#(?:define|undef|declare|ifdef|ifndef|elifdef|elifndef|elif|else|endif|if|endfor|for|import)\b`)

// DirectiveHead is the jamplate-specific parser built on top of the
// generic pattern/enclosure primitives: it locates "#command ..."
// lines and produces a directive node with two named sub-components,
// "head" (the "#command" token) and "args" (the rest of the line,
// left unsketched for later passes to parse as an expression, a
// target identifier, or an iterable literal depending on the command).
type DirectiveHead struct {
	// NewDirective builds the sketch for the whole directive, given
	// the command name (without the leading "#").
	NewDirective func(name string) *tree.Sketch
	NewHead      func(name string) *tree.Sketch
	NewArgs      func(name string) *tree.Sketch
}

func (d *DirectiveHead) Parse(c *Compilation, node tree.NodeID) ([]tree.NodeID, error) {
	t := c.Tree
	doc := t.Document()
	pos := t.Position(node)
	text, err := doc.Slice(pos, t.End(node))
	if err != nil {
		return nil, err
	}
	gaps := unparsedGaps(t, node)

	var created []tree.NodeID
	for _, g := range gaps {
		gapStart := g.start - pos
		gapEnd := g.end - pos
		gapText := text[gapStart:gapEnd]

		for _, loc := range directiveLineStart.FindAllStringIndex(gapText, -1) {
			lineStartByte := loc[0]
			nlByte := strings.IndexByte(gapText[lineStartByte:], '\n')
			lineEndByte := gapEnd - gapStart
			if nlByte >= 0 {
				lineEndByte = lineStartByte + nlByte
			}
			line := gapText[lineStartByte:lineEndByte]

			head, err := directiveGrammar.ParseString("", line)
			if err != nil {
				continue
			}

			lineStart := pos + gapStart + runeIndex(gapText, lineStartByte)
			headLen := 1 + len([]rune(head.Name))
			argsText := head.Rest
			argsStart := lineStart + headLen
			argsEnd := argsStart + len([]rune(argsText))

			headNode := t.NewNode(lineStart, headLen, d.NewHead(head.Name))
			argsNode := t.NewNode(argsStart, argsEnd-argsStart, d.NewArgs(head.Name))

			// A directive occupying its own source line swallows the
			// single line terminator immediately after it (mirrors the
			// original implementation's SX_EOL_SUPPRESSED: the eol is
			// markup, not body content). args keeps the bare line text
			// so condition/argument compilers never see it.
			directiveEnd := argsEnd
			if directiveEnd < pos+len([]rune(text)) {
				nl, nlErr := doc.Slice(directiveEnd, directiveEnd+1)
				if nlErr == nil && nl == "\n" {
					directiveEnd++
				}
			}

			sketch := d.NewDirective(head.Name)
			sketch.SetComponent("head", headNode)
			sketch.SetComponent("args", argsNode)
			directiveNode := t.NewNode(lineStart, directiveEnd-lineStart, sketch)

			created = append(created, directiveNode, headNode, argsNode)
		}
	}
	return created, nil
}
