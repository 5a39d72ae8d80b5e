// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package template renders prompt templates.
//
// Text outside {{ }} is copied verbatim. Inside a block:
//
//	{{$name}}                      variable, empty when missing
//	{{'text'}} or {{"text"}}       literal, backslash escapes quotes
//	{{plugin.function}}            function call with the current variables
//	{{function $var}}              call with input set to $var
//	{{plugin.function 'x' n=$v}}   positional input plus named arguments
//
// A block that is never closed is treated as plain text.
package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/semkit/core"
)

const (
	blockStart = "{{"
	blockEnd   = "}}"
)

// Template is a parsed prompt template. It is immutable and safe for
// concurrent use.
type Template struct {
	source string
	blocks []block
}

// Parse parses text into a Template.
func Parse(text string) (*Template, error) {
	t := &Template{source: text}

	rest := text
	for len(rest) > 0 {
		start := strings.Index(rest, blockStart)
		if start < 0 {
			t.appendText(rest)
			break
		}
		end, reopen := findBlockEnd(rest, start+len(blockStart))
		if reopen >= 0 {
			t.appendText(rest[:reopen])
			rest = rest[reopen:]
			continue
		}
		if end < 0 {
			t.appendText(rest)
			break
		}

		t.appendText(rest[:start])
		content := rest[start+len(blockStart) : end]
		b, err := parseBlock(content)
		if err != nil {
			return nil, err
		}
		if b == nil {
			t.appendText(rest[start : end+len(blockEnd)])
		} else {
			t.blocks = append(t.blocks, b)
		}
		rest = rest[end+len(blockEnd):]
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render renders text in one step.
func Render(ctx context.Context, text string, vars *core.Variables, funcs core.Lookup) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Render(ctx, vars, funcs)
}

// Source returns the original template text.
func (t *Template) Source() string {
	return t.source
}

// Render evaluates every block in order. Function calls receive a copy of
// vars; funcs may be nil when the template calls no functions.
func (t *Template) Render(ctx context.Context, vars *core.Variables, funcs core.Lookup) (string, error) {
	var sb strings.Builder
	for _, b := range t.blocks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := b.render(ctx, vars, funcs)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// Variables returns the distinct variable names referenced by the template,
// in order of first appearance. Names are lower-cased.
func (t *Template) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(v *varBlock) {
		if v == nil {
			return
		}
		n := strings.ToLower(v.name)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, b := range t.blocks {
		switch blk := b.(type) {
		case varBlock:
			add(&blk)
		case codeBlock:
			if blk.positional != nil {
				add(blk.positional.variable)
			}
			for _, arg := range blk.named {
				add(arg.variable)
			}
		}
	}
	return names
}

// Functions returns the distinct functions called by the template as
// "plugin.function" (or "function" for unqualified calls).
func (t *Template) Functions() []string {
	var names []string
	seen := make(map[string]bool)
	for _, b := range t.blocks {
		if blk, ok := b.(codeBlock); ok {
			n := blk.qualifiedName()
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

func (t *Template) appendText(s string) {
	if s == "" {
		return
	}
	if n := len(t.blocks); n > 0 {
		if prev, ok := t.blocks[n-1].(textBlock); ok {
			t.blocks[n-1] = textBlock{text: prev.text + s}
			return
		}
	}
	t.blocks = append(t.blocks, textBlock{text: s})
}

// findBlockEnd returns the index of the "}}" closing the block whose content
// starts at from, skipping over quoted literals. An unquoted "{{" before the
// close abandons the block: reopen is its index and end is -1. Both are -1
// when the block is never closed.
func findBlockEnd(s string, from int) (end, reopen int) {
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			return -1, i
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			return i, -1
		}
	}
	return -1, -1
}

// parseBlock interprets the content of one {{ }} block.
// It returns nil, nil for empty blocks, which render as literal text.
func parseBlock(content string) (block, error) {
	tokens, err := tokenize(content)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	first := tokens[0]
	switch {
	case isVariable(first):
		if len(tokens) > 1 {
			return nil, fmt.Errorf("%w: unexpected %q after variable in {{%s}}", ErrInvalidTemplate, tokens[1], content)
		}
		v, err := parseVariable(first)
		if err != nil {
			return nil, err
		}
		return v, nil
	case isQuoted(first):
		if len(tokens) > 1 {
			return nil, fmt.Errorf("%w: unexpected %q after literal in {{%s}}", ErrInvalidTemplate, tokens[1], content)
		}
		val, err := unquote(first)
		if err != nil {
			return nil, err
		}
		return valBlock{value: val}, nil
	}

	code, err := parseFunctionName(first)
	if err != nil {
		return nil, err
	}
	for _, tok := range tokens[1:] {
		if name, value, ok := splitNamed(tok); ok {
			if err := core.ValidateParameterName(name); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
			}
			arg, err := parseArgument(value)
			if err != nil {
				return nil, err
			}
			code.named = append(code.named, namedArgument{name: name, argument: arg})
			continue
		}
		if code.positional != nil {
			return nil, fmt.Errorf("%w: function %s accepts at most one positional argument", ErrInvalidTemplate, code.qualifiedName())
		}
		if len(code.named) > 0 {
			return nil, fmt.Errorf("%w: positional argument %s must precede named arguments", ErrInvalidTemplate, tok)
		}
		arg, err := parseArgument(tok)
		if err != nil {
			return nil, err
		}
		code.positional = &arg
	}
	return code, nil
}

// tokenize splits block content on whitespace, keeping quoted literals
// (including name='quoted value') intact.
func tokenize(content string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote byte
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			current.WriteByte(c)
			if c == '\\' && i+1 < len(content) {
				i++
				current.WriteByte(content[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			flush()
		case '\'', '"':
			quote = c
			current.WriteByte(c)
		default:
			current.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated literal in {{%s}}", ErrInvalidTemplate, content)
	}
	flush()
	return tokens, nil
}

func isVariable(tok string) bool {
	return strings.HasPrefix(tok, "$")
}

func isQuoted(tok string) bool {
	return tok != "" && (tok[0] == '\'' || tok[0] == '"')
}

func parseVariable(tok string) (varBlock, error) {
	name := strings.TrimPrefix(tok, "$")
	if !core.IsValidName(name) {
		return varBlock{}, fmt.Errorf("%w: invalid variable name %q", ErrInvalidTemplate, tok)
	}
	return varBlock{name: name}, nil
}

func parseArgument(tok string) (argument, error) {
	switch {
	case isVariable(tok):
		v, err := parseVariable(tok)
		if err != nil {
			return argument{}, err
		}
		return argument{variable: &v}, nil
	case isQuoted(tok):
		val, err := unquote(tok)
		if err != nil {
			return argument{}, err
		}
		return argument{value: val}, nil
	default:
		return argument{}, fmt.Errorf("%w: argument %q must be a $variable or a quoted literal", ErrInvalidTemplate, tok)
	}
}

func parseFunctionName(tok string) (codeBlock, error) {
	parts := strings.Split(tok, ".")
	switch len(parts) {
	case 1:
		if !core.IsValidName(parts[0]) {
			return codeBlock{}, fmt.Errorf("%w: invalid function name %q", ErrInvalidTemplate, tok)
		}
		return codeBlock{function: parts[0]}, nil
	case 2:
		if !core.IsValidName(parts[0]) || !core.IsValidName(parts[1]) {
			return codeBlock{}, fmt.Errorf("%w: invalid function name %q", ErrInvalidTemplate, tok)
		}
		return codeBlock{plugin: parts[0], function: parts[1]}, nil
	default:
		return codeBlock{}, fmt.Errorf("%w: function name %q has more than one dot", ErrInvalidTemplate, tok)
	}
}

// splitNamed splits name=value when tok is a named argument.
func splitNamed(tok string) (name, value string, ok bool) {
	if isVariable(tok) || isQuoted(tok) {
		return "", "", false
	}
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}
