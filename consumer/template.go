package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// template is a parsed placeholder string: literal runs interleaved with
// {field} or {nested/field} references resolved against a record at render
// time. File paths and log lines are both templates.
type template struct {
	tokens []token
}

// token is either a literal (path nil) or a placeholder path.
type token struct {
	literal string
	path    []string
}

// parseTemplate splits a string like "/tmp/{parent/child}-{source}.log"
// into tokens. An unclosed brace is a configuration error.
func parseTemplate(s string) (*template, error) {
	var tokens []token
	rest := s
	for len(rest) > 0 {
		brace := strings.IndexByte(rest, '{')
		if brace < 0 {
			tokens = append(tokens, token{literal: rest})
			break
		}
		if brace > 0 {
			tokens = append(tokens, token{literal: rest[:brace]})
		}
		rest = rest[brace+1:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated placeholder in %q", s)
		}
		tokens = append(tokens, token{path: strings.Split(rest[:end], "/")})
		rest = rest[end+1:]
	}
	return &template{tokens: tokens}, nil
}

// render resolves every placeholder against rec. A missing key or a
// non-scalar value fails the whole render; the caller decides whether that
// drops the record or the sink.
func (t *template) render(rec record) (string, error) {
	var b strings.Builder
	for _, tok := range t.tokens {
		if tok.path == nil {
			b.WriteString(tok.literal)
			continue
		}
		v, ok := rec.find(tok.path...)
		if !ok {
			return "", fmt.Errorf("key %q not found", strings.Join(tok.path, "/"))
		}
		s, err := scalarString(v)
		if err != nil {
			return "", fmt.Errorf("key %q: %w", strings.Join(tok.path, "/"), err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// scalarString renders strings, numbers, booleans and null; containers
// cannot name a file or format a log line.
func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case nil:
		return "null", nil
	case map[string]any:
		return "", errors.New("value is an object")
	case map[any]any:
		return "", errors.New("value is an object")
	case []any:
		return "", errors.New("value is an array")
	default:
		// Covers every numeric width the decoders produce, plus bool.
		return fmt.Sprintf("%v", x), nil
	}
}
