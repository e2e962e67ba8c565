// Package ctxparse recovers source positions from JSON documents.
// encoding/json reports none, so the token stream is walked and each
// token's input offset is mapped back to a line.
package ctxparse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a scalar value together with the dotted path of object keys
// leading to it and the 1-based line of its key.
type Field struct {
	Path  string
	Value string
	Line  int
}

type frame struct {
	object    bool
	path      string
	key       string
	keyLine   int
	expectKey bool
}

// JSONFields lists every scalar in b in document order. Array elements
// carry the path of the enclosing key. Invalid JSON yields nil.
func JSONFields(b []byte) []Field {
	if !json.Valid(b) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	lineAt := func(off int64) int {
		if off > int64(len(b)) {
			off = int64(len(b))
		}
		return 1 + bytes.Count(b[:off], []byte{'\n'})
	}

	var out []Field
	var stack []*frame
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		line := lineAt(dec.InputOffset())
		var top *frame
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				stack = append(stack, &frame{object: d == '{', path: childPath(top), expectKey: d == '{'})
			case '}', ']':
				stack = stack[:len(stack)-1]
				if len(stack) > 0 && stack[len(stack)-1].object {
					stack[len(stack)-1].expectKey = true
				}
			}
			continue
		}
		if top != nil && top.object && top.expectKey {
			top.key, _ = tok.(string)
			top.keyLine = line
			top.expectKey = false
			continue
		}
		f := Field{Path: childPath(top), Value: scalar(tok), Line: line}
		if top != nil && top.object {
			f.Line = top.keyLine
			top.expectKey = true
		}
		out = append(out, f)
	}
	return out
}

// Lines indexes JSONFields by path, keeping the first line seen.
func Lines(b []byte) map[string]int {
	out := map[string]int{}
	for _, f := range JSONFields(b) {
		if _, ok := out[f.Path]; !ok {
			out[f.Path] = f.Line
		}
	}
	return out
}

// Join builds a field path from object keys.
func Join(keys ...string) string {
	return strings.Join(keys, ".")
}

func childPath(f *frame) string {
	if f == nil {
		return ""
	}
	if !f.object {
		return f.path
	}
	if f.path == "" {
		return f.key
	}
	return f.path + "." + f.key
}

func scalar(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
