// Package names turns a raw model completion into a naming table.
//
// Two grammars are accepted. The outline grammar is a numbered, dot-indexed
// list ("1. Header", "1.2 Title"). The mapping grammar is a JSON object from
// layer identifier (or fallback key) to new name, optionally wrapped in prose
// or a code fence. Parsing is a best-effort filter: malformed lines are
// dropped, but an empty result is a terminal error for the run.
package names

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/layername/internal/fault"
)

// Form selects the grammar a completion is parsed with.
type Form string

const (
	FormOutline Form = "outline"
	FormMapping Form = "mapping"
	FormAuto    Form = "auto"
)

// ParseForm validates a user-supplied form name. Empty means auto.
func ParseForm(s string) (Form, error) {
	switch Form(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormAuto:
		return FormAuto, nil
	case FormOutline:
		return FormOutline, nil
	case FormMapping:
		return FormMapping, nil
	}
	return "", fmt.Errorf("unknown response format %q (want outline, mapping or auto)", s)
}

// Entry is one suggested name. Outline entries carry Path, mapping entries Key.
type Entry struct {
	Path string `json:"path,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
}

// Table is the parsed result of one completion. Entries keep response order
// and may contain duplicate paths.
type Table struct {
	Form    Form    `json:"form"`
	Entries []Entry `json:"entries"`
	Dropped int     `json:"dropped"` // names rejected by ValidateName
}

// Parse extracts a table using the given grammar. FormAuto prefers the mapping
// grammar when the text looks like it holds an object and falls back to the
// outline grammar.
func Parse(text string, form Form) (*Table, error) {
	switch form {
	case FormOutline:
		return ParseOutline(text)
	case FormMapping:
		return ParseMapping(text)
	case FormAuto, "":
		if strings.Contains(text, "{") {
			if t, err := ParseMapping(text); err == nil {
				return t, nil
			}
		}
		return ParseOutline(text)
	}
	return nil, fmt.Errorf("unknown response format %q", form)
}

var outlineLineRe = regexp.MustCompile(`^(\d+(\.\d+)*)\.?\s*(.+)$`)

// ParseOutline reads lines of the form "1.2 Name". Lines that do not match
// are ignored.
func ParseOutline(text string) (*Table, error) {
	t := &Table{Form: FormOutline}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		m := outlineLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name, ok := ValidateName(PlainText(strings.TrimSpace(m[3])))
		if !ok {
			t.Dropped++
			continue
		}
		t.Entries = append(t.Entries, Entry{Path: m[1], Name: name})
	}
	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("outline: %w", fault.ErrNoNamesFound)
	}
	return t, nil
}

var (
	codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	objectRe    = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseMapping reads one JSON object of key to name. Non-string values are
// ignored. A repeated key keeps its first position and its last value.
func ParseMapping(text string) (*Table, error) {
	raw := extractObject(text)
	if raw == "" {
		return nil, fmt.Errorf("mapping: no JSON object in response (raw: %s): %w", truncate(text, 200), fault.ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("mapping: expected object: %w", fault.ErrMalformedResponse)
	}

	t := &Table{Form: FormMapping}
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("mapping: %v: %w", err, fault.ErrMalformedResponse)
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("mapping: value for %q: %v: %w", key, err, fault.ErrMalformedResponse)
		}
		var s string
		if json.Unmarshal(value, &s) != nil {
			continue
		}
		name, ok := ValidateName(PlainText(s))
		if !ok {
			t.Dropped++
			continue
		}
		if i, seen := pos[key]; seen {
			t.Entries[i].Name = name
			continue
		}
		pos[key] = len(t.Entries)
		t.Entries = append(t.Entries, Entry{Key: key, Name: name})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("mapping: %v: %w", err, fault.ErrMalformedResponse)
	}

	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("mapping: %w", fault.ErrNoNamesFound)
	}
	return t, nil
}

func extractObject(text string) string {
	s := stripCodeBlock(text)
	if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) {
		return s
	}
	return objectRe.FindString(s)
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
