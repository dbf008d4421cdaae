package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Mode gates which dependency edges are active for an operation.
type Mode string

const (
	ModeDefault Mode = "default"
	ModeHook    Mode = "hook"
)

// ModeValues lists the accepted spellings, for flag help and validation.
var ModeValues = []string{string(ModeDefault), string(ModeHook)}

// ParseMode converts a string into a Mode.
// An empty string yields ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeDefault):
		return ModeDefault, nil
	case string(ModeHook):
		return ModeHook, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected one of %v)", s, ModeValues)
}

func (m Mode) String() string {
	return string(m)
}

// UnmarshalYAML rejects modes outside the closed set.
func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("line %d: empty mode", node.Line)
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

// UnmarshalJSON rejects modes outside the closed set.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return errors.New("empty mode")
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeList is the set of modes under which a dependency edge applies.
type ModeList []Mode

// Contains reports whether mode is in the list.
func (l ModeList) Contains(mode Mode) bool {
	return slices.Contains(l, mode)
}

// Union returns l followed by the modes of other not already present.
func (l ModeList) Union(other ModeList) ModeList {
	out := make(ModeList, 0, len(l)+len(other))
	for _, m := range l {
		if !out.Contains(m) {
			out = append(out, m)
		}
	}
	for _, m := range other {
		if !out.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}
