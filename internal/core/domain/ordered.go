package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// OrderedMap
// =============================================================================

// OrderedMap is a string-keyed map that remembers insertion order.
// Setting an existing key replaces its value in place; the key keeps its
// original position. Lookups are O(1).
type OrderedMap[V any] struct {
	keys  []string
	index map[string]int
	vals  []V
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{index: make(map[string]int)}
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	i, ok := m.index[key]
	if !ok {
		return zero, false
	}
	return m.vals[i], true
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Set inserts or replaces the value under key.
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.vals[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, value)
}

// Delete removes key, preserving the order of the remaining entries.
func (m *OrderedMap[V]) Delete(key string) {
	if m == nil {
		return
	}
	i, ok := m.index[key]
	if !ok {
		return
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Each calls fn for every entry in insertion order.
func (m *OrderedMap[V]) Each(fn func(key string, value V)) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		fn(k, m.vals[i])
	}
}

// Clone returns a shallow copy. Values are copied by assignment.
func (m *OrderedMap[V]) Clone() *OrderedMap[V] {
	out := &OrderedMap[V]{index: make(map[string]int, m.Len())}
	if m == nil {
		return out
	}
	out.keys = slices.Clone(m.keys)
	out.vals = slices.Clone(m.vals)
	for k, i := range m.index {
		out.index[k] = i
	}
	return out
}

// UnmarshalYAML decodes a mapping node keeping the document order of keys.
func (m *OrderedMap[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var value V
		if err := valNode.Decode(&value); err != nil {
			return fmt.Errorf("key %q: %w", keyNode.Value, err)
		}
		m.Set(keyNode.Value, value)
	}
	return nil
}

// UnmarshalJSON decodes an object keeping the document order of keys.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object, got %s", data)
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		var value V
		if err := decodeJSONValue(raw, &value); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// decodeJSONValue reads raw into value. Number and boolean literals are
// accepted as strings, the same as the YAML path does.
func decodeJSONValue[V any](raw json.RawMessage, value *V) error {
	if s, ok := any(value).(*string); ok && len(raw) > 0 {
		switch raw[0] {
		case '"', '{', '[', 'n':
		default:
			*s = string(raw)
			return nil
		}
	}
	return json.Unmarshal(raw, value)
}

// MarshalYAML encodes the map as a mapping node in insertion order.
func (m *OrderedMap[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, k := range m.keys {
		valNode := &yaml.Node{}
		if err := valNode.Encode(m.vals[i]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, valNode)
	}
	return node, nil
}

// =============================================================================
// Context
// =============================================================================

// Context is the resolved, ordered variable map of a workspace or component.
// A placeholder only resolves against names inserted before it.
type Context = OrderedMap[string]

// NewContext creates an empty Context.
func NewContext() *Context {
	return NewOrderedMap[string]()
}

// ContextFromPairs builds a Context from alternating key/value arguments.
func ContextFromPairs(kv ...string) *Context {
	ctx := NewContext()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx.Set(kv[i], kv[i+1])
	}
	return ctx
}

// Environ renders a Context as KEY=VALUE pairs in insertion order.
func Environ(ctx *Context) []string {
	out := make([]string, 0, ctx.Len())
	ctx.Each(func(k, v string) {
		out = append(out, k+"="+v)
	})
	return out
}
