package config

import (
	"encoding/json"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// RootName is the name of the synthesized element wrapping a whole document.
const RootName = "ROOT"

// Element is one parsed block: a name, an optional argument, ordered
// attributes, ordered children and the set of attribute keys read so far.
//
// Every attribute read through Get or Has marks the key as used. The used
// set only grows; VisitUnused reports the keys nothing ever asked for.
type Element struct {
	// Name is the block name, e.g. "source" for <source>.
	Name string

	// Arg is the free-text argument of the opening tag, e.g. "**" for <match **>.
	Arg string

	// Children are the nested blocks in source order.
	Children []*Element

	attrs *orderedmap.OrderedMap[string, string]
	used  map[string]struct{}
}

// NewElement creates an empty element.
func NewElement(name, arg string) *Element {
	return &Element{
		Name:  name,
		Arg:   arg,
		attrs: orderedmap.New[string, string](),
		used:  make(map[string]struct{}),
	}
}

// Empty returns an unnamed element with no attributes or children.
func Empty() *Element {
	return NewElement("", "")
}

// AddChild appends a new empty child element and returns it.
func (e *Element) AddChild(name, arg string) *Element {
	child := NewElement(name, arg)
	e.Children = append(e.Children, child)
	return child
}

// Set stores an attribute. Overwriting an existing key keeps its position.
// Set does not mark the key as used.
func (e *Element) Set(key, value string) {
	e.attrs.Set(key, value)
}

// Get returns the value of an attribute and marks the key as used.
func (e *Element) Get(key string) (string, bool) {
	e.used[key] = struct{}{}
	return e.attrs.Get(key)
}

// Has reports whether an attribute exists and marks the key as used.
func (e *Element) Has(key string) bool {
	e.used[key] = struct{}{}
	_, ok := e.attrs.Get(key)
	return ok
}

// IsUsed reports whether key has been read. It does not mark the key.
func (e *Element) IsUsed(key string) bool {
	_, ok := e.used[key]
	return ok
}

// UsedKeys returns the keys read so far, sorted.
func (e *Element) UsedKeys() []string {
	keys := make([]string, 0, len(e.used))
	for k := range e.used {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns the attribute keys in insertion order without marking them.
func (e *Element) Keys() []string {
	keys := make([]string, 0, e.attrs.Len())
	for pair := e.attrs.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of attributes.
func (e *Element) Len() int {
	return e.attrs.Len()
}

// Find returns the direct children named name.
func (e *Element) Find(name string) []*Element {
	var found []*Element
	for _, child := range e.Children {
		if child.Name == name {
			found = append(found, child)
		}
	}
	return found
}

// Merge layers e on top of other. The result takes its name and argument
// from e; attributes from e win over other's; children are e's followed by
// other's; the used set is the union of both.
func (e *Element) Merge(other *Element) *Element {
	merged := NewElement(e.Name, e.Arg)

	for pair := other.attrs.Oldest(); pair != nil; pair = pair.Next() {
		merged.attrs.Set(pair.Key, pair.Value)
	}
	for pair := e.attrs.Oldest(); pair != nil; pair = pair.Next() {
		merged.attrs.Set(pair.Key, pair.Value)
	}

	merged.Children = make([]*Element, 0, len(e.Children)+len(other.Children))
	merged.Children = append(merged.Children, e.Children...)
	merged.Children = append(merged.Children, other.Children...)

	for k := range e.used {
		merged.used[k] = struct{}{}
	}
	for k := range other.used {
		merged.used[k] = struct{}{}
	}

	return merged
}

// VisitUnused calls fn for every attribute, in this element and all of its
// descendants, whose key was never read.
func (e *Element) VisitUnused(fn func(key string, owner *Element)) {
	for pair := e.attrs.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := e.used[pair.Key]; !ok {
			fn(pair.Key, e)
		}
	}
	for _, child := range e.Children {
		child.VisitUnused(fn)
	}
}

// Serialize renders the element as nested-block text indented by depth levels.
func (e *Element) Serialize(depth int) string {
	var sb strings.Builder
	e.writeTo(&sb, depth)
	return sb.String()
}

// String renders the element as nested-block text.
func (e *Element) String() string {
	return e.Serialize(0)
}

func (e *Element) writeTo(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	nested := strings.Repeat("  ", depth+1)

	sb.WriteString(indent)
	if e.Arg == "" {
		sb.WriteString("<" + e.Name + ">\n")
	} else {
		sb.WriteString("<" + e.Name + " " + e.Arg + ">\n")
	}

	for pair := e.attrs.Oldest(); pair != nil; pair = pair.Next() {
		sb.WriteString(nested + pair.Key + " " + pair.Value + "\n")
	}

	for _, child := range e.Children {
		child.writeTo(sb, depth+1)
	}

	sb.WriteString(indent + "</" + e.Name + ">\n")
}

// elementDocument is the structured form used for JSON and YAML output.
type elementDocument struct {
	Name       string                                 `json:"name"`
	Arg        string                                 `json:"arg,omitempty"`
	Attributes *orderedmap.OrderedMap[string, string] `json:"attributes,omitempty"`
	Children   []*Element                             `json:"children,omitempty"`
}

// MarshalJSON encodes the element with attributes in insertion order.
func (e *Element) MarshalJSON() ([]byte, error) {
	doc := elementDocument{Name: e.Name, Arg: e.Arg, Children: e.Children}
	if e.attrs.Len() > 0 {
		doc.Attributes = e.attrs
	}
	return json.Marshal(doc)
}

// MarshalYAML encodes the element as a mapping node with attributes in
// insertion order.
func (e *Element) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendScalar(node, "name", e.Name)
	if e.Arg != "" {
		appendScalar(node, "arg", e.Arg)
	}

	if e.attrs.Len() > 0 {
		attrs := &yaml.Node{Kind: yaml.MappingNode}
		for pair := e.attrs.Oldest(); pair != nil; pair = pair.Next() {
			appendScalar(attrs, pair.Key, pair.Value)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "attributes"}, attrs)
	}

	if len(e.Children) > 0 {
		children := &yaml.Node{Kind: yaml.SequenceNode}
		for _, child := range e.Children {
			var childNode yaml.Node
			if err := childNode.Encode(child); err != nil {
				return nil, err
			}
			children.Content = append(children.Content, &childNode)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "children"}, children)
	}

	return node, nil
}

func appendScalar(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
