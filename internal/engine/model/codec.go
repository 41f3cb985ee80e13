package model

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// wireNode is the serialized form of a node:
//
//	{"type": "heading", "attrs": {"level": 1}, "content": [{"type": "text", "text": "Title"}]}
type wireNode struct {
	Type    string         `json:"type" yaml:"type"`
	Attrs   map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Content []wireNode     `json:"content,omitempty" yaml:"content,omitempty"`
	Text    string         `json:"text,omitempty" yaml:"text,omitempty"`
	Marks   []wireMark     `json:"marks,omitempty" yaml:"marks,omitempty"`
}

type wireMark struct {
	Type  string            `json:"type" yaml:"type"`
	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// NodeFromJSON decodes and validates a node tree.
func NodeFromJSON(data []byte) (*Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return fromWire(w)
}

// NodeFromYAML decodes and validates a node tree written as YAML.
func NodeFromYAML(data []byte) (*Node, error) {
	var w wireNode
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return fromWire(w)
}

// MarshalJSON encodes the node tree.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toWire())
}

// MarshalYAML returns the YAML representation of the node tree.
func (n *Node) MarshalYAML() (any, error) {
	return n.toWire(), nil
}

func (n *Node) toWire() wireNode {
	w := wireNode{Type: n.typ.String()}
	if n.IsText() {
		w.Text = n.text
		for _, m := range n.marks {
			wm := wireMark{Type: m.Type.String()}
			if attr := markSpecs[m.Type].attr; attr != "" {
				wm.Attrs = map[string]string{attr: m.Value}
			}
			w.Marks = append(w.Marks, wm)
		}
		return w
	}
	if len(n.attrs) > 0 {
		w.Attrs = make(map[string]any, len(n.attrs))
		for k, v := range n.attrs {
			w.Attrs[k] = v
		}
	}
	for _, child := range n.content.nodes {
		w.Content = append(w.Content, child.toWire())
	}
	return w
}

func fromWire(w wireNode) (*Node, error) {
	t, ok := ParseNodeType(w.Type)
	if !ok {
		return nil, fmt.Errorf("%w: node %q", ErrUnknownType, w.Type)
	}
	if t == TypeText {
		marks := make([]Mark, 0, len(w.Marks))
		for _, wm := range w.Marks {
			mt, ok := ParseMarkType(wm.Type)
			if !ok {
				return nil, fmt.Errorf("%w: mark %q", ErrUnknownType, wm.Type)
			}
			marks = append(marks, NewMark(mt, wm.Attrs[markSpecs[mt].attr]))
		}
		if w.Text == "" {
			return nil, schemaErrorf("empty text node")
		}
		return NewText(w.Text, marks...), nil
	}
	children := make([]*Node, 0, len(w.Content))
	for _, wc := range w.Content {
		child, err := fromWire(wc)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return Create(t, Attrs(w.Attrs), children...)
}
