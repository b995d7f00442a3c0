package datasource

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Node is one outline entry as stored on disk.
type Node struct {
	Label    string `yaml:"label" json:"label"`
	Note     string `yaml:"note,omitempty" json:"note,omitempty"`
	Expanded bool   `yaml:"expanded,omitempty" json:"expanded,omitempty"`
	Checked  bool   `yaml:"checked,omitempty" json:"checked,omitempty"`
	Icon     bool   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Children []Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// UnmarshalYAML accepts a bare scalar as a leaf label, so short outlines
// can be written as plain lists:
//
//	nodes:
//	  - Inbox
//	  - label: Projects
//	    children: [Alpha, Beta]
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*n = Node{Label: value.Value}
		return nil
	}
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

// Outline is a whole document.
type Outline struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Nodes []Node `yaml:"nodes" json:"nodes"`

	// Path is the file the outline was read from.
	Path string `yaml:"-" json:"-"`
}

// Count returns the number of nodes, descendants included.
func Count(nodes []Node) int {
	n := 0
	for _, c := range nodes {
		n += 1 + Count(c.Children)
	}
	return n
}

// Validate reports the first node without a label.
func Validate(nodes []Node) error {
	var walk func(nodes []Node, path []int) error
	walk = func(nodes []Node, path []int) error {
		for i, n := range nodes {
			p := append(slices.Clone(path), i)
			if n.Label == "" {
				return fmt.Errorf("node %v: %w", p, ErrEmptyLabel)
			}
			if err := walk(n.Children, p); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(nodes, nil)
}

// Find returns the node addressed by a path of labels, or nil.
func Find(nodes []Node, path []string) *Node {
	if len(path) == 0 {
		return nil
	}
	for i := range nodes {
		if nodes[i].Label != path[0] {
			continue
		}
		if len(path) == 1 {
			return &nodes[i]
		}
		return Find(nodes[i].Children, path[1:])
	}
	return nil
}

// Append adds n as the last child of the node at parent, a path of
// labels; an empty parent appends a root.
func (o *Outline) Append(parent []string, n Node) error {
	if n.Label == "" {
		return ErrEmptyLabel
	}
	if len(parent) == 0 {
		o.Nodes = append(o.Nodes, n)
		return nil
	}
	p := Find(o.Nodes, parent)
	if p == nil {
		return fmt.Errorf("parent %q: %w", parent, ErrNotFound)
	}
	p.Children = append(p.Children, n)
	return nil
}

// Paths lists the label path of every node in pre-order, for pickers.
func Paths(nodes []Node) [][]string {
	var out [][]string
	var walk func(nodes []Node, prefix []string)
	walk = func(nodes []Node, prefix []string) {
		for _, n := range nodes {
			p := append(append([]string(nil), prefix...), n.Label)
			out = append(out, p)
			walk(n.Children, p)
		}
	}
	walk(nodes, nil)
	return out
}
