package datasource

import (
	"fmt"
	"strings"
)

// EditOp is the kind of one step in an outline edit script.
type EditOp int

const (
	// Keep matches an old node to a new one by label. Children are diffed
	// recursively.
	Keep EditOp = iota
	// Insert adds New before the next kept or deleted node.
	Insert
	// Delete removes Old.
	Delete
)

func (op EditOp) String() string {
	switch op {
	case Keep:
		return "keep"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("EditOp(%d)", int(op))
	}
}

// Edit is one step of the script that turns a sibling list into another.
type Edit struct {
	Op EditOp
	// Old is the position in the old sibling list (Keep, Delete); New the
	// position in the new list (Keep, Insert).
	Old, New int
	// Node is the new node for Keep and Insert, the old one for Delete.
	Node Node
	// Children is the script for a kept node's children.
	Children []Edit
	// Changed is set on Keep when the node's own fields differ.
	Changed bool
}

// Diff computes an edit script from old to new. Siblings are matched by
// label along their longest common subsequence, so reordering shows up
// as a delete plus an insert.
func Diff(old, new []Node) []Edit {
	lcs := make([][]int, len(old)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(new)+1)
	}
	for i := len(old) - 1; i >= 0; i-- {
		for j := len(new) - 1; j >= 0; j-- {
			if old[i].Label == new[j].Label {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var script []Edit
	i, j := 0, 0
	for i < len(old) || j < len(new) {
		switch {
		case i < len(old) && j < len(new) && old[i].Label == new[j].Label:
			script = append(script, Edit{
				Op:       Keep,
				Old:      i,
				New:      j,
				Node:     new[j],
				Children: Diff(old[i].Children, new[j].Children),
				Changed:  fieldsDiffer(old[i], new[j]),
			})
			i++
			j++
		case j < len(new) && (i == len(old) || lcs[i][j+1] >= lcs[i+1][j]):
			script = append(script, Edit{Op: Insert, Old: i, New: j, Node: new[j]})
			j++
		default:
			script = append(script, Edit{Op: Delete, Old: i, New: j, Node: old[i]})
			i++
		}
	}
	return script
}

// Expanded is view state and does not count as a change.
func fieldsDiffer(a, b Node) bool {
	return a.Note != b.Note || a.Checked != b.Checked || a.Icon != b.Icon
}

// DiffSummary counts the nodes an edit script touches.
type DiffSummary struct {
	Added   int
	Removed int
	Changed int
}

// Summarize totals a script. Inserted and deleted subtrees count every
// node they hold.
func Summarize(script []Edit) DiffSummary {
	var s DiffSummary
	for _, e := range script {
		switch e.Op {
		case Insert:
			s.Added += 1 + Count(e.Node.Children)
		case Delete:
			s.Removed += 1 + Count(e.Node.Children)
		case Keep:
			if e.Changed {
				s.Changed++
			}
			sub := Summarize(e.Children)
			s.Added += sub.Added
			s.Removed += sub.Removed
			s.Changed += sub.Changed
		}
	}
	return s
}

// IsEmpty reports whether the outlines were identical.
func (s DiffSummary) IsEmpty() bool {
	return s.Added == 0 && s.Removed == 0 && s.Changed == 0
}

// String returns a human-readable summary of the differences
func (s DiffSummary) String() string {
	if s.IsEmpty() {
		return "no changes"
	}
	var parts []string
	if s.Added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", s.Added))
	}
	if s.Removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", s.Removed))
	}
	if s.Changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d", s.Changed))
	}
	return strings.Join(parts, " ")
}

// Apply replays a script over old and returns the new sibling list. It is
// the inverse check for Diff: Apply(old, Diff(old, new)) equals new up to
// the Expanded flag of kept nodes, which keeps its old value.
func Apply(old []Node, script []Edit) []Node {
	var out []Node
	for _, e := range script {
		switch e.Op {
		case Insert:
			out = append(out, e.Node)
		case Keep:
			n := e.Node
			n.Expanded = old[e.Old].Expanded
			n.Children = Apply(old[e.Old].Children, e.Children)
			out = append(out, n)
		}
	}
	return out
}
