package ui

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
)

// ErrStaleDiff reports an edit script computed against an outline other
// than the one the tree mirrors.
var ErrStaleDiff = errors.New("edit script does not match the tree")

// Visitor sees every item Load or ApplyDiff creates or updates, with the
// outline node it now mirrors.
type Visitor func(id hierarchy.NodeID, n datasource.Node)

// Load appends nodes as the last children of parent (None for roots) and
// expands the ones marked expanded. It runs with redraw suspended, so the
// view keeps its position and is repainted once.
func (t *Tree) Load(parent hierarchy.NodeID, nodes []datasource.Node, visit Visitor) error {
	if err := t.checkParent(parent); err != nil {
		return err
	}
	return t.WithRedrawSuspended(func() error {
		var expand []hierarchy.NodeID
		if err := t.insertNodes(parent, t.ix.ChildCount(parent), nodes, visit, &expand); err != nil {
			return err
		}
		t.expandLoaded(expand)
		return nil
	})
}

// insertNodes adds nodes from child position index on and records, in
// post-order, the items to expand.
func (t *Tree) insertNodes(parent hierarchy.NodeID, index int, nodes []datasource.Node, visit Visitor, expand *[]hierarchy.NodeID) error {
	for i, n := range nodes {
		id, err := t.Insert(parent, index+i, n.Label)
		if err != nil {
			return fmt.Errorf("load %q: %w", n.Label, err)
		}
		if err := t.applyFields(id, n); err != nil {
			return err
		}
		if visit != nil {
			visit(id, n)
		}
		if err := t.insertNodes(id, 0, n.Children, visit, expand); err != nil {
			return err
		}
		if n.Expanded && len(n.Children) > 0 {
			*expand = append(*expand, id)
		}
	}
	return nil
}

// expandLoaded expands parents before their children.
func (t *Tree) expandLoaded(ids []hierarchy.NodeID) {
	for i := len(ids) - 1; i >= 0; i-- {
		t.expand(ids[i])
	}
}

func (t *Tree) applyFields(id hierarchy.NodeID, n datasource.Node) error {
	if err := t.SetChecked(id, n.Checked); err != nil {
		return err
	}
	if t.ix.HasImage(id) != n.Icon {
		return t.SetImage(id, n.Icon)
	}
	return nil
}

// ApplyDiff replays an outline edit script on the children of parent:
// deleted nodes are removed, inserted ones loaded, and kept ones updated
// in place so their expansion and the selection survive. The script must
// have been computed against the outline the tree currently mirrors; a
// script that does not match is rejected with ErrStaleDiff before any item
// changes.
func (t *Tree) ApplyDiff(parent hierarchy.NodeID, script []datasource.Edit, visit Visitor) error {
	if err := t.checkParent(parent); err != nil {
		return err
	}
	if err := t.matchEdits(parent, script); err != nil {
		return err
	}
	return t.WithRedrawSuspended(func() error {
		var expand []hierarchy.NodeID
		if err := t.applyEdits(parent, script, visit, &expand); err != nil {
			return err
		}
		t.expandLoaded(expand)
		return nil
	})
}

// matchEdits checks that the kept and deleted nodes of script are the
// children of parent, in order and by label, without changing anything.
func (t *Tree) matchEdits(parent hierarchy.NodeID, script []datasource.Edit) error {
	pos := 0
	for _, e := range script {
		if e.Op == datasource.Insert {
			continue
		}
		id, err := t.ix.ChildAt(parent, pos)
		if err != nil {
			return fmt.Errorf("diff %s %q at %d: %w", e.Op, e.Node.Label, pos, ErrStaleDiff)
		}
		if label := t.ix.Label(id); label != e.Node.Label {
			return fmt.Errorf("diff %s %q at %d finds %q: %w", e.Op, e.Node.Label, pos, label, ErrStaleDiff)
		}
		if e.Op == datasource.Keep {
			if err := t.matchEdits(id, e.Children); err != nil {
				return err
			}
		}
		pos++
	}
	if n := t.ix.ChildCount(parent); pos != n {
		return fmt.Errorf("diff covers %d of %d items: %w", pos, n, ErrStaleDiff)
	}
	return nil
}

func (t *Tree) applyEdits(parent hierarchy.NodeID, script []datasource.Edit, visit Visitor, expand *[]hierarchy.NodeID) error {
	pos := 0
	for _, e := range script {
		switch e.Op {
		case datasource.Insert:
			if err := t.insertNodes(parent, pos, []datasource.Node{e.Node}, visit, expand); err != nil {
				return err
			}
			pos++
		case datasource.Delete, datasource.Keep:
			id, err := t.ix.ChildAt(parent, pos)
			if err != nil {
				return fmt.Errorf("diff %s %q at %d: %w", e.Op, e.Node.Label, pos, err)
			}
			if e.Op == datasource.Delete {
				debug.Log("diff: remove %q", e.Node.Label)
				if err := t.Remove(id); err != nil {
					return err
				}
				continue
			}
			if e.Changed {
				if err := t.applyFields(id, e.Node); err != nil {
					return err
				}
				if visit != nil {
					visit(id, e.Node)
				}
			}
			if err := t.applyEdits(id, e.Children, visit, expand); err != nil {
				return err
			}
			pos++
		}
	}
	return nil
}
