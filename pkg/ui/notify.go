package ui

import (
	"fmt"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
)

// NotifyKind names the notifications a Tree emits.
type NotifyKind int

const (
	NotifyExpand NotifyKind = iota
	NotifyCollapse
	NotifySelection
	NotifyDefaultSelection
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyExpand:
		return "expand"
	case NotifyCollapse:
		return "collapse"
	case NotifySelection:
		return "selection"
	case NotifyDefaultSelection:
		return "default-selection"
	default:
		return fmt.Sprintf("notify(%d)", int(k))
	}
}

// Detail qualifies a selection notification.
type Detail int

const (
	DetailNone Detail = iota
	DetailCheck
)

// Notification is passed to listeners.
type Notification struct {
	Kind   NotifyKind
	Item   hierarchy.NodeID
	Detail Detail
}

// Listener receives notifications synchronously, on the tree's goroutine.
// It may call back into the tree.
type Listener func(Notification)

// ListenerID identifies a registration for RemoveListener.
type ListenerID int

type listener struct {
	id   ListenerID
	kind NotifyKind
	fn   Listener
}

// AddListener registers fn for kind.
func (t *Tree) AddListener(kind NotifyKind, fn Listener) (ListenerID, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, fmt.Errorf("add listener: %w", hierarchy.ErrNullArgument)
	}
	t.nextListener++
	t.listeners = append(t.listeners, listener{id: t.nextListener, kind: kind, fn: fn})
	return t.nextListener, nil
}

// RemoveListener drops a registration. Unknown IDs are ignored.
func (t *Tree) RemoveListener(id ListenerID) error {
	if err := t.check(); err != nil {
		return err
	}
	for i, l := range t.listeners {
		if l.id == id {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			break
		}
	}
	return nil
}

func (t *Tree) hasListener(kind NotifyKind) bool {
	for _, l := range t.listeners {
		if l.kind == kind {
			return true
		}
	}
	return false
}

// notify calls the listeners registered when it starts; registrations made
// by a listener apply to the next notification.
func (t *Tree) notify(kind NotifyKind, item hierarchy.NodeID, detail Detail) {
	n := Notification{Kind: kind, Item: item, Detail: detail}
	for _, l := range append([]listener(nil), t.listeners...) {
		if l.kind == kind && !t.disposed {
			l.fn(n)
		}
	}
}
