package dom

import (
	"testing"
)

type recordingObserver struct {
	name   string
	events *[]string
}

func (o recordingObserver) ChildInserted(parent, child *Node) {
	*o.events = append(*o.events, o.name+":childInserted:"+child.Tag())
}

func (o recordingObserver) ChildRemoved(parent, child *Node) {
	*o.events = append(*o.events, o.name+":childRemoved:"+child.Tag())
}

func (o recordingObserver) NodeInserted(node *Node) {
	*o.events = append(*o.events, o.name+":inserted")
}

func (o recordingObserver) NodeRemoved(node *Node) {
	*o.events = append(*o.events, o.name+":removed")
}

func newObservedNode(tag string, events *[]string) *Node {
	return NewNode(tag, nil, recordingObserver{name: tag, events: events})
}

func TestNode_AppendChild(t *testing.T) {
	var events []string
	root := newObservedNode("root", &events)
	div := newObservedNode("div", &events)
	span := newObservedNode("span", &events)

	if err := root.AppendChild(div); err != nil {
		t.Fatalf("AppendChild failed: %v", err)
	}
	if err := div.AppendChild(span); err != nil {
		t.Fatalf("AppendChild failed: %v", err)
	}

	if span.Parent() != div || div.Parent() != root {
		t.Error("Parent links not set")
	}
	if root.FirstChild() != div || div.LastChild() != span {
		t.Error("Child links not set")
	}

	want := []string{
		"root:childInserted:div", "div:inserted",
		"div:childInserted:span", "root:childInserted:span", "span:inserted",
	}
	if len(events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], events[i])
		}
	}
}

func TestNode_InsertBefore(t *testing.T) {
	root := NewNode("root", nil, nil)
	a := NewNode("a", nil, nil)
	b := NewNode("b", nil, nil)
	c := NewNode("c", nil, nil)

	_ = root.AppendChild(a)
	_ = root.AppendChild(c)
	if err := root.InsertBefore(b, c); err != nil {
		t.Fatalf("InsertBefore failed: %v", err)
	}

	children := root.Children()
	if len(children) != 3 || children[0] != a || children[1] != b || children[2] != c {
		t.Errorf("Unexpected child order: %v", children)
	}

	stranger := NewNode("x", nil, nil)
	if err := root.InsertBefore(NewNode("y", nil, nil), stranger); err == nil {
		t.Error("Expected NotFoundError for foreign reference node")
	}
}

func TestNode_HierarchyErrors(t *testing.T) {
	root := NewNode("root", nil, nil)
	child := NewNode("child", nil, nil)
	_ = root.AppendChild(child)

	err := child.AppendChild(root)
	domErr, ok := err.(*DOMError)
	if !ok || domErr.Name != "HierarchyRequestError" {
		t.Errorf("Expected HierarchyRequestError, got %v", err)
	}
	if err := root.AppendChild(root); err == nil {
		t.Error("A node cannot be its own child")
	}
}

func TestNode_ReparentAndRemove(t *testing.T) {
	var events []string
	a := newObservedNode("a", &events)
	b := newObservedNode("b", &events)
	child := newObservedNode("child", &events)

	_ = a.AppendChild(child)
	events = nil
	_ = b.AppendChild(child)

	if a.ChildCount() != 0 || child.Parent() != b {
		t.Error("Reparenting should detach from the old parent")
	}
	if events[0] != "a:childRemoved:child" || events[1] != "child:removed" {
		t.Errorf("Expected removal notifications first, got %v", events)
	}

	if err := a.RemoveChild(child); err == nil {
		t.Error("Expected NotFoundError removing a non-child")
	}
	child.Remove()
	if child.Parent() != nil || b.ChildCount() != 0 {
		t.Error("Remove should detach the node")
	}
}
