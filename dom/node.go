package dom

// TreeObserver receives tree mutation notifications for a node. Element
// subtypes override these to react to structure changes instead of the
// bridge special-casing individual tags.
type TreeObserver interface {
	// ChildInserted is called on the new parent and then on each of its
	// ancestors after child has been inserted.
	ChildInserted(parent, child *Node)
	// ChildRemoved is called on the old parent and each of its ancestors
	// after child has been removed.
	ChildRemoved(parent, child *Node)
	// NodeInserted is called on the inserted node and every descendant.
	NodeInserted(node *Node)
	// NodeRemoved is called on the removed node and every descendant.
	NodeRemoved(node *Node)
}

// Node is the native half of a bridged element. The parent pointer is a
// non-owning back reference; children are owned and ordered.
type Node struct {
	tag      string
	parent   *Node
	children []*Node
	observer TreeObserver
	owner    any
}

// NewNode creates a detached node. owner is an opaque back reference to
// whatever wraps the node (the script-side element).
func NewNode(tag string, owner any, observer TreeObserver) *Node {
	return &Node{tag: tag, owner: owner, observer: observer}
}

// Tag returns the tag name the node was created with.
func (n *Node) Tag() string {
	return n.tag
}

// Owner returns the value passed to NewNode.
func (n *Node) Owner() any {
	return n.owner
}

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// LastChild returns the last child or nil.
func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AppendChild appends child to n, detaching it from its previous parent.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	if child == nil {
		return ErrHierarchyRequest("The new child is null.")
	}
	if child.Contains(n) {
		return ErrHierarchyRequest("The new child element contains the parent.")
	}
	if ref != nil && ref.parent != n {
		return ErrNotFound("The node before which the new node is to be inserted is not a child of this node.")
	}
	if ref == child {
		return nil
	}
	if child.parent != nil {
		child.parent.detach(child)
	}

	idx := len(n.children)
	if ref != nil {
		idx = n.indexOf(ref)
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	child.parent = n

	for a := n; a != nil; a = a.parent {
		if a.observer != nil {
			a.observer.ChildInserted(n, child)
		}
	}
	child.walk(func(d *Node) {
		if d.observer != nil {
			d.observer.NodeInserted(d)
		}
	})
	return nil
}

// RemoveChild removes child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return ErrNotFound("The node to be removed is not a child of this node.")
	}
	n.detach(child)
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.detach(n)
	}
}

func (n *Node) detach(child *Node) {
	idx := n.indexOf(child)
	if idx < 0 {
		return
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil

	for a := n; a != nil; a = a.parent {
		if a.observer != nil {
			a.observer.ChildRemoved(n, child)
		}
	}
	child.walk(func(d *Node) {
		if d.observer != nil {
			d.observer.NodeRemoved(d)
		}
	})
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// walk visits n and its descendants in tree order.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
