package render

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/chrisuehlinger/nodebridge/command"
)

// ErrUnknownTarget is returned for commands naming a node the renderer never
// created or already disposed.
var ErrUnknownTarget = errors.New("unknown target")

// node is the renderer's copy of one element.
type node struct {
	id       int64
	tag      string
	props    map[string]string
	style    map[string]string
	parent   *node
	children []*node
}

func newNode(id int64, tag string) *node {
	return &node{
		id:    id,
		tag:   tag,
		props: make(map[string]string),
		style: make(map[string]string),
	}
}

func (n *node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

func (n *node) insertAt(child *node, i int) {
	child.detach()
	child.parent = n
	n.children = slices.Insert(n.children, i, child)
}

// tree is the native document rebuilt from commands. It is not safe for
// concurrent use; the Renderer serializes access.
type tree struct {
	nodes map[int64]*node
}

func newTree(rootTag string) *tree {
	return &tree{nodes: map[int64]*node{
		command.RootTarget: newNode(command.RootTarget, rootTag),
	}}
}

func (t *tree) lookup(id int64) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	return n, nil
}

// apply performs one command.
func (t *tree) apply(cmd command.Command) error {
	if cmd.Kind == command.CreateElement {
		if len(cmd.Args) != 1 {
			return fmt.Errorf("%s: want 1 argument, got %d", cmd.Kind, len(cmd.Args))
		}
		t.nodes[cmd.Target] = newNode(cmd.Target, cmd.Args[0])
		return nil
	}

	n, err := t.lookup(cmd.Target)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case command.DisposeEventTarget:
		if n.id == command.RootTarget {
			return errors.New("the root cannot be disposed")
		}
		n.detach()
		delete(t.nodes, n.id)
	case command.InsertAdjacentNode:
		if len(cmd.Args) != 2 {
			return fmt.Errorf("%s: want 2 arguments, got %d", cmd.Kind, len(cmd.Args))
		}
		return t.insertAdjacent(n, cmd.Args[0], cmd.Args[1])
	case command.RemoveNode:
		n.detach()
	case command.SetStyle:
		if len(cmd.Args) != 2 {
			return fmt.Errorf("%s: want 2 arguments, got %d", cmd.Kind, len(cmd.Args))
		}
		if cmd.Args[1] == "" {
			delete(n.style, cmd.Args[0])
		} else {
			n.style[cmd.Args[0]] = cmd.Args[1]
		}
	case command.SetProperty:
		if len(cmd.Args) != 2 {
			return fmt.Errorf("%s: want 2 arguments, got %d", cmd.Kind, len(cmd.Args))
		}
		n.props[cmd.Args[0]] = cmd.Args[1]
	case command.RemoveProperty:
		if len(cmd.Args) != 1 {
			return fmt.Errorf("%s: want 1 argument, got %d", cmd.Kind, len(cmd.Args))
		}
		delete(n.props, cmd.Args[0])
	default:
		return fmt.Errorf("unsupported command %s", cmd.Kind)
	}
	return nil
}

// insertAdjacent places the node named by childArg relative to ref, the same
// positions as Element.insertAdjacentElement.
func (t *tree) insertAdjacent(ref *node, position, childArg string) error {
	id, err := strconv.ParseInt(childArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid child id %q: %w", childArg, err)
	}
	child, err := t.lookup(id)
	if err != nil {
		return err
	}

	switch position {
	case "beforeend":
		ref.insertAt(child, len(ref.children))
	case "afterbegin":
		ref.insertAt(child, 0)
	case "beforebegin", "afterend":
		parent := ref.parent
		if parent == nil {
			return fmt.Errorf("%s on detached node %d", position, ref.id)
		}
		child.detach()
		i := slices.Index(parent.children, ref)
		if position == "afterend" {
			i++
		}
		parent.insertAt(child, i)
	default:
		return fmt.Errorf("unknown position %q", position)
	}
	return nil
}

// NodeInfo is a snapshot of one native node.
type NodeInfo struct {
	ID       int64             `yaml:"id"`
	Tag      string            `yaml:"tag"`
	Props    map[string]string `yaml:"props,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
	Parent   int64             `yaml:"parent,omitempty"`
	Attached bool              `yaml:"attached"`
	Children []int64           `yaml:"children,flow,omitempty"`
}

func (n *node) info() NodeInfo {
	info := NodeInfo{
		ID:    n.id,
		Tag:   n.tag,
		Props: make(map[string]string, len(n.props)),
		Style: make(map[string]string, len(n.style)),
	}
	for k, v := range n.props {
		info.Props[k] = v
	}
	for k, v := range n.style {
		info.Style[k] = v
	}
	if n.parent != nil {
		info.Parent = n.parent.id
		info.Attached = true
	}
	for _, c := range n.children {
		info.Children = append(info.Children, c.id)
	}
	return info
}
