// Package design models the visual composition of a card as a tree of nodes.
package design

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NodeType tags what a node renders.
type NodeType string

const (
	NodeContainer NodeType = "container"
	NodeText      NodeType = "text"
	NodeImage     NodeType = "image"
	NodeShape     NodeType = "shape"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeContainer, NodeText, NodeImage, NodeShape:
		return true
	default:
		return false
	}
}

var (
	// ErrLeafChildren is returned when a child is attached to a non-container node.
	ErrLeafChildren = errors.New("only container nodes may have children")
	// ErrUnknownType is returned for nodes with an unrecognised type tag.
	ErrUnknownType = errors.New("unknown node type")
)

// Node is one element of a card design. Only containers carry children;
// text, image and shape nodes hold their own content and style.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Content  string         `json:"content,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
	Children []*Node        `json:"children,omitempty"`
}

func newNode(t NodeType, content string, style map[string]any) *Node {
	if style == nil {
		style = make(map[string]any)
	}
	return &Node{
		ID:      fmt.Sprintf("%s-%s", t, uuid.NewString()[:8]),
		Type:    t,
		Content: content,
		Style:   style,
	}
}

// NewContainer creates a container node.
func NewContainer(style map[string]any) *Node { return newNode(NodeContainer, "", style) }

// NewText creates a text node.
func NewText(text string, style map[string]any) *Node { return newNode(NodeText, text, style) }

// NewImage creates an image node whose content is the image reference.
func NewImage(src string, style map[string]any) *Node { return newNode(NodeImage, src, style) }

// NewShape creates a shape node; content names the shape (rect, circle, ...).
func NewShape(shape string, style map[string]any) *Node { return newNode(NodeShape, shape, style) }

// IsContainer reports whether n may have children.
func (n *Node) IsContainer() bool {
	return n != nil && n.Type == NodeContainer
}

// AddChild appends children to a container node.
func (n *Node) AddChild(children ...*Node) error {
	if !n.IsContainer() {
		return fmt.Errorf("add child to %s node %s: %w", n.Type, n.ID, ErrLeafChildren)
	}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return nil
}

// SetStyle sets a single style property.
func (n *Node) SetStyle(key string, value any) {
	if n.Style == nil {
		n.Style = make(map[string]any)
	}
	n.Style[key] = value
}

// Walk visits n and its descendants depth-first, pre-order. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// NodesOfType returns every node of type t in walk order.
func (n *Node) NodesOfType(t NodeType) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Type == t {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Clone returns a deep copy. Style values are copied one level deep.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:      n.ID,
		Type:    n.Type,
		Content: n.Content,
	}
	if n.Style != nil {
		out.Style = make(map[string]any, len(n.Style))
		for k, v := range n.Style {
			out.Style[k] = v
		}
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Validate checks node types and that only containers have children.
func (n *Node) Validate() error {
	var err error
	n.Walk(func(node *Node) bool {
		if !node.Type.Valid() {
			err = fmt.Errorf("node %s: %w %q", node.ID, ErrUnknownType, node.Type)
			return false
		}
		if !node.IsContainer() && len(node.Children) > 0 {
			err = fmt.Errorf("node %s (%s): %w", node.ID, node.Type, ErrLeafChildren)
			return false
		}
		return true
	})
	return err
}
