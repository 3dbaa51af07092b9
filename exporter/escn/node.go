package escn

import (
	"strconv"
	"strings"
)

// Node is one record of the output scene tree. Nodes form a strict tree:
// every node except the root has exactly one parent, assigned at
// construction and never rebound. The node name is made unique among its
// siblings at attach time so paths are unambiguous.
type Node struct {
	name       string
	gdType     string
	parent     *Node
	children   []*Node
	childNames map[string]bool
	props      propList
}

// NewRootNode creates the tree root. Its path is the self marker ".".
func NewRootNode(name, gdType string) *Node {
	return &Node{
		name:       name,
		gdType:     gdType,
		childNames: make(map[string]bool),
	}
}

// NewNode creates a node attached under parent. If the requested name is
// already used by a sibling, a numeric suffix starting at 2 is appended;
// the first free suffix wins, so the resolution is stable across runs.
func NewNode(name, gdType string, parent *Node) *Node {
	resolved := name
	for i := 2; parent.childNames[resolved]; i++ {
		resolved = name + strconv.Itoa(i)
	}
	parent.childNames[resolved] = true

	n := &Node{
		name:       resolved,
		gdType:     gdType,
		parent:     parent,
		childNames: make(map[string]bool),
	}
	parent.children = append(parent.children, n)
	return n
}

func (n *Node) Name() string { return n.name }

func (n *Node) Type() string { return n.gdType }

func (n *Node) Parent() *Node { return n.parent }

// Children returns the attach-ordered child list.
func (n *Node) Children() []*Node { return n.children }

// Set records a property. Re-setting a key keeps its original position.
func (n *Node) Set(key string, v interface{}) {
	n.props.set(key, v)
}

func (n *Node) Get(key string) (interface{}, bool) {
	return n.props.get(key)
}

// Path returns the node's address: sibling-unique names joined by "/"
// from just below the root down to this node. The root itself is ".".
func (n *Node) Path() string {
	if n.parent == nil {
		return "."
	}
	segments := []string{}
	for ptr := n; ptr.parent != nil; ptr = ptr.parent {
		segments = append(segments, ptr.name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}

// ParentPath is the path written into the node heading.
func (n *Node) ParentPath() string {
	return n.parent.Path()
}

// NodePath is a reference from one node to another, written relative to
// the referencing node. An optional sub-name addresses a bone or blend
// shape inside the target.
type NodePath struct {
	Base    string
	Target  string
	SubName string
}

// NewNodePath builds a reference from the node at base to the node at
// target, both given as absolute paths (see Node.Path).
func NewNodePath(base, target string) NodePath {
	return NodePath{Base: base, Target: target}
}

// String renders the relative form: shared prefix segments are dropped,
// remaining base segments become "..", then the target segments follow.
func (p NodePath) String() string {
	base := splitPath(p.Base)
	target := splitPath(p.Target)

	common := 0
	for common < len(base) && common < len(target) && base[common] == target[common] {
		common++
	}

	segments := []string{}
	for i := common; i < len(base); i++ {
		segments = append(segments, "..")
	}
	segments = append(segments, target[common:]...)

	path := strings.Join(segments, "/")
	if path == "" {
		path = "."
	}
	if p.SubName != "" {
		path += ":" + p.SubName
	}
	return path
}

func splitPath(path string) []string {
	if path == "" || path == "." {
		return nil
	}
	return strings.Split(path, "/")
}

// propList keeps properties in insertion order so record bodies are
// emitted deterministically.
type propList struct {
	keys   []string
	values map[string]interface{}
}

func (p *propList) set(key string, v interface{}) {
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

func (p *propList) get(key string) (interface{}, bool) {
	v, ok := p.values[key]
	return v, ok
}
