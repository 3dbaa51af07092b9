package escn

import (
	"fmt"

	"github.com/spaghettifunk/escargot/exporter/core"
)

// File accumulates one output document before it is written: external
// resource declarations, internal sub-resources and the node tree, each
// in emission order. Resources are deduplicated by ResourceKey; a key is
// inserted at most once and every later reference reuses the assigned id.
// Insertion order equals first-encounter order during the scene walk and
// fixes both the textual position and the load_steps count.
//
// A File belongs to exactly one export invocation. It is never shared:
// a second export starts from a fresh, empty File so resource ids always
// restart at 1.
type File struct {
	external []*ExternalResource
	internal []*InternalResource
	nodes    []*Node

	extIndex map[ResourceKey]int
	intIndex map[ResourceKey]int
}

func NewFile() *File {
	return &File{
		extIndex: make(map[ResourceKey]int),
		intIndex: make(map[ResourceKey]int),
	}
}

// InternalResourceID looks up an already registered internal resource.
func (f *File) InternalResourceID(key ResourceKey) (int, bool) {
	id, ok := f.intIndex[key]
	return id, ok
}

// ExternalResourceID looks up an already registered external resource.
func (f *File) ExternalResourceID(key ResourceKey) (int, bool) {
	id, ok := f.extIndex[key]
	return id, ok
}

// AddInternalResource inserts a new sub-resource and assigns the next
// sequential id. Inserting the same key twice is a programming error.
func (f *File) AddInternalResource(res *InternalResource, key ResourceKey) (int, error) {
	if _, ok := f.intIndex[key]; ok {
		return 0, fmt.Errorf("escn: internal resource %v added twice", key)
	}
	f.internal = append(f.internal, res)
	res.id = len(f.internal)
	f.intIndex[key] = res.id
	return res.id, nil
}

// AddExternalResource inserts a new external resource declaration.
// External resources use their own id space, per the target grammar.
func (f *File) AddExternalResource(res *ExternalResource, key ResourceKey) (int, error) {
	if _, ok := f.extIndex[key]; ok {
		return 0, fmt.Errorf("escn: external resource %v added twice", key)
	}
	f.external = append(f.external, res)
	res.id = len(f.external)
	f.extIndex[key] = res.id
	return res.id, nil
}

// RegisterInternalResource memoizes resource serialization: if key is
// already present the existing id is returned and build is not invoked.
// Otherwise build runs once and the result is stored under the next id.
// A build failure is fatal for the whole export, because a node is about
// to reference the resource that could not be serialized.
func (f *File) RegisterInternalResource(key ResourceKey, build func() (*InternalResource, error)) (int, error) {
	if id, ok := f.intIndex[key]; ok {
		return id, nil
	}
	res, err := build()
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", core.ErrUnresolvedResource, key.Kind, key.Variant, err)
	}
	return f.AddInternalResource(res, key)
}

// RegisterExternalResource is the external-resource counterpart of
// RegisterInternalResource.
func (f *File) RegisterExternalResource(key ResourceKey, build func() (*ExternalResource, error)) (int, error) {
	if id, ok := f.extIndex[key]; ok {
		return id, nil
	}
	res, err := build()
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", core.ErrUnresolvedResource, key.Kind, key.Variant, err)
	}
	return f.AddExternalResource(res, key)
}

// AddNode appends a node record. Nodes are not indexed; emission order is
// traversal order.
func (f *File) AddNode(n *Node) {
	f.nodes = append(f.nodes, n)
}

func (f *File) ExternalResources() []*ExternalResource { return f.external }

func (f *File) InternalResources() []*InternalResource { return f.internal }

func (f *File) Nodes() []*Node { return f.nodes }

// LoadSteps is the unit count declared in the header: every resource plus
// the scene itself.
func (f *File) LoadSteps() int {
	return len(f.external) + len(f.internal) + 1
}
