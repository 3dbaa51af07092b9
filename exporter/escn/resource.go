package escn

import "github.com/google/uuid"

// ResourceKey deduplicates exported data blocks. It derives from the data
// block's identity, never from the referencing node's name or transform,
// so two objects sharing one mesh collapse into one resource record. The
// variant field separates different renditions of the same block, e.g. a
// mesh used both as geometry and as a collision shape.
type ResourceKey struct {
	Kind    string
	ID      uuid.UUID
	Variant string
}

// InternalResource is a sub-resource record inlined in the document.
type InternalResource struct {
	gdType string
	id     int
	props  propList
}

// NewInternalResource creates a record of the given type. The resource
// name is emitted as the first property.
func NewInternalResource(gdType, name string) *InternalResource {
	r := &InternalResource{gdType: gdType}
	if name != "" {
		r.props.set("resource_name", name)
	}
	return r
}

func (r *InternalResource) Type() string { return r.gdType }

// ID returns the pool id, valid once the resource has been added to a File.
func (r *InternalResource) ID() int { return r.id }

func (r *InternalResource) Set(key string, v interface{}) {
	r.props.set(key, v)
}

func (r *InternalResource) Get(key string) (interface{}, bool) {
	return r.props.get(key)
}

// ExternalResource is a resource kept as a standalone file, referenced by
// a path relative to the project root.
type ExternalResource struct {
	path   string
	gdType string
	id     int
}

func NewExternalResource(path, gdType string) *ExternalResource {
	return &ExternalResource{path: path, gdType: gdType}
}

func (r *ExternalResource) Path() string { return r.path }

func (r *ExternalResource) Type() string { return r.gdType }

func (r *ExternalResource) ID() int { return r.id }
