// Package container parses and serializes the binary glTF (GLB) container
// format used for uploaded avatar models.
package container

import "encoding/json"

// Document is the parsed structural chunk of a container plus its raw
// binary payload. It is owned by a single parse/serialize cycle and must
// not be mutated after being handed to analysis.
//
// Only the objects the engine rewrites (scenes, nodes, meshes, accessors,
// skins) are typed. Materials, textures, images, samplers, cameras and
// animations are carried as raw JSON so a rewrite cannot drop fields the
// engine does not model.
type Document struct {
	Asset       Asset                      `json:"asset"`
	Scene       *int                       `json:"scene,omitempty"`
	Scenes      []Scene                    `json:"scenes,omitempty"`
	Nodes       []Node                     `json:"nodes,omitempty"`
	Meshes      []Mesh                     `json:"meshes,omitempty"`
	Accessors   []Accessor                 `json:"accessors,omitempty"`
	BufferViews []BufferView               `json:"bufferViews,omitempty"`
	Buffers     []Buffer                   `json:"buffers,omitempty"`
	Materials   []json.RawMessage          `json:"materials,omitempty"`
	Textures    []json.RawMessage          `json:"textures,omitempty"`
	Images      []json.RawMessage          `json:"images,omitempty"`
	Samplers    []json.RawMessage          `json:"samplers,omitempty"`
	Cameras     []json.RawMessage          `json:"cameras,omitempty"`
	Skins       []Skin                     `json:"skins,omitempty"`
	Animations  []json.RawMessage          `json:"animations,omitempty"`
	Extensions  map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras      json.RawMessage            `json:"extras,omitempty"`

	ExtensionsUsed     []string `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`

	// BinaryPayload is the BIN chunk exactly as read. Serialization emits
	// it unchanged; geometry, materials and textures live here.
	BinaryPayload []byte `json:"-"`
}

// Asset is the container metadata block. Version is required by the format.
type Asset struct {
	Version    string          `json:"version"`
	MinVersion string          `json:"minVersion,omitempty"`
	Generator  string          `json:"generator,omitempty"`
	Copyright  string          `json:"copyright,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Scene is a set of root nodes.
type Scene struct {
	Name       string          `json:"name,omitempty"`
	Nodes      []int           `json:"nodes,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Node is one transform node in the scene hierarchy.
type Node struct {
	Name        string          `json:"name,omitempty"`
	Children    []int           `json:"children,omitempty"`
	Mesh        *int            `json:"mesh,omitempty"`
	Skin        *int            `json:"skin,omitempty"`
	Camera      *int            `json:"camera,omitempty"`
	Matrix      *[16]float32    `json:"matrix,omitempty"`
	Translation *[3]float32     `json:"translation,omitempty"`
	Rotation    *[4]float32     `json:"rotation,omitempty"`
	Scale       *[3]float32     `json:"scale,omitempty"`
	Weights     []float32       `json:"weights,omitempty"`
	Extensions  json.RawMessage `json:"extensions,omitempty"`
	Extras      json.RawMessage `json:"extras,omitempty"`
}

// Mesh is a named set of primitives.
type Mesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []Primitive     `json:"primitives"`
	Weights    []float32       `json:"weights,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Primitive is one renderable piece of a mesh. Attributes maps semantics
// (POSITION, NORMAL, TEXCOORD_0, JOINTS_0, ...) to accessor indices.
type Primitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
	Extensions json.RawMessage  `json:"extensions,omitempty"`
	Extras     json.RawMessage  `json:"extras,omitempty"`
}

// Accessor describes how to interpret a region of buffer data.
// An accessor with no BufferView reads as all zeros per the format spec.
type Accessor struct {
	Name          string          `json:"name,omitempty"`
	BufferView    *int            `json:"bufferView,omitempty"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Normalized    bool            `json:"normalized,omitempty"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Min           []float64       `json:"min,omitempty"`
	Max           []float64       `json:"max,omitempty"`
	Sparse        json.RawMessage `json:"sparse,omitempty"`
	Extensions    json.RawMessage `json:"extensions,omitempty"`
	Extras        json.RawMessage `json:"extras,omitempty"`
}

// Accessor component types used here.
const (
	ComponentFloat = 5126
)

// BufferView is a slice of a buffer.
type BufferView struct {
	Buffer     int             `json:"buffer"`
	ByteOffset int             `json:"byteOffset,omitempty"`
	ByteLength int             `json:"byteLength"`
	ByteStride *int            `json:"byteStride,omitempty"`
	Target     *int            `json:"target,omitempty"`
	Name       string          `json:"name,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Buffer is a raw data container. The first buffer with no URI is the
// embedded BIN chunk.
type Buffer struct {
	URI        string          `json:"uri,omitempty"`
	ByteLength int             `json:"byteLength"`
	Name       string          `json:"name,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Skin binds a set of joint nodes to a mesh. A skin without an
// inverseBindMatrices accessor uses identity matrices.
type Skin struct {
	Name                string          `json:"name,omitempty"`
	InverseBindMatrices *int            `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int            `json:"skeleton,omitempty"`
	Joints              []int           `json:"joints"`
	Extensions          json.RawMessage `json:"extensions,omitempty"`
	Extras              json.RawMessage `json:"extras,omitempty"`
}

// HasSkeleton reports whether the document already carries a skin or any
// node referencing one.
func (d *Document) HasSkeleton() bool {
	if len(d.Skins) > 0 {
		return true
	}
	for i := range d.Nodes {
		if d.Nodes[i].Skin != nil {
			return true
		}
	}
	return false
}

// NodeByName returns the first node with the given name, or nil.
func (d *Document) NodeByName(name string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return &d.Nodes[i]
		}
	}
	return nil
}
