package rig

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/avatarforge/autorig/pkg/container"
)

// Strategy identifies how a rig was embedded into the output bytes.
type Strategy string

const (
	// StrategyStructural rewrites the structural chunk in place. Chosen
	// when the container parsed cleanly; textures and materials are
	// preserved exactly because only the structural chunk changes.
	StrategyStructural Strategy = "structural"

	// StrategyAppend leaves the original bytes untouched and appends a
	// self-contained rig block plus a trailing descriptor. The original
	// container stays independently openable.
	StrategyAppend Strategy = "append"
)

// Append-block layout constants. The descriptor trailer is fixed-size so
// a consumer can locate the block by reading from the end of the file.
const (
	appendMagic   = 0x47495241 // "ARIG"
	appendVersion = 1
	trailerSize   = 4 + 4 + 8 + 8
)

// EmbedStructural writes the rig into the parsed document and
// re-serializes it. Bone nodes and a skin are appended to the scene; morph
// target references are added to existing mesh primitives as zero-filled
// accessors, leaving the binary payload byte-for-byte untouched.
func EmbedStructural(doc *container.Document, bones *Hierarchy, morphs []MorphTarget) ([]byte, error) {
	baseNode := len(doc.Nodes)

	for i := range bones.Bones {
		b := &bones.Bones[i]
		pos := b.Position.Array()
		rot := b.Rotation.Array()
		doc.Nodes = append(doc.Nodes, container.Node{
			Name:        b.Name,
			Translation: &pos,
			Rotation:    &rot,
		})
	}
	// Children references are derived from parent links at embed time.
	for i := range bones.Bones {
		if p := bones.Bones[i].ParentID; p != nil {
			parent := &doc.Nodes[baseNode+*p]
			parent.Children = append(parent.Children, baseNode+i)
		}
	}

	joints := make([]int, len(bones.Bones))
	for i := range joints {
		joints[i] = baseNode + i
	}
	skinIndex := len(doc.Skins)
	doc.Skins = append(doc.Skins, container.Skin{
		Name:   "autorig",
		Joints: joints,
	})

	// The skeleton root joins the active scene so consumers traverse it.
	rootNode := baseNode
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, container.Scene{})
	}
	sceneIndex := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		sceneIndex = *doc.Scene
	}
	doc.Scenes[sceneIndex].Nodes = append(doc.Scenes[sceneIndex].Nodes, rootNode)

	// Skinned mesh nodes reference the new skin.
	for i := range doc.Nodes[:baseNode] {
		if doc.Nodes[i].Mesh != nil && doc.Nodes[i].Skin == nil {
			s := skinIndex
			doc.Nodes[i].Skin = &s
		}
	}

	// Morph targets become accessors without buffer views, which the
	// format defines as zero-filled. The displacement data itself travels
	// in the RigResult; embedding here only declares target shape.
	for m := range doc.Meshes {
		mesh := &doc.Meshes[m]
		for p := range mesh.Primitives {
			prim := &mesh.Primitives[p]
			posIdx, ok := prim.Attributes["POSITION"]
			if !ok || posIdx < 0 || posIdx >= len(doc.Accessors) {
				continue
			}
			vertexCount := doc.Accessors[posIdx].Count
			for _, morph := range morphs {
				accIndex := len(doc.Accessors)
				doc.Accessors = append(doc.Accessors, container.Accessor{
					Name:          morph.Name,
					ComponentType: container.ComponentFloat,
					Count:         vertexCount,
					Type:          "VEC3",
				})
				prim.Targets = append(prim.Targets, map[string]int{"POSITION": accIndex})
			}
			if len(morphs) > 0 && len(mesh.Weights) == 0 {
				mesh.Weights = make([]float32, len(morphs))
			}
		}
	}

	return container.Serialize(doc)
}

// EmbedAppend copies the original bytes unmodified and appends a rig data
// block followed by a fixed-size trailing descriptor. The original bytes
// are always a strict prefix of the result.
func EmbedAppend(original []byte, bones *Hierarchy, morphs []MorphTarget) ([]byte, error) {
	block := &bytes.Buffer{}
	if err := writeRigBlock(block, bones, morphs); err != nil {
		return nil, fmt.Errorf("encoding rig block: %w", err)
	}

	out := make([]byte, 0, len(original)+block.Len()+trailerSize)
	out = append(out, original...)
	blockOffset := uint64(len(out))
	out = append(out, block.Bytes()...)

	// Trailer: magic, version, block offset, block length.
	out = binary.LittleEndian.AppendUint32(out, appendMagic)
	out = binary.LittleEndian.AppendUint32(out, appendVersion)
	out = binary.LittleEndian.AppendUint64(out, blockOffset)
	out = binary.LittleEndian.AppendUint64(out, uint64(block.Len()))
	return out, nil
}

// writeRigBlock serializes bone transforms, influence weights and morph
// deltas as a self-contained little-endian block.
func writeRigBlock(buf *bytes.Buffer, bones *Hierarchy, morphs []MorphTarget) error {
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeString := func(s string) {
		writeU32(uint32(len(s)))
		buf.WriteString(s)
	}

	boneCount := 0
	if bones != nil {
		boneCount = len(bones.Bones)
	}
	writeU32(uint32(boneCount))
	for i := 0; i < boneCount; i++ {
		b := &bones.Bones[i]
		writeString(b.Name)
		writeU32(uint32(b.Kind))
		parent := int32(-1)
		if b.ParentID != nil {
			parent = int32(*b.ParentID)
		}
		if err := binary.Write(buf, binary.LittleEndian, parent); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, b.Position.Array()); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, b.Rotation.Array()); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, b.Weight); err != nil {
			return err
		}
	}

	writeU32(uint32(len(morphs)))
	for _, m := range morphs {
		writeString(m.Name)
		writeU32(uint32(m.Category))
		if err := binary.Write(buf, binary.LittleEndian, m.Weight); err != nil {
			return err
		}
		writeU32(uint32(len(m.VertexDeltas)))
		if err := binary.Write(buf, binary.LittleEndian, m.VertexDeltas); err != nil {
			return err
		}
	}
	return nil
}
