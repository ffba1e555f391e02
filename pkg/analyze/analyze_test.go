package analyze

import (
	"encoding/json"
	"testing"

	"github.com/avatarforge/autorig/pkg/container"
)

// makeHumanoidDoc builds a document shaped like a detailed two-mesh
// character: tall bounding box, normals and texture coordinates present.
func makeHumanoidDoc(vertices int) *container.Document {
	return &container.Document{
		Asset: container.Asset{Version: "2.0"},
		Accessors: []container.Accessor{
			{
				ComponentType: container.ComponentFloat,
				Count:         vertices,
				Type:          "VEC3",
				Min:           []float64{-0.4, 0, -0.2},
				Max:           []float64{0.4, 1.7, 0.2},
			},
			{ComponentType: container.ComponentFloat, Count: vertices, Type: "VEC3"},
			{ComponentType: container.ComponentFloat, Count: vertices, Type: "VEC2"},
		},
		Meshes: []container.Mesh{
			{
				Name: "body",
				Primitives: []container.Primitive{{
					Attributes: map[string]int{
						"POSITION":   0,
						"NORMAL":     1,
						"TEXCOORD_0": 2,
					},
				}},
			},
			{
				Name: "hair",
				Primitives: []container.Primitive{{
					Attributes: map[string]int{"POSITION": 0},
				}},
			},
		},
		Materials: []json.RawMessage{
			json.RawMessage(`{"name":"skin"}`),
			json.RawMessage(`{"name":"cloth"}`),
		},
	}
}

func TestAnalyze_VertexCount(t *testing.T) {
	tests := []struct {
		name string
		doc  *container.Document
		want int
	}{
		{
			name: "empty document",
			doc:  &container.Document{},
			want: 0,
		},
		{
			name: "two meshes sharing an accessor",
			doc:  makeHumanoidDoc(5000),
			want: 10000,
		},
		{
			name: "missing position attribute contributes zero",
			doc: &container.Document{
				Meshes: []container.Mesh{{
					Primitives: []container.Primitive{{
						Attributes: map[string]int{"NORMAL": 0},
					}},
				}},
				Accessors: []container.Accessor{{Count: 99}},
			},
			want: 0,
		},
		{
			name: "out of range accessor index contributes zero",
			doc: &container.Document{
				Meshes: []container.Mesh{{
					Primitives: []container.Primitive{{
						Attributes: map[string]int{"POSITION": 7},
					}},
				}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.doc).VertexCount; got != tt.want {
				t.Errorf("VertexCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAnalyze_DefaultBounds(t *testing.T) {
	a := Analyze(&container.Document{})

	want := BoundingBox{
		Min: [3]float64{-0.5, -0.5, -0.5},
		Max: [3]float64{0.5, 0.5, 0.5},
	}
	if a.Bounds != want {
		t.Errorf("Bounds = %+v, want unit cube %+v", a.Bounds, want)
	}
}

func TestAnalyze_BoundsUnion(t *testing.T) {
	doc := &container.Document{
		Accessors: []container.Accessor{
			{Min: []float64{-1, 0, -1}, Max: []float64{1, 1, 1}},
			{Min: []float64{-2, -1, 0}, Max: []float64{0, 3, 2}},
		},
	}

	a := Analyze(doc)
	want := BoundingBox{Min: [3]float64{-2, -1, -1}, Max: [3]float64{1, 3, 2}}
	if a.Bounds != want {
		t.Errorf("Bounds = %+v, want %+v", a.Bounds, want)
	}
}

func TestAnalyze_HumanoidConfidence(t *testing.T) {
	// All four signals present: tall aspect, detailed vertex count,
	// multiple meshes, normals + texcoords.
	a := Analyze(makeHumanoidDoc(5000))
	if a.HumanoidConfidence < 0.99 {
		t.Errorf("HumanoidConfidence = %v, want 1.0 for full humanoid", a.HumanoidConfidence)
	}

	// Empty documents score zero signals except none.
	empty := Analyze(&container.Document{})
	if empty.HumanoidConfidence > 0.31 {
		t.Errorf("HumanoidConfidence = %v for empty document", empty.HumanoidConfidence)
	}

	// Score is always within [0,1].
	for _, a := range []*Analysis{a, empty} {
		if a.HumanoidConfidence < 0 || a.HumanoidConfidence > 1 {
			t.Errorf("HumanoidConfidence %v out of [0,1]", a.HumanoidConfidence)
		}
	}
}

func TestAnalyze_AnatomyFlags(t *testing.T) {
	a := Analyze(makeHumanoidDoc(5000))

	if !a.Anatomy.Head || !a.Anatomy.Torso || !a.Anatomy.Arms || !a.Anatomy.Legs {
		t.Errorf("Anatomy = %+v, want all regions for humanoid shape", a.Anatomy)
	}

	// A model with no vertices has no anatomy at all.
	empty := Analyze(&container.Document{})
	if empty.Anatomy != (AnatomyFlags{}) {
		t.Errorf("Anatomy = %+v for empty document, want none", empty.Anatomy)
	}
}

func TestAnalyze_SkeletonAndAnimations(t *testing.T) {
	doc := makeHumanoidDoc(100)
	doc.Skins = []container.Skin{{Joints: []int{0}}}
	doc.Animations = []json.RawMessage{json.RawMessage(`{"name":"idle"}`)}

	a := Analyze(doc)
	if !a.HasExistingSkeleton {
		t.Error("HasExistingSkeleton = false, want true")
	}
	if !a.HasAnimations {
		t.Error("HasAnimations = false, want true")
	}
}

func TestBoundingBox_Extents(t *testing.T) {
	b := BoundingBox{Min: [3]float64{-1, 0, -2}, Max: [3]float64{1, 3, 0}}

	if b.Width() != 2 || b.Height() != 3 || b.Depth() != 2 {
		t.Errorf("extents = %v/%v/%v, want 2/3/2", b.Width(), b.Height(), b.Depth())
	}
}
