// Package analyze derives structural facts about a parsed model container:
// vertex totals, bounding extents and a humanoid-likelihood score.
package analyze

import (
	"github.com/avatarforge/autorig/pkg/container"
)

// Signal weights for the geometric humanoid score. They sum to 1 so the
// score stays in [0,1] without any external scoring service.
const (
	weightAspect     = 0.3
	weightVertexBand = 0.25
	weightMultiMesh  = 0.2
	weightAttributes = 0.25

	// Vertex range considered "detailed character" density.
	detailedVertexMin = 1_000
	detailedVertexMax = 500_000
)

// MeshSummary describes one mesh of the container.
type MeshSummary struct {
	Name           string
	PrimitiveCount int
	VertexCount    int
}

// BoundingBox is an axis-aligned extent in model space.
type BoundingBox struct {
	Min [3]float64
	Max [3]float64
}

// Width, Height and Depth are the box extents along X, Y and Z.
func (b BoundingBox) Width() float64  { return b.Max[0] - b.Min[0] }
func (b BoundingBox) Height() float64 { return b.Max[1] - b.Min[1] }
func (b BoundingBox) Depth() float64  { return b.Max[2] - b.Min[2] }

// AnatomyFlags marks which body regions the model plausibly has.
type AnatomyFlags struct {
	Head  bool
	Torso bool
	Arms  bool
	Legs  bool
}

// Analysis is the read-only structural summary of one container.
// It is derived exactly once per input.
type Analysis struct {
	VertexCount         int
	MeshSummaries       []MeshSummary
	MaterialCount       int
	HasExistingSkeleton bool
	HasAnimations       bool
	Bounds              BoundingBox
	HumanoidConfidence  float64
	Anatomy             AnatomyFlags
}

// Analyze derives an Analysis from a parsed document. Missing attributes
// and accessors contribute zero instead of failing; the analyzer never
// rejects a document the codec accepted.
func Analyze(doc *container.Document) *Analysis {
	a := &Analysis{
		MaterialCount:       len(doc.Materials),
		HasExistingSkeleton: doc.HasSkeleton(),
		HasAnimations:       len(doc.Animations) > 0,
	}

	hasNormals := false
	hasTexCoords := false

	for _, mesh := range doc.Meshes {
		summary := MeshSummary{
			Name:           mesh.Name,
			PrimitiveCount: len(mesh.Primitives),
		}
		for _, prim := range mesh.Primitives {
			summary.VertexCount += positionCount(doc, prim)
			if _, ok := prim.Attributes["NORMAL"]; ok {
				hasNormals = true
			}
			if _, ok := prim.Attributes["TEXCOORD_0"]; ok {
				hasTexCoords = true
			}
		}
		a.VertexCount += summary.VertexCount
		a.MeshSummaries = append(a.MeshSummaries, summary)
	}

	a.Bounds = unionBounds(doc)
	a.HumanoidConfidence = geometricScore(a, hasNormals, hasTexCoords)
	a.Anatomy = deriveAnatomy(a)
	return a
}

// positionCount returns the element count of a primitive's POSITION
// accessor, or 0 when the attribute or accessor is missing or invalid.
func positionCount(doc *container.Document, prim container.Primitive) int {
	idx, ok := prim.Attributes["POSITION"]
	if !ok || idx < 0 || idx >= len(doc.Accessors) {
		return 0
	}
	if n := doc.Accessors[idx].Count; n > 0 {
		return n
	}
	return 0
}

// unionBounds unions all accessor-declared min/max extents. Documents that
// declare none get a unit cube centered at the origin.
func unionBounds(doc *container.Document) BoundingBox {
	box := BoundingBox{}
	found := false

	for _, acc := range doc.Accessors {
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		if !found {
			copy(box.Min[:], acc.Min[:3])
			copy(box.Max[:], acc.Max[:3])
			found = true
			continue
		}
		for i := 0; i < 3; i++ {
			if acc.Min[i] < box.Min[i] {
				box.Min[i] = acc.Min[i]
			}
			if acc.Max[i] > box.Max[i] {
				box.Max[i] = acc.Max[i]
			}
		}
	}

	if !found {
		return BoundingBox{
			Min: [3]float64{-0.5, -0.5, -0.5},
			Max: [3]float64{0.5, 0.5, 0.5},
		}
	}
	return box
}

// geometricScore sums four independent signals, each with a fixed weight.
// It is always computed locally so the pipeline output shape never depends
// on classifier availability.
func geometricScore(a *Analysis, hasNormals, hasTexCoords bool) float64 {
	score := 0.0

	if aspect := heightToWidth(a.Bounds); aspect >= 1.2 && aspect <= 4.0 {
		score += weightAspect
	}
	if a.VertexCount >= detailedVertexMin && a.VertexCount <= detailedVertexMax {
		score += weightVertexBand
	}
	if len(a.MeshSummaries) >= 2 {
		score += weightMultiMesh
	}
	if hasNormals && hasTexCoords {
		score += weightAttributes
	}
	return score
}

// heightToWidth returns the vertical aspect ratio, using the larger of
// width and depth as the horizontal extent.
func heightToWidth(b BoundingBox) float64 {
	horizontal := b.Width()
	if b.Depth() > horizontal {
		horizontal = b.Depth()
	}
	if horizontal <= 0 {
		return 0
	}
	return b.Height() / horizontal
}

// deriveAnatomy maps bounding proportions and mesh layout onto coarse body
// region flags. The synthesizers use these to gate bone chains.
func deriveAnatomy(a *Analysis) AnatomyFlags {
	if a.VertexCount == 0 {
		return AnatomyFlags{}
	}
	aspect := heightToWidth(a.Bounds)
	return AnatomyFlags{
		// Taller-than-wide models get a head and legs; wide models are
		// treated as props and receive only a torso.
		Head:  aspect >= 1.2,
		Torso: true,
		Arms:  a.Bounds.Width() >= 0.25*a.Bounds.Height(),
		Legs:  aspect >= 1.2,
	}
}
