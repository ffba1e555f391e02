package rig

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/avatarforge/autorig/pkg/analyze"
)

// MorphCategory classifies a deformation target.
type MorphCategory int

const (
	MorphFacial MorphCategory = iota
	MorphBody
	MorphCorrective
)

// String returns a human-readable category name.
func (c MorphCategory) String() string {
	switch c {
	case MorphFacial:
		return "facial"
	case MorphBody:
		return "body"
	case MorphCorrective:
		return "corrective"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// MorphTarget is a named set of per-vertex position offsets. VertexDeltas
// always has exactly the analyzed vertex count, and delta magnitudes stay
// bounded so procedurally generated targets remain plausible.
type MorphTarget struct {
	Name         string
	Category     MorphCategory
	VertexDeltas [][3]float32
	Weight       float32
}

// Budget shares per category. Facial expressions take the largest slice,
// then body correction, then generic corrective fill.
const (
	facialShare = 0.6
	bodyShare   = 0.25

	// maxDeltaFraction bounds a single delta component relative to the
	// model's height.
	maxDeltaFraction = 0.02
)

var facialMorphNames = []string{
	"smile", "frown", "blink.L", "blink.R", "brow_up", "brow_down",
	"jaw_open", "mouth_wide", "mouth_narrow", "cheek_puff",
	"eye_wide.L", "eye_wide.R", "squint.L", "squint.R", "pout",
}

var bodyMorphNames = []string{
	"chest_expand", "waist_slim", "shoulder_broad", "hip_wide",
	"muscle_tone", "belly", "posture_straight",
}

// SynthesizeMorphs produces exactly budget.MorphCount targets in priority
// order: facial first, then body, then corrective fill. Deltas come from a
// generator seeded on the analysis and budget, so identical inputs always
// yield identical targets.
func SynthesizeMorphs(a *analyze.Analysis, budget OptimizedBudget) []MorphTarget {
	total := budget.MorphCount
	if total <= 0 {
		return nil
	}

	facialCount := int(float64(total) * facialShare)
	bodyCount := int(float64(total) * bodyShare)
	if facialCount == 0 && total > 0 {
		facialCount = min(total, 1)
	}
	correctiveCount := total - facialCount - bodyCount

	maxDelta := float32(a.Bounds.Height()) * maxDeltaFraction
	if maxDelta <= 0 {
		maxDelta = maxDeltaFraction
	}

	targets := make([]MorphTarget, 0, total)
	targets = appendMorphs(targets, a, MorphFacial, facialMorphNames, facialCount, maxDelta)
	targets = appendMorphs(targets, a, MorphBody, bodyMorphNames, bodyCount, maxDelta)
	targets = appendMorphs(targets, a, MorphCorrective, nil, correctiveCount, maxDelta)
	return targets
}

// appendMorphs emits count targets of one category, cycling through the
// name table with numeric suffixes once it runs out.
func appendMorphs(targets []MorphTarget, a *analyze.Analysis, cat MorphCategory, names []string, count int, maxDelta float32) []MorphTarget {
	for i := 0; i < count; i++ {
		var name string
		switch {
		case i < len(names):
			name = names[i]
		case len(names) > 0:
			name = fmt.Sprintf("%s.%03d", names[i%len(names)], i/len(names))
		default:
			name = fmt.Sprintf("corrective.%03d", i)
		}
		targets = append(targets, MorphTarget{
			Name:         name,
			Category:     cat,
			VertexDeltas: generateDeltas(a, name, maxDelta),
			Weight:       1,
		})
	}
	return targets
}

// generateDeltas produces a deterministic, bounded displacement field for
// one target, keyed on the analysis shape and the target name.
func generateDeltas(a *analyze.Analysis, name string, maxDelta float32) [][3]float32 {
	deltas := make([][3]float32, a.VertexCount)
	if a.VertexCount == 0 {
		return deltas
	}

	rng := rand.New(rand.NewSource(morphSeed(a, name)))
	for i := range deltas {
		deltas[i] = [3]float32{
			(rng.Float32()*2 - 1) * maxDelta,
			(rng.Float32()*2 - 1) * maxDelta,
			(rng.Float32()*2 - 1) * maxDelta,
		}
	}
	return deltas
}

// morphSeed derives a stable seed from the analysis and target name.
func morphSeed(a *analyze.Analysis, name string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%d/%d", name, a.VertexCount, len(a.MeshSummaries))
	return int64(h.Sum64())
}
