package rig

import (
	"reflect"
	"testing"
)

func TestSynthesizeMorphs_DeltaShape(t *testing.T) {
	// Every target's delta array matches the analyzed vertex count
	// exactly, including the degenerate counts.
	for _, vertices := range []int{0, 1, 50000} {
		a := analysisWithVertices(vertices)
		morphs := SynthesizeMorphs(a, OptimizedBudget{MorphCount: 6})

		if len(morphs) != 6 {
			t.Fatalf("vertices=%d: got %d morphs, want 6", vertices, len(morphs))
		}
		for _, m := range morphs {
			if len(m.VertexDeltas) != vertices {
				t.Errorf("vertices=%d: %q has %d deltas", vertices, m.Name, len(m.VertexDeltas))
			}
		}
	}
}

func TestSynthesizeMorphs_CategoryAllocation(t *testing.T) {
	a := analysisWithVertices(1000)
	morphs := SynthesizeMorphs(a, OptimizedBudget{MorphCount: 20})

	counts := map[MorphCategory]int{}
	for _, m := range morphs {
		counts[m.Category]++
	}

	// 60% facial, 25% body, remainder corrective.
	if counts[MorphFacial] != 12 {
		t.Errorf("facial = %d, want 12", counts[MorphFacial])
	}
	if counts[MorphBody] != 5 {
		t.Errorf("body = %d, want 5", counts[MorphBody])
	}
	if counts[MorphCorrective] != 3 {
		t.Errorf("corrective = %d, want 3", counts[MorphCorrective])
	}

	// Facial targets come first.
	if morphs[0].Category != MorphFacial {
		t.Errorf("first morph is %v, want facial", morphs[0].Category)
	}
}

func TestSynthesizeMorphs_BoundedMagnitudes(t *testing.T) {
	a := analysisWithVertices(500)
	morphs := SynthesizeMorphs(a, OptimizedBudget{MorphCount: 10})

	// Bounds height is 1.7, so no component may exceed 1.7 * 0.02.
	limit := float32(1.7 * maxDeltaFraction)
	for _, m := range morphs {
		for _, d := range m.VertexDeltas {
			for axis, v := range d {
				if v > limit || v < -limit {
					t.Fatalf("%q delta axis %d = %v exceeds bound %v", m.Name, axis, v, limit)
				}
			}
		}
	}
}

func TestSynthesizeMorphs_Deterministic(t *testing.T) {
	a := analysisWithVertices(2000)
	budget := OptimizedBudget{MorphCount: 15}

	first := SynthesizeMorphs(a, budget)
	second := SynthesizeMorphs(a, budget)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different morph targets")
	}
}

func TestSynthesizeMorphs_UniqueNames(t *testing.T) {
	a := analysisWithVertices(100)

	// More morphs than named templates forces suffixed names; all names
	// must remain unique.
	morphs := SynthesizeMorphs(a, OptimizedBudget{MorphCount: 60})
	seen := map[string]bool{}
	for _, m := range morphs {
		if seen[m.Name] {
			t.Errorf("duplicate morph name %q", m.Name)
		}
		seen[m.Name] = true
	}
}

func TestSynthesizeMorphs_ZeroBudget(t *testing.T) {
	a := analysisWithVertices(100)
	if morphs := SynthesizeMorphs(a, OptimizedBudget{MorphCount: 0}); morphs != nil {
		t.Errorf("got %d morphs for zero budget", len(morphs))
	}
}

func TestMorphCategory_String(t *testing.T) {
	tests := []struct {
		cat  MorphCategory
		want string
	}{
		{MorphFacial, "facial"},
		{MorphBody, "body"},
		{MorphCorrective, "corrective"},
		{MorphCategory(9), "unknown(9)"},
	}

	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
