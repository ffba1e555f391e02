package rig

import (
	"fmt"

	"github.com/avatarforge/autorig/pkg/analyze"
	vmath "github.com/avatarforge/autorig/pkg/math"
)

// BoneKind classifies a bone's role in the skeleton.
type BoneKind int

const (
	BoneRoot BoneKind = iota
	BoneSpine
	BoneHead
	BoneArm
	BoneLeg
	BoneDetail
)

// String returns a human-readable kind name.
func (k BoneKind) String() string {
	switch k {
	case BoneRoot:
		return "root"
	case BoneSpine:
		return "spine"
	case BoneHead:
		return "head"
	case BoneArm:
		return "arm"
	case BoneLeg:
		return "leg"
	case BoneDetail:
		return "detail"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Bone is one node of a synthesized skeleton. ParentID is nil only for
// the root; every other bone references an already-created bone.
type Bone struct {
	ID       int
	Name     string
	Kind     BoneKind
	Position vmath.Vec3
	Rotation vmath.Quat
	ParentID *int
	Weight   float32
}

// Hierarchy is an ordered bone sequence with dense IDs starting at 0.
// It is built once and never mutated after synthesis completes.
type Hierarchy struct {
	Bones []Bone

	byName map[string]int
}

// Root returns the root bone.
func (h *Hierarchy) Root() *Bone {
	return &h.Bones[0]
}

// ByName returns the bone with the given name, or nil.
func (h *Hierarchy) ByName(name string) *Bone {
	if id, ok := h.byName[name]; ok {
		return &h.Bones[id]
	}
	return nil
}

// Children derives the child IDs of a bone. Child lists are never stored
// separately, so they cannot diverge from parent references.
func (h *Hierarchy) Children(id int) []int {
	var children []int
	for i := range h.Bones {
		if p := h.Bones[i].ParentID; p != nil && *p == id {
			children = append(children, i)
		}
	}
	return children
}

// Validate checks the structural invariants: exactly one root, dense IDs,
// no forward parent references.
func (h *Hierarchy) Validate() error {
	roots := 0
	for i, b := range h.Bones {
		if b.ID != i {
			return fmt.Errorf("bone %q has id %d at index %d", b.Name, b.ID, i)
		}
		if b.ParentID == nil {
			roots++
			continue
		}
		if *b.ParentID < 0 || *b.ParentID >= i {
			return fmt.Errorf("bone %q references parent %d at index %d", b.Name, *b.ParentID, i)
		}
	}
	if roots != 1 {
		return fmt.Errorf("hierarchy has %d roots, want exactly 1", roots)
	}
	return nil
}

// boneSpec is one planned bone: a name, its parent's name, and a resting
// position expressed as fractions of the model's bounding extents.
type boneSpec struct {
	name   string
	parent string
	kind   BoneKind
	pos    vmath.Vec3
	weight float32
}

// SynthesizeBones builds a skeleton honoring the optimized budget and
// detected anatomy. Anatomically essential chains are planned in a fixed
// priority order so a tight budget truncates detail bones first, never
// core ones. Filler detail bones top the skeleton up to exactly
// budget.BoneCount. Deterministic for identical inputs.
func SynthesizeBones(a *analyze.Analysis, budget OptimizedBudget) *Hierarchy {
	specs := planCoreBones(a)
	if len(specs) > budget.BoneCount {
		specs = specs[:budget.BoneCount]
	}
	specs = appendFillerBones(specs, budget.BoneCount)

	h := &Hierarchy{
		Bones:  make([]Bone, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		bone := Bone{
			ID:       len(h.Bones),
			Name:     spec.name,
			Kind:     spec.kind,
			Position: spec.pos,
			Rotation: vmath.QuatIdentity(),
			Weight:   spec.weight,
		}
		if spec.parent != "" {
			// Parents are resolved against already-emitted bones only;
			// a missing parent attaches to the root instead.
			parentID := 0
			if id, ok := h.byName[spec.parent]; ok {
				parentID = id
			}
			bone.ParentID = &parentID
		}
		h.byName[bone.Name] = bone.ID
		h.Bones = append(h.Bones, bone)
	}
	return h
}

// planCoreBones emits the anatomical skeleton in priority order:
// root, spine chain, arms, legs.
func planCoreBones(a *analyze.Analysis) []boneSpec {
	height := float32(a.Bounds.Height())
	if height <= 0 {
		height = 1
	}
	width := float32(a.Bounds.Width())
	if width <= 0 {
		width = 0.5
	}
	baseY := float32(a.Bounds.Min[1])
	at := func(frac float32) vmath.Vec3 {
		return vmath.Vec3{Y: baseY + height*frac}
	}

	specs := []boneSpec{
		{name: "root", kind: BoneRoot, pos: at(0.5), weight: 1},
	}

	specs = append(specs,
		boneSpec{name: "spine", parent: "root", kind: BoneSpine, pos: at(0.55), weight: 1},
		boneSpec{name: "chest", parent: "spine", kind: BoneSpine, pos: at(0.68), weight: 0.9},
	)
	if a.Anatomy.Head {
		specs = append(specs,
			boneSpec{name: "neck", parent: "chest", kind: BoneHead, pos: at(0.82), weight: 0.9},
			boneSpec{name: "head", parent: "neck", kind: BoneHead, pos: at(0.9), weight: 1},
		)
	}
	if a.Anatomy.Arms {
		for _, side := range []struct {
			suffix string
			x      float32
		}{{"L", 1}, {"R", -1}} {
			shoulder := vmath.Vec3{X: side.x * width * 0.2, Y: baseY + height*0.78}
			specs = append(specs,
				boneSpec{name: "shoulder." + side.suffix, parent: "chest", kind: BoneArm, pos: shoulder, weight: 0.8},
				boneSpec{name: "upper_arm." + side.suffix, parent: "shoulder." + side.suffix, kind: BoneArm,
					pos: vmath.Vec3{X: side.x * width * 0.35, Y: baseY + height*0.75}, weight: 0.8},
				boneSpec{name: "lower_arm." + side.suffix, parent: "upper_arm." + side.suffix, kind: BoneArm,
					pos: vmath.Vec3{X: side.x * width * 0.45, Y: baseY + height*0.6}, weight: 0.7},
				boneSpec{name: "hand." + side.suffix, parent: "lower_arm." + side.suffix, kind: BoneArm,
					pos: vmath.Vec3{X: side.x * width * 0.5, Y: baseY + height*0.5}, weight: 0.7},
			)
		}
	}
	if a.Anatomy.Legs {
		for _, side := range []struct {
			suffix string
			x      float32
		}{{"L", 1}, {"R", -1}} {
			specs = append(specs,
				boneSpec{name: "hip." + side.suffix, parent: "root", kind: BoneLeg,
					pos: vmath.Vec3{X: side.x * width * 0.12, Y: baseY + height*0.48}, weight: 0.9},
				boneSpec{name: "upper_leg." + side.suffix, parent: "hip." + side.suffix, kind: BoneLeg,
					pos: vmath.Vec3{X: side.x * width * 0.12, Y: baseY + height*0.42}, weight: 0.8},
				boneSpec{name: "lower_leg." + side.suffix, parent: "upper_leg." + side.suffix, kind: BoneLeg,
					pos: vmath.Vec3{X: side.x * width * 0.12, Y: baseY + height*0.22}, weight: 0.8},
				boneSpec{name: "foot." + side.suffix, parent: "lower_leg." + side.suffix, kind: BoneLeg,
					pos: vmath.Vec3{X: side.x * width * 0.12, Y: baseY + height*0.02}, weight: 0.7},
			)
		}
	}
	return specs
}

// Filler bone name tables, consumed in order once the anatomical chains
// are in place. Fingers attach to hands, facial detail to the head, spine
// subdivisions to the spine.
var fillerBones = []struct {
	name   string
	parent string
}{
	{"thumb.L", "hand.L"}, {"index.L", "hand.L"}, {"middle.L", "hand.L"},
	{"ring.L", "hand.L"}, {"pinky.L", "hand.L"},
	{"thumb.R", "hand.R"}, {"index.R", "hand.R"}, {"middle.R", "hand.R"},
	{"ring.R", "hand.R"}, {"pinky.R", "hand.R"},
	{"eye.L", "head"}, {"eye.R", "head"}, {"jaw", "head"},
	{"spine.001", "spine"}, {"spine.002", "chest"},
}

// appendFillerBones adds detail bones up to exactly target, never past it.
// Once the named table is exhausted it continues with numbered twist
// bones so any budget can be filled deterministically.
func appendFillerBones(specs []boneSpec, target int) []boneSpec {
	for _, f := range fillerBones {
		if len(specs) >= target {
			return specs
		}
		if !hasSpec(specs, f.parent) {
			continue
		}
		specs = append(specs, boneSpec{
			name: f.name, parent: f.parent, kind: BoneDetail,
			pos: vmath.Vec3{}, weight: 0.5,
		})
	}
	for i := 0; len(specs) < target; i++ {
		specs = append(specs, boneSpec{
			name: fmt.Sprintf("twist.%03d", i), parent: "root", kind: BoneDetail,
			pos: vmath.Vec3{}, weight: 0.3,
		})
	}
	return specs
}

func hasSpec(specs []boneSpec, name string) bool {
	for _, s := range specs {
		if s.name == name {
			return true
		}
	}
	return false
}
