// Package rig synthesizes bone hierarchies and morph targets sized to a
// subscription tier's resource budget and embeds them into a container.
package rig

import (
	"errors"

	"github.com/avatarforge/autorig/pkg/analyze"
)

// ErrBudgetNotFound is returned by tier providers for unknown plans. The
// engine fails the whole operation rather than inventing a default budget.
var ErrBudgetNotFound = errors.New("no budget for subscription plan")

// TierBudget is the upper bound a subscription plan permits. It is
// resolved once per invocation and passed explicitly through all stages.
type TierBudget struct {
	MaxBones        int `yaml:"max_bones"`
	MaxMorphTargets int `yaml:"max_morph_targets"`
	MaxFileSizeMB   int `yaml:"max_file_size_mb"`
}

// OptimizedBudget is the concrete bone/morph allocation that fits the
// tier's byte envelope for a given vertex count.
type OptimizedBudget struct {
	BoneCount          int
	MorphCount         int
	AppliedAdjustments []string
}

// Size-model constants. A morph target stores three 32-bit floats per
// vertex; a bone's serialized payload (transforms, inverse bind data,
// metadata) is a fixed size.
const (
	bytesPerVertexDelta = 12
	bonePayloadBytes    = 192
	overheadBytes       = 64 * 1024

	mib = 1024 * 1024

	// Floors truncation never crosses: enough morphs for basic
	// expressions and enough bones for a minimal humanoid skeleton.
	minMorphTargets = 5
	minBones        = 9

	// Headroom threshold under which morphs may grow back toward the
	// tier's nominal maximum.
	growThreshold = 0.8

	// targetUtilization reserves part of the tier envelope for container
	// structure and metadata; the rig itself only gets this share.
	targetUtilization = 0.9

	// DefaultAbsoluteCeilingBytes is the tier-independent hard cap on
	// projected rig size. Configurable because future premium tiers may
	// legitimately exceed it.
	DefaultAbsoluteCeilingBytes = 100 * mib
)

// ProjectedSize models the serialized rig size for a given allocation.
func ProjectedSize(vertexCount, boneCount, morphCount int) int64 {
	morphBytes := int64(morphCount) * int64(vertexCount) * bytesPerVertexDelta
	boneBytes := int64(boneCount) * bonePayloadBytes
	return morphBytes + boneBytes + overheadBytes
}

// Optimize converts a tier's nominal limits into concrete counts that fit
// the tier's byte envelope and the absolute ceiling. It is deterministic:
// identical inputs always produce identical output. Every adjustment is
// recorded by name for observability.
//
// Pass ceilingBytes <= 0 to use DefaultAbsoluteCeilingBytes.
func Optimize(a *analyze.Analysis, tier TierBudget, ceilingBytes int64) OptimizedBudget {
	if ceilingBytes <= 0 {
		ceilingBytes = DefaultAbsoluteCeilingBytes
	}

	out := OptimizedBudget{
		BoneCount:          tier.MaxBones,
		MorphCount:         tier.MaxMorphTargets,
		AppliedAdjustments: []string{},
	}
	target := int64(float64(tier.MaxFileSizeMB) * mib * targetUtilization)
	vertices := a.VertexCount

	// Morphs dominate size at high vertex counts, so they shrink first.
	if ProjectedSize(vertices, out.BoneCount, out.MorphCount) > target {
		out.MorphCount = morphsThatFit(vertices, out.BoneCount, target, out.MorphCount)
		if out.MorphCount < minMorphTargets {
			out.MorphCount = minMorphTargets
		}
		out.AppliedAdjustments = append(out.AppliedAdjustments, "reduce_morphs")
	}

	// Bones shrink proportionally to the remaining overage.
	if projected := ProjectedSize(vertices, out.BoneCount, out.MorphCount); projected > target {
		scaled := int(int64(out.BoneCount) * target / projected)
		if scaled < minBones {
			scaled = minBones
		}
		if scaled < out.BoneCount {
			out.BoneCount = scaled
			out.AppliedAdjustments = append(out.AppliedAdjustments, "reduce_bones")
		}
	}

	// Comfortable headroom lets morphs grow back, never past the tier max.
	if projected := ProjectedSize(vertices, out.BoneCount, out.MorphCount); projected < int64(float64(target)*growThreshold) &&
		out.MorphCount < tier.MaxMorphTargets {
		grown := morphsThatFit(vertices, out.BoneCount, target, tier.MaxMorphTargets)
		if grown > out.MorphCount {
			out.MorphCount = grown
			out.AppliedAdjustments = append(out.AppliedAdjustments, "grow_morphs")
		}
	}

	// Tier-independent hard cap: clamp both counts by the same scale
	// factor, below the usual floors if the ceiling demands it.
	if projected := ProjectedSize(vertices, out.BoneCount, out.MorphCount); projected > ceilingBytes {
		out.MorphCount = int(int64(out.MorphCount) * ceilingBytes / projected)
		out.BoneCount = int(int64(out.BoneCount) * ceilingBytes / projected)
		if out.BoneCount < 1 {
			out.BoneCount = 1
		}
		for out.MorphCount > 0 &&
			ProjectedSize(vertices, out.BoneCount, out.MorphCount) > ceilingBytes {
			out.MorphCount--
		}
		for out.BoneCount > 1 &&
			ProjectedSize(vertices, out.BoneCount, out.MorphCount) > ceilingBytes {
			out.BoneCount--
		}
		out.AppliedAdjustments = append(out.AppliedAdjustments, "absolute_ceiling")
	}

	return out
}

// morphsThatFit returns the largest morph count, at most limit, whose
// projected size stays within target for the given bone count.
func morphsThatFit(vertexCount, boneCount int, target int64, limit int) int {
	if vertexCount == 0 {
		return limit
	}
	available := target - int64(boneCount)*bonePayloadBytes - overheadBytes
	if available < 0 {
		return 0
	}
	fit := int(available / (int64(vertexCount) * bytesPerVertexDelta))
	if fit > limit {
		fit = limit
	}
	return fit
}
