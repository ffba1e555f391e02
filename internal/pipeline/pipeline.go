// Package pipeline runs the auto-rigging computation: parse, analyze,
// optimize, synthesize, embed. One synchronous invocation per container;
// invocations share nothing but the read-only tier table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avatarforge/autorig/internal/classifier"
	"github.com/avatarforge/autorig/internal/tiers"
	"github.com/avatarforge/autorig/pkg/analyze"
	"github.com/avatarforge/autorig/pkg/container"
	"github.com/avatarforge/autorig/pkg/rig"
)

// Statistics summarizes one rigging invocation.
type Statistics struct {
	OriginalSize     int
	RiggedSize       int
	BoneCount        int
	MorphCount       int
	ProcessingTimeMs int64
	Strategy         rig.Strategy
}

// Result is the final artifact returned to the caller, who owns it after
// return. Persistence, progress reporting and quota accounting happen
// upstream.
type Result struct {
	RiggedBytes []byte
	Bones       *rig.Hierarchy
	Morphs      []rig.MorphTarget
	Analysis    *analyze.Analysis
	Statistics  Statistics
}

// Engine wires the pipeline stages together.
type Engine struct {
	tiers        *tiers.Provider
	classifier   *classifier.Client
	ceilingBytes int64
	log          *zap.Logger
}

// New constructs an engine. The classifier may be nil; scoring then uses
// the geometric fallback only.
func New(provider *tiers.Provider, cls *classifier.Client, ceilingBytes int64, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		tiers:        provider,
		classifier:   cls,
		ceilingBytes: ceilingBytes,
		log:          log,
	}
}

// Rig processes one container for one subscription plan.
//
// Only two failures surface to the caller: an unknown plan, and a
// serialization invariant violation. Parse failures degrade to the
// safe-append strategy, classifier failures to the geometric fallback.
func (e *Engine) Rig(ctx context.Context, data []byte, planID string) (*Result, error) {
	start := time.Now()
	log := e.log.With(zap.String("invocation", uuid.NewString()), zap.String("plan", planID))

	// The tier is resolved exactly once and passed through all stages.
	tier, err := e.tiers.Lookup(planID)
	if err != nil {
		return nil, err
	}

	// Only buffers too small for the fixed header fail hard. A header
	// with truncated chunks is a recoverable parse failure and degrades
	// to append embedding below.
	if len(data) < container.HeaderSize {
		return nil, fmt.Errorf("container too small: %d bytes", len(data))
	}

	doc, parseErr := container.Parse(data)
	if parseErr != nil {
		log.Warn("container parse failed, using safe-append embedding", zap.Error(parseErr))
		doc = nil
	}

	analysis := e.analyzeAndClassify(ctx, log, doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	budget := rig.Optimize(analysis, tier, e.ceilingBytes)
	log.Info("budget optimized",
		zap.Int("bones", budget.BoneCount),
		zap.Int("morphs", budget.MorphCount),
		zap.Strings("adjustments", budget.AppliedAdjustments))

	bones := rig.SynthesizeBones(analysis, budget)
	if err := bones.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized hierarchy invalid: %w", err)
	}
	morphs := rig.SynthesizeMorphs(analysis, budget)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy := rig.StrategyStructural
	var rigged []byte
	if doc != nil {
		rigged, err = rig.EmbedStructural(doc, bones, morphs)
		if err != nil {
			return nil, err
		}
		// A rigged container is never smaller than its input. The rewrite
		// emits a compact structural chunk, so inputs padded with
		// whitespace can compact below their original size; those fall
		// through to the append strategy, which always grows the buffer.
		if len(rigged) < len(data) {
			log.Info("structural rewrite would shrink container, using safe-append embedding",
				zap.Int("structural_size", len(rigged)),
				zap.Int("original_size", len(data)))
			rigged = nil
		}
	}
	if rigged == nil {
		strategy = rig.StrategyAppend
		rigged, err = rig.EmbedAppend(data, bones, morphs)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		RiggedBytes: rigged,
		Bones:       bones,
		Morphs:      morphs,
		Analysis:    analysis,
		Statistics: Statistics{
			OriginalSize:     len(data),
			RiggedSize:       len(rigged),
			BoneCount:        len(bones.Bones),
			MorphCount:       len(morphs),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Strategy:         strategy,
		},
	}
	log.Info("rigging complete",
		zap.Int("original_size", result.Statistics.OriginalSize),
		zap.Int("rigged_size", result.Statistics.RiggedSize),
		zap.String("strategy", string(strategy)),
		zap.Int64("elapsed_ms", result.Statistics.ProcessingTimeMs))
	return result, nil
}

// analyzeAndClassify runs the structural analysis and the classifier call
// concurrently and joins both before returning. The geometric score is
// always computed; a confident external classification can only raise it.
func (e *Engine) analyzeAndClassify(ctx context.Context, log *zap.Logger, doc *container.Document) *analyze.Analysis {
	if doc == nil {
		// Nothing to analyze: a minimal analysis keeps downstream stages
		// uniform. Morph targets then carry zero deltas.
		return analyze.Analyze(&container.Document{})
	}

	if e.classifier == nil {
		return analyze.Analyze(doc)
	}

	// The classifier call and the structural analysis are independent;
	// they run concurrently and join here before the optimizer.
	type scored struct {
		result classifier.Result
		err    error
	}
	ch := make(chan scored, 1)
	go func() {
		result, err := e.classifier.Score(ctx, classifier.Describe(doc))
		ch <- scored{result, err}
	}()

	analysis := analyze.Analyze(doc)

	s := <-ch
	if s.err != nil {
		log.Debug("classifier unavailable, keeping geometric score", zap.Error(s.err))
		return analysis
	}

	// The external signal may only confirm, never weaken, the local one.
	if s.result.Label == "humanoid" && s.result.Confidence > analysis.HumanoidConfidence {
		analysis.HumanoidConfidence = s.result.Confidence
	}
	return analysis
}
