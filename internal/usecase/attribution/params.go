package attribution

import (
	"fmt"

	"github.com/johnquangdev/speaker-attribution/pkg/config"
)

// Params holds every behavioral threshold used by the engine.
// DefaultParams returns the values the attribution heuristics were tuned with.
type Params struct {
	// Normalizer
	AutomatedPhraseCutoffMs   int64
	StartupNoiseWindowMs      int64
	StartupNoiseMaxDurationMs int64
	StartupNoiseMaxTextLen    int
	ShortWordMaxLen           int
	ShortWordMaxDurationMs    int64
	DuplicateMaxGapMs         int64
	DuplicateMinSimilarity    float64
	DuplicateLengthRatio      float64

	// Mention scoring
	ImmediateWeight         float64
	NearWeightEqual         float64
	NearWeightOverSegmented float64
	NearWindow              int
	AssignThreshold         float64
	NicknameMinLen          int

	// Over-segmentation classification
	RealMinPercentage       float64
	RealMinUtterances       int
	GroupedMinUtterances    int
	TopMaxCumulativePercent float64
	TopMinPercentage        float64
	GroupedSpanRatio        float64
	GroupedMaxGapMs         int64

	// Timeline correlation
	TimelineWindowMs int64
	TimelineMinScore float64
}

// DefaultParams returns the default thresholds.
func DefaultParams() Params {
	return Params{
		AutomatedPhraseCutoffMs:   30_000,
		StartupNoiseWindowMs:      15_000,
		StartupNoiseMaxDurationMs: 1_000,
		StartupNoiseMaxTextLen:    15,
		ShortWordMaxLen:           5,
		ShortWordMaxDurationMs:    500,
		DuplicateMaxGapMs:         10_000,
		DuplicateMinSimilarity:    0.75,
		DuplicateLengthRatio:      1.2,

		ImmediateWeight:         10,
		NearWeightEqual:         1,
		NearWeightOverSegmented: 2,
		NearWindow:              4,
		AssignThreshold:         5,
		NicknameMinLen:          3,

		RealMinPercentage:       15,
		RealMinUtterances:       10,
		GroupedMinUtterances:    5,
		TopMaxCumulativePercent: 85,
		TopMinPercentage:        10,
		GroupedSpanRatio:        0.3,
		GroupedMaxGapMs:         60_000,

		TimelineWindowMs: 10_000,
		TimelineMinScore: 0.1,
	}
}

// ParamsFromConfig builds engine params from the environment-backed configuration.
func ParamsFromConfig(cfg config.AttributionConfig) Params {
	return Params{
		AutomatedPhraseCutoffMs:   cfg.AutomatedPhraseCutoffMs,
		StartupNoiseWindowMs:      cfg.StartupNoiseWindowMs,
		StartupNoiseMaxDurationMs: cfg.StartupNoiseMaxDurationMs,
		StartupNoiseMaxTextLen:    cfg.StartupNoiseMaxTextLen,
		ShortWordMaxLen:           cfg.ShortWordMaxLen,
		ShortWordMaxDurationMs:    cfg.ShortWordMaxDurationMs,
		DuplicateMaxGapMs:         cfg.DuplicateMaxGapMs,
		DuplicateMinSimilarity:    cfg.DuplicateMinSimilarity,
		DuplicateLengthRatio:      cfg.DuplicateLengthRatio,
		ImmediateWeight:           cfg.ImmediateWeight,
		NearWeightEqual:           cfg.NearWeightEqual,
		NearWeightOverSegmented:   cfg.NearWeightOverSegmented,
		NearWindow:                cfg.NearWindow,
		AssignThreshold:           cfg.AssignThreshold,
		NicknameMinLen:            cfg.NicknameMinLen,
		RealMinPercentage:         cfg.RealMinPercentage,
		RealMinUtterances:         cfg.RealMinUtterances,
		GroupedMinUtterances:      cfg.GroupedMinUtterances,
		TopMaxCumulativePercent:   cfg.TopMaxCumulativePercent,
		TopMinPercentage:          cfg.TopMinPercentage,
		GroupedSpanRatio:          cfg.GroupedSpanRatio,
		GroupedMaxGapMs:           cfg.GroupedMaxGapMs,
		TimelineWindowMs:          cfg.TimelineWindowMs,
		TimelineMinScore:          cfg.TimelineMinScore,
	}
}

// Validate rejects parameter sets the engine cannot run with.
func (p Params) Validate() error {
	if p.DuplicateMinSimilarity < 0 || p.DuplicateMinSimilarity > 1 {
		return fmt.Errorf("%w: duplicate similarity must be within [0,1], got %v", ErrInvalidParams, p.DuplicateMinSimilarity)
	}
	if p.NearWindow < 1 {
		return fmt.Errorf("%w: near window must be at least 1, got %d", ErrInvalidParams, p.NearWindow)
	}
	if p.AssignThreshold <= 0 {
		return fmt.Errorf("%w: assign threshold must be positive, got %v", ErrInvalidParams, p.AssignThreshold)
	}
	if p.TimelineWindowMs <= 0 {
		return fmt.Errorf("%w: timeline window must be positive, got %d", ErrInvalidParams, p.TimelineWindowMs)
	}
	if p.GroupedSpanRatio < 0 {
		return fmt.Errorf("%w: grouped span ratio must not be negative", ErrInvalidParams)
	}
	return nil
}
