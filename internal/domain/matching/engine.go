package matching

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cofound/internal/domain/builder"
	"cofound/internal/domain/opening"
)

type Weights struct {
	Skills       float64
	Compensation float64
	Commitment   float64
	Scenario     float64
	Geography    float64
}

func DefaultWeights() Weights {
	return Weights{Skills: 0.25, Compensation: 0.25, Commitment: 0.20, Scenario: 0.15, Geography: 0.15}
}

var (
	ErrWeightRange     = errors.New("matching weight must be within [0,1]")
	ErrWeightSum       = errors.New("matching weights must sum to 1.0")
	ErrThresholdOrder  = errors.New("tier thresholds must be strictly increasing within (0,1]")
	ErrUnknownTier     = errors.New("unknown recommendation tier")
	weightSumTolerance = 1e-6
)

func (w Weights) Validate() error {
	parts := []float64{w.Skills, w.Compensation, w.Commitment, w.Scenario, w.Geography}
	sum := 0.0
	for _, p := range parts {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return ErrWeightRange
		}
		sum += p
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: got %.6f", ErrWeightSum, sum)
	}
	return nil
}

type Tier string

const (
	TierLow       Tier = "low"
	TierFair      Tier = "fair"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

func (t Tier) rank() int {
	switch t {
	case TierLow:
		return 0
	case TierFair:
		return 1
	case TierGood:
		return 2
	case TierExcellent:
		return 3
	}
	return -1
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

func (t Tier) AtLeast(min Tier) bool {
	return t.rank() >= min.rank()
}

// Thresholds are the lower bounds of the fair, good and excellent tiers.
type Thresholds struct {
	Fair      float64
	Good      float64
	Excellent float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Fair: 0.5, Good: 0.7, Excellent: 0.85}
}

func (t Thresholds) Validate() error {
	if !(t.Fair > 0 && t.Fair < t.Good && t.Good < t.Excellent && t.Excellent <= 1) {
		return ErrThresholdOrder
	}
	return nil
}

func (t Thresholds) TierFor(overall float64) Tier {
	switch {
	case overall >= t.Excellent:
		return TierExcellent
	case overall >= t.Good:
		return TierGood
	case overall >= t.Fair:
		return TierFair
	default:
		return TierLow
	}
}

type Breakdown struct {
	Skills       float64 `json:"skills"`
	Compensation float64 `json:"compensation"`
	Commitment   float64 `json:"commitment"`
	Scenario     float64 `json:"scenario"`
	Geography    float64 `json:"geography"`
}

type Result struct {
	Overall   float64
	Breakdown Breakdown
	Tier      Tier
}

// Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

func NewScorer(w Weights, t Thresholds) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, thresholds: t}, nil
}

func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

func (s *Scorer) Score(o opening.Opening, p builder.Profile) Result {
	b := Breakdown{
		Skills:       skillScore(o.RequiredSkills, p.Skills),
		Compensation: compensationScore(o, p),
		Commitment:   commitmentScore(o.HoursPerWeek, p.HoursPerWeek),
		Scenario:     scenarioScore(o, p),
		Geography:    geographyScore(o.RemotePreference, p.RemotePreference),
	}

	overall := b.Skills*s.weights.Skills +
		b.Compensation*s.weights.Compensation +
		b.Commitment*s.weights.Commitment +
		b.Scenario*s.weights.Scenario +
		b.Geography*s.weights.Geography
	overall = clamp01(overall)

	return Result{Overall: overall, Breakdown: b, Tier: s.thresholds.TierFor(overall)}
}

func skillScore(required, have []string) float64 {
	req := normalizeSet(required)
	if len(req) == 0 {
		return 1
	}
	got := normalizeSet(have)
	hit := 0
	for s := range req {
		if _, ok := got[s]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(req))
}

func compensationScore(o opening.Opening, p builder.Profile) float64 {
	var fit float64
	switch {
	case o.EquityOnly():
		if !p.Accepts(builder.CompEquityOnly) {
			return 0
		}
		fit = 1
	case o.CashOnly():
		switch {
		case p.Accepts(builder.CompCashOnly):
			fit = 1
		case p.Accepts(builder.CompCashHeavy):
			fit = 0.75
		default:
			fit = 0.25
		}
	case o.Equity.Max > 0 && o.Cash.Max > 0:
		if p.Accepts(builder.CompEquityHeavy) || p.Accepts(builder.CompCashHeavy) {
			fit = 1
		} else {
			fit = 0.5
		}
	default:
		// Nothing stated on the opening; neither reward nor exclude.
		return 0.5
	}

	sum, n := 0.0, 0
	if o.Equity.Max > 0 {
		sum += rangeFit(o.Equity, p.DesiredEquity)
		n++
	}
	if o.Cash.Max > 0 {
		sum += rangeFit(o.Cash, p.DesiredCash)
		n++
	}
	if n == 0 {
		return fit
	}
	return clamp01(fit * sum / float64(n))
}

// rangeFit is the share of the desired range covered by [0, offer.Max].
func rangeFit(offer, desired opening.Range) float64 {
	if desired.IsZero() {
		return 1
	}
	width := desired.Max - desired.Min
	if width <= 0 {
		if offer.Max >= desired.Min {
			return 1
		}
		return clamp01(offer.Max / desired.Min)
	}
	overlap := math.Min(offer.Max, desired.Max) - desired.Min
	return clamp01(overlap / width)
}

// commitmentScore is 1 at or above the required hours and falls linearly to 0 at half of them.
func commitmentScore(required, have int) float64 {
	if required <= 0 || have >= required {
		return 1
	}
	ratio := float64(have) / float64(required)
	if ratio <= 0.5 {
		return 0
	}
	return clamp01((ratio - 0.5) / 0.5)
}

func scenarioScore(o opening.Opening, p builder.Profile) float64 {
	need := 1
	switch {
	case o.EquityOnly():
		need = 2
	case o.CashOnly():
		need = 0
	}
	risk := 0.0
	if lvl := p.RiskAppetite.Level(); lvl >= 0 {
		if lvl >= need {
			risk = 1
		} else {
			risk = 1 - float64(need-lvl)/2
		}
	}

	role := 0.0
	if p.InterestedIn(o.RoleType) {
		role = 1
	}
	return clamp01(0.5*risk + 0.5*role)
}

func geographyScore(want, have opening.RemotePreference) float64 {
	if want == have || want == opening.RemoteFlexible || have == opening.RemoteFlexible {
		return 1
	}
	if want == opening.RemoteHybrid || have == opening.RemoteHybrid {
		return 0.5
	}
	return 0
}

func normalizeSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.Join(strings.Fields(it), " "))
		if it == "" {
			continue
		}
		out[it] = struct{}{}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
