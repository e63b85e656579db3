// Package match implements descriptor-level fingerprint comparison: a
// k=2 nearest-neighbor ratio test (Lowe's ratio test) scores how many
// probe descriptors find a confident, unambiguous correspondence in a
// template's descriptors, then converts that score into an accept/reject
// decision using population-scaled thresholds.
package match

import (
	"math"
	"sort"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/models"
)

// Matcher evaluates a probe FeatureSet against a single template
// FeatureSet. It is stateless and safe for concurrent use.
type Matcher struct {
	cfg config.MatcherConfig
}

func NewMatcher(cfg config.MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Result is the outcome of comparing one probe against one template.
type Result struct {
	Matched       bool
	Reason        string
	Score         int
	Confidence    float64
	Threshold     int
	RequiredScore int
	RequiredConf  float64
	MinKeypoints  int
	IsPrecomputed bool
}

// Evaluate scores probe against template and applies the four-gate
// accept/reject policy: score must clear the absolute floor, the
// population-scaled threshold, the required-score margin over that
// threshold, and finally the confidence bar — in that order, each with its
// own reason code.
//
// strict disables the precomputed-template leniency entirely (used for
// identify_employee's per-template dispatch, where every candidate is
// judged on equal footing). When strict is false, the leniency — a lower
// absolute floor, a trimmed threshold, and a smaller required-score margin
// — applies only if tmpl.IsPrecomputed; a freshly-extracted template
// compared non-strictly still gets the full strict gates, since the
// leniency exists to forgive precomputed templates' feature drift, not to
// loosen matching generally.
//
// thresholdOverride, when non-nil, replaces the computed population-scaled
// threshold before the required-score margin and leniency are derived from
// it — the caller-supplied override named threshold_override in the API.
func (m *Matcher) Evaluate(probe, tmpl *models.FeatureSet, strict bool, thresholdOverride *int) Result {
	minKP := probe.Count()
	if tmpl.Count() < minKP {
		minKP = tmpl.Count()
	}

	if probe.Count() < m.cfg.MinKeypoints && probe.Count() < m.cfg.MinKeypointsWarn {
		return Result{Reason: ReasonProbeLowQuality, MinKeypoints: minKP}
	}

	score := ratioTestScore(probe.Descriptors, tmpl.Descriptors, m.cfg.Ratio)

	threshold := m.cfg.MinBase
	if scaled := int(math.Floor(float64(minKP) * m.cfg.MinPercent)); scaled > threshold {
		threshold = scaled
	}
	if thresholdOverride != nil {
		threshold = *thresholdOverride
	}

	requiredConf := m.cfg.ConfMin
	if minKP >= m.cfg.HighConfKeypoints {
		requiredConf = m.cfg.ConfHigh
	}

	lenient := !strict && tmpl.IsPrecomputed

	absMin := m.cfg.AbsMinScore
	if lenient {
		if threshold > m.cfg.PrecomputedThresholdSlack {
			threshold -= m.cfg.PrecomputedThresholdSlack
		}
		if threshold < m.cfg.PrecomputedFloor {
			threshold = m.cfg.PrecomputedFloor
		}
		absMin = m.cfg.PrecomputedFloor
	}

	margin := m.cfg.MarginBase
	if scaled := int(math.Round(float64(threshold) * m.cfg.MarginPercent)); scaled > margin {
		margin = scaled
	}
	requiredScore := threshold + margin
	if lenient {
		requiredScore = threshold + m.cfg.PrecomputedRequiredSlack
	}

	confidence := math.Min(100, float64(score)/float64(threshold)*100)

	res := Result{
		Score:         score,
		Confidence:    confidence,
		Threshold:     threshold,
		RequiredScore: requiredScore,
		RequiredConf:  requiredConf,
		MinKeypoints:  minKP,
		IsPrecomputed: tmpl.IsPrecomputed,
	}

	if score < absMin {
		res.Reason = ReasonScoreBelowAbsMin
		return res
	}
	if score < threshold {
		res.Reason = ReasonScoreBelowThreshold
		return res
	}
	if score < requiredScore {
		res.Reason = ReasonInsufficientMargin
		return res
	}
	if confidence < requiredConf {
		res.Reason = ReasonConfidenceLow
		return res
	}

	res.Matched = true
	res.Reason = ReasonMatch
	return res
}

// ratioTestScore counts probe descriptors whose nearest template
// descriptor beats its second-nearest by at least the configured ratio.
func ratioTestScore(probe, tmpl []models.Descriptor, ratio float64) int {
	if len(tmpl) < 2 {
		return 0
	}

	score := 0
	for _, p := range probe {
		best, second := math.MaxFloat64, math.MaxFloat64
		for _, t := range tmpl {
			d := l2Distance(p, t)
			if d < best {
				second = best
				best = d
			} else if d < second {
				second = d
			}
		}
		if second == 0 {
			continue
		}
		if best/second < ratio {
			score++
		}
	}
	return score
}

func l2Distance(a, b models.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// RankByScore sorts results descending by score, stable for ties.
func RankByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
