package index

import (
	"context"
	"errors"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/fingerprint-id/engine/internal/match"
	"github.com/fingerprint-id/engine/internal/models"
)

// VerifyResult is the outcome of a single probe-vs-template comparison.
type VerifyResult struct {
	match.Result
	TemplateIndex int
}

// MatchImage conditions and extracts a probe image, decodes a single
// stored template, and evaluates them against each other with the
// non-strict (precomputed-template leniency) policy — the template is
// presumed already clean, having survived its own enrollment-time
// extraction.
func (idx *Index) MatchImage(probeRaw, templateRaw string, thresholdOverride *int) (VerifyResult, error) {
	probe, err := idx.extractProbe(probeRaw, false)
	if err != nil {
		return VerifyResult{Result: match.Result{Reason: match.NormalizeReason(err)}}, nil
	}

	tmpl, err := idx.decodeCache.DecodeCached(templateRaw)
	if err != nil {
		return VerifyResult{Result: match.Result{Reason: match.ReasonTemplateLowQuality}}, nil
	}

	return VerifyResult{Result: idx.matcher.Evaluate(probe, tmpl, false, thresholdOverride)}, nil
}

// TestTemplate evaluates a raw probe image against a raw probe template
// (rather than a stored one), used to validate round-trip fidelity and
// self-consistency during enrollment tooling. It uses the strict policy
// since neither side is a trusted, already-enrolled template.
func (idx *Index) TestTemplate(probeRaw, probeTemplateRaw string) (VerifyResult, error) {
	probe, err := idx.extractProbe(probeRaw, false)
	if err != nil {
		return VerifyResult{Result: match.Result{Reason: match.NormalizeReason(err)}}, nil
	}

	tmpl, err := idx.decodeCache.DecodeCached(probeTemplateRaw)
	if err != nil {
		return VerifyResult{Result: match.Result{Reason: match.ReasonTemplateLowQuality}}, nil
	}

	return VerifyResult{Result: idx.matcher.Evaluate(probe, tmpl, true, nil)}, nil
}

// MatchTemplatesResult is the outcome of a multi-template voting call.
type MatchTemplatesResult struct {
	Matched bool
	Reason  string
	Best    VerifyResult
	Votes   []VerifyResult
}

// earlyExitConfidenceBonus is added to FP_CONF_HIGH to get the confidence
// bar a worker's result must clear to trigger cancellation of the
// remaining, still-pending workers.
const earlyExitConfidenceBonus = 15

// MatchTemplates conditions and extracts a probe once, then dispatches it
// against every supplied stored template in parallel across a fixed-size
// worker pool, applying the single-template margin rule when only one
// template is supplied and the tiered secondary-support corroboration
// policy when more than one is.
//
// Cancellation is cooperative and checked only at worker-function entry:
// once a worker starts evaluating a template it always finishes. A worker
// that completes with an accepted, very-high-confidence result cancels the
// remaining pending workers — but only when at least three templates were
// submitted. With exactly two templates this optimization is intentionally
// disabled, since the secondary-support check below requires both results.
func (idx *Index) MatchTemplates(probeRaw string, templatesRaw []string, thresholdOverride *int) (MatchTemplatesResult, error) {
	probe, err := idx.extractProbe(probeRaw, false)
	if err != nil {
		return MatchTemplatesResult{Reason: match.NormalizeReason(err)}, nil
	}

	if len(templatesRaw) == 0 {
		return MatchTemplatesResult{Reason: match.ReasonEmptyTemplate}, nil
	}

	votes, evaluated := idx.dispatchTemplateVotes(probe, templatesRaw, thresholdOverride)
	if evaluated == 0 {
		return MatchTemplatesResult{Reason: match.ReasonNoTemplatesEvaluated, Votes: votes}, nil
	}

	best := nominalBest(votes)

	if !best.Matched {
		return MatchTemplatesResult{Reason: best.Reason, Best: best, Votes: votes}, nil
	}

	if len(templatesRaw) == 1 {
		minMargin := idx.matcherCfg.SingleTemplateMarginMin
		if scaled := int(math.Round(float64(best.RequiredScore) * idx.matcherCfg.SingleTemplateMarginRatio)); scaled > minMargin {
			minMargin = scaled
		}
		if best.Score-best.RequiredScore < minMargin {
			return MatchTemplatesResult{Reason: match.ReasonSingleTemplateMargin, Best: best, Votes: votes}, nil
		}
		return MatchTemplatesResult{Matched: true, Reason: match.ReasonMatch, Best: best, Votes: votes}, nil
	}

	if evaluated < 2 {
		// Early exit (three or more templates) cancelled dispatch after
		// only the best had been evaluated: no secondary result exists to
		// corroborate it. A partial set with at least one secondary goes
		// on to the secondary-support check below with the current best.
		return MatchTemplatesResult{Reason: match.ReasonNoTemplatesEvaluated, Best: best, Votes: votes}, nil
	}

	if !idx.hasSecondarySupport(best, votes) {
		return MatchTemplatesResult{Reason: match.ReasonSecondaryTemplateRequired, Best: best, Votes: votes}, nil
	}

	return MatchTemplatesResult{Matched: true, Reason: match.ReasonMatch, Best: best, Votes: votes}, nil
}

// dispatchTemplateVotes decodes and evaluates each template against the
// probe in parallel, in input order, returning results reassembled into
// that same order and the count of templates actually evaluated (fewer
// than len(templatesRaw) only if early exit cancelled the rest).
func (idx *Index) dispatchTemplateVotes(probe *models.FeatureSet, templatesRaw []string, thresholdOverride *int) ([]VerifyResult, int) {
	n := len(templatesRaw)
	results := make([]VerifyResult, n)
	evaluated := make([]bool, n)

	earlyExitEligible := n >= 3
	confBar := idx.matcherCfg.ConfHigh + earlyExitConfidenceBonus

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workerCfg.MaxWorkers)

	for i, raw := range templatesRaw {
		i, raw := i, raw
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			tmpl, err := idx.decodeCache.DecodeCached(raw)
			if err != nil {
				results[i] = VerifyResult{Result: match.Result{Reason: match.ReasonTemplateLowQuality}, TemplateIndex: i}
				evaluated[i] = true
				return nil
			}

			r := idx.matcher.Evaluate(probe, tmpl, false, thresholdOverride)
			results[i] = VerifyResult{Result: r, TemplateIndex: i}
			evaluated[i] = true

			if earlyExitEligible && r.Matched && r.Confidence >= confBar {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]VerifyResult, 0, n)
	count := 0
	for i := range results {
		if evaluated[i] {
			out = append(out, results[i])
			count++
		}
	}
	return out, count
}

// nominalBest selects the "best" vote per the corroboration policy:
// accepted beats unaccepted outright, and only among votes of equal
// acceptance status are ties broken by score.
func nominalBest(votes []VerifyResult) VerifyResult {
	best := votes[0]
	for _, v := range votes[1:] {
		if betterVote(v, best) {
			best = v
		}
	}
	return best
}

func betterVote(candidate, current VerifyResult) bool {
	if candidate.Matched != current.Matched {
		return candidate.Matched
	}
	return candidate.Score > current.Score
}

// hasSecondarySupport implements the tiered secondary-support policy: how
// strong a secondary template's score must be to corroborate the primary
// depends on how strong the primary's own score is, and the primary must
// itself clear its required score by a precomputed-dependent margin.
func (idx *Index) hasSecondarySupport(best VerifyResult, votes []VerifyResult) bool {
	primaryMargin := 5
	if best.IsPrecomputed {
		primaryMargin = 3
	}
	if best.Score-best.RequiredScore < primaryMargin {
		return false
	}

	for _, v := range votes {
		if v.TemplateIndex == best.TemplateIndex {
			continue
		}
		if secondaryCorroborates(best, v) {
			return true
		}
	}
	return false
}

func secondaryCorroborates(best, secondary VerifyResult) bool {
	switch {
	case best.Score >= 70:
		slack := 0.85
		return secondary.Score >= 45 && float64(secondary.Score) >= slack*float64(secondary.Threshold)
	case best.Score >= 60:
		slack := 0.80
		bar := slack * float64(secondary.Threshold)
		if secondary.IsPrecomputed {
			bar -= 2
		}
		return secondary.Score >= 45 && float64(secondary.Score) >= bar
	default:
		return secondary.Matched
	}
}

func (idx *Index) extractProbe(raw string, forceProfessional bool) (*models.FeatureSet, error) {
	cond, err := idx.cond.Condition(raw, forceProfessional)
	if err != nil {
		return nil, err
	}
	probe := idx.detector.Extract(cond.ROI)
	if probe.Count() < idx.matcherCfg.MinKeypointsWarn {
		return nil, errors.New(match.ReasonProbeLowQuality)
	}
	return probe, nil
}
