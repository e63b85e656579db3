package index

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fingerprint-id/engine/internal/match"
	"github.com/fingerprint-id/engine/internal/models"
)

// CandidateResult is one shortlisted employee's best-template matcher
// outcome, returned as part of an identification response.
type CandidateResult struct {
	EmployeeID string
	Name       string
	match.Result
}

// IdentifyResult is the outcome of a full identify_employee call.
type IdentifyResult struct {
	Matched    bool
	Reason     string
	Winner     *CandidateResult
	Candidates []CandidateResult
}

// Identify runs the full identification pipeline: forced-professional
// conditioning and extraction of the probe, a top-k embedding shortlist,
// strict per-template Matcher dispatch across the shortlist in parallel,
// and multi-layer anti-false-positive gating before accepting a winner.
func (idx *Index) Identify(ctx context.Context, probeRaw string, topK int, thresholdOverride *int) (IdentifyResult, error) {
	if !idx.Ready() {
		return IdentifyResult{}, fmt.Errorf("index_unavailable: employee index has not been built")
	}

	cond, err := idx.cond.Condition(probeRaw, true)
	if err != nil {
		return IdentifyResult{Reason: match.NormalizeReason(err)}, nil
	}

	probe := idx.detector.Extract(cond.ROI)
	if probe.Count() < idx.matcherCfg.MinKeypointsWarn {
		return IdentifyResult{Reason: match.ReasonProbeLowQuality}, nil
	}

	probeEmbedding := meanDescriptorVector(probe.Descriptors)
	l2Normalize(probeEmbedding)

	idx.mu.RLock()
	snap := idx.snap
	idx.mu.RUnlock()

	if topK <= 0 {
		topK = idx.matcherCfg.TopK
	}
	shortlist := idx.accel.Shortlist(probeEmbedding, snap.embeddings, topK)
	if len(shortlist) == 0 {
		return IdentifyResult{Reason: match.ReasonNoCandidatesFound}, nil
	}

	candidates, err := idx.dispatchCandidates(ctx, probe, snap, shortlist, thresholdOverride)
	if err != nil {
		return IdentifyResult{}, err
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	return idx.applyAntiFalsePositiveGate(probe, candidates, len(snap.entries), thresholdOverride)
}

// dispatchCandidates runs the strict Matcher against each shortlisted
// employee's best-supporting template, in parallel across a fixed-size
// worker group. Cancellation of the request context is checked only at
// worker-function boundaries, never mid-score: once a worker starts
// evaluating a template it always finishes that evaluation.
func (idx *Index) dispatchCandidates(ctx context.Context, probe *models.FeatureSet, snap *snapshot, shortlist []int, thresholdOverride *int) ([]CandidateResult, error) {
	results := make([]CandidateResult, len(shortlist))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workerCfg.MaxWorkers)

	for i, employeeIdx := range shortlist {
		i, employeeIdx := i, employeeIdx
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			entry := snap.entries[employeeIdx]
			best := bestTemplateResult(idx.matcher, probe, entry.Templates, true, thresholdOverride)

			results[i] = CandidateResult{EmployeeID: entry.ID, Name: entry.Name, Result: best}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// bestTemplateResult evaluates probe against every one of an employee's
// templates and returns the highest-scoring result.
func bestTemplateResult(m *match.Matcher, probe *models.FeatureSet, templates []*models.FeatureSet, strict bool, thresholdOverride *int) match.Result {
	var best match.Result
	first := true
	for _, t := range templates {
		r := m.Evaluate(probe, t, strict, thresholdOverride)
		if first || r.Score > best.Score {
			best = r
			first = false
		}
	}
	return best
}

// identificationMargin implements the population-size step function for
// the minimum acceptable margin of victory over the runner-up: small
// populations need less separation to rule out coincidence, larger ones
// need more.
func identificationMargin(populationSize int) int {
	switch {
	case populationSize <= 4:
		return 10
	case populationSize <= 10:
		return 12
	default:
		return 15
	}
}

// applyAntiFalsePositiveGate applies the multi-layer rejection policy on
// top of the raw per-candidate Matcher verdicts: the winner must already
// be Matched by the Matcher itself, its score must clear the absolute
// floor, its margin of victory over the runner-up must clear a threshold
// that steps with population size, and — for employees enrolled with at
// least the configured consistency minimum of templates — at least one
// other template of that same employee must independently score at least
// 60% of the winning score.
func (idx *Index) applyAntiFalsePositiveGate(probe *models.FeatureSet, candidates []CandidateResult, populationSize int, thresholdOverride *int) (IdentifyResult, error) {
	if len(candidates) == 0 {
		return IdentifyResult{Reason: match.ReasonNoCandidatesFound, Candidates: candidates}, nil
	}
	if !candidates[0].Matched {
		return IdentifyResult{Reason: match.ReasonNoValidResults, Candidates: candidates}, nil
	}

	winner := candidates[0]

	if winner.Score < idx.matcherCfg.AbsMinScore {
		reason := match.ScoreTooLowReason(winner.Score, idx.matcherCfg.AbsMinScore)
		return IdentifyResult{Reason: reason, Candidates: candidates}, nil
	}

	minMargin := identificationMargin(populationSize)

	if len(candidates) > 1 {
		margin := winner.Score - candidates[1].Score
		if margin < minMargin {
			reason := match.AmbiguousMarginReason(margin, minMargin)
			return IdentifyResult{Reason: reason, Candidates: candidates}, nil
		}
	}

	winnerEntry, ok := idx.entryByID(winner.EmployeeID)
	if ok && len(winnerEntry.Templates) >= idx.matcherCfg.MultiTemplateConsistencyMin {
		agreements := idx.corroboratingTemplateCount(probe, winnerEntry, winner.Score, thresholdOverride)
		if agreements < 2 {
			reason := match.InconsistentTemplatesReason(agreements, len(winnerEntry.Templates))
			return IdentifyResult{Reason: reason, Candidates: candidates}, nil
		}
	}

	w := winner
	return IdentifyResult{Matched: true, Reason: match.ReasonMatchFound, Winner: &w, Candidates: candidates}, nil
}

func (idx *Index) entryByID(id string) (employeeEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, e := range idx.snap.entries {
		if e.ID == id {
			return e, true
		}
	}
	return employeeEntry{}, false
}

// corroboratingTemplateCount re-evaluates the probe against every template
// of the winning employee and counts how many — including the winner's own
// best-scoring template — score at least 60% of the best score. This is a
// relative comparison against the winning score, not a re-run of the
// Matcher's own accept/reject gates: a single spurious high-scoring
// template should not drive acceptance for an employee enrolled with
// enough samples to corroborate it.
func (idx *Index) corroboratingTemplateCount(probe *models.FeatureSet, entry employeeEntry, bestScore int, thresholdOverride *int) int {
	floor := float64(bestScore) * 0.6
	agreements := 0
	for _, t := range entry.Templates {
		r := idx.matcher.Evaluate(probe, t, true, thresholdOverride)
		if float64(r.Score) >= floor {
			agreements++
		}
	}
	return agreements
}

func meanDescriptorVector(descs []models.Descriptor) []float32 {
	mean := meanDescriptor(descs)
	out := make([]float32, len(mean))
	copy(out, mean[:])
	return out
}
