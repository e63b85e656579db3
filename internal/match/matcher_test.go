package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/models"
)

func defaultCfg() config.MatcherConfig {
	return config.MatcherConfig{
		Ratio:                     0.70,
		MinBase:                   45,
		MinPercent:                0.055,
		ConfMin:                   65,
		ConfHigh:                  85,
		MinKeypoints:              200,
		MinKeypointsWarn:          160,
		HighConfKeypoints:         525,
		MarginBase:                3,
		MarginPercent:             0.10,
		AbsMinScore:               45,
		SingleTemplateMarginMin:   5,
		SingleTemplateMarginRatio: 0.10,
		PrecomputedFloor:          38,
		PrecomputedThresholdSlack: 7,
		PrecomputedRequiredSlack:  3,
	}
}

// featureSetOf builds a FeatureSet with n descriptors, each a constant
// vector offset by base — identical probe/template descriptor sets
// therefore produce a perfect ratio-test score.
func featureSetOf(n int, base float32) *models.FeatureSet {
	fs := &models.FeatureSet{}
	for i := 0; i < n; i++ {
		var d models.Descriptor
		for j := range d {
			d[j] = base + float32(i)*0.01 + float32(j)*0.001
		}
		fs.Keypoints = append(fs.Keypoints, models.Keypoint{X: float32(i)})
		fs.Descriptors = append(fs.Descriptors, d)
	}
	return fs
}

func TestEvaluate_SelfMatchAccepts(t *testing.T) {
	m := NewMatcher(defaultCfg())
	fs := featureSetOf(250, 1.0)

	res := m.Evaluate(fs, fs, true, nil)

	assert.True(t, res.Matched)
	assert.Equal(t, ReasonMatch, res.Reason)
	assert.Equal(t, fs.Count(), res.Score)
}

func TestEvaluate_ProbeTooSmall(t *testing.T) {
	m := NewMatcher(defaultCfg())
	probe := featureSetOf(50, 1.0)
	tmpl := featureSetOf(250, 1.0)

	res := m.Evaluate(probe, tmpl, true, nil)

	assert.False(t, res.Matched)
	assert.Equal(t, ReasonProbeLowQuality, res.Reason)
}

func TestEvaluate_DisjointDescriptorsRejected(t *testing.T) {
	m := NewMatcher(defaultCfg())
	probe := featureSetOf(250, 1.0)
	tmpl := featureSetOf(250, 500.0)

	res := m.Evaluate(probe, tmpl, true, nil)

	assert.False(t, res.Matched)
	require.NotEmpty(t, res.Reason)
}

func TestEvaluate_NonStrictLeniencyOnlyAppliesToPrecomputedTemplates(t *testing.T) {
	cfg := defaultCfg()
	m := NewMatcher(cfg)
	probe := featureSetOf(250, 1.0)
	precomputedTmpl := featureSetOf(250, 1.0)
	precomputedTmpl.IsPrecomputed = true
	freshTmpl := featureSetOf(250, 1.0)

	strict := m.Evaluate(probe, precomputedTmpl, true, nil)
	lenient := m.Evaluate(probe, precomputedTmpl, false, nil)
	nonStrictButFresh := m.Evaluate(probe, freshTmpl, false, nil)

	assert.True(t, strict.Matched)
	assert.True(t, lenient.Matched)
	assert.True(t, lenient.IsPrecomputed)
	assert.LessOrEqual(t, lenient.RequiredScore, strict.RequiredScore)

	// A freshly-extracted template gets the full strict gates even when
	// called non-strictly, since leniency exists for precomputed drift.
	assert.Equal(t, strict.RequiredScore, nonStrictButFresh.RequiredScore)
	assert.False(t, nonStrictButFresh.IsPrecomputed)
}

func TestEvaluate_FourGateSequence(t *testing.T) {
	cfg := defaultCfg()
	m := NewMatcher(cfg)
	probe := featureSetOf(250, 1.0)
	disjointTmpl := featureSetOf(250, 500.0)
	matchingTmpl := featureSetOf(250, 1.0)

	res := m.Evaluate(probe, disjointTmpl, true, nil)
	assert.Equal(t, ReasonScoreBelowAbsMin, res.Reason)

	aboveActualScore := 253
	res = m.Evaluate(probe, matchingTmpl, true, &aboveActualScore)
	assert.Equal(t, ReasonScoreBelowThreshold, res.Reason)
}

func TestAmbiguousMarginReason_Format(t *testing.T) {
	assert.Equal(t, "ambiguous_match_margin_2_5", AmbiguousMarginReason(2, 5))
}

func TestRankByScore_DescendingStable(t *testing.T) {
	results := []Result{
		{Score: 10},
		{Score: 50},
		{Score: 30},
		{Score: 50},
	}
	RankByScore(results)

	assert.Equal(t, 50, results[0].Score)
	assert.Equal(t, 50, results[1].Score)
	assert.Equal(t, 30, results[2].Score)
	assert.Equal(t, 10, results[3].Score)
}
