package index

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/features"
	"github.com/fingerprint-id/engine/internal/imaging"
	"github.com/fingerprint-id/engine/internal/match"
	"github.com/fingerprint-id/engine/internal/template"
)

func testMatcherConfig() config.MatcherConfig {
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
		MultiTemplateConsistencyMin: 3,
		TopK:                        5,
	}
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{MaxWorkers: 4}
}

func newTestIndex(t *testing.T, store EmployeeStore) *Index {
	t.Helper()
	cond := imaging.NewConditioner()
	detector := features.NewDetector(features.Config{
		MaxKeypoints:      800,
		ContrastThreshold: 0.04,
		EdgeThreshold:     10,
		Sigma:             1.6,
	})
	cache, err := template.NewDecodeCache(16)
	require.NoError(t, err)
	return New(store, cond, detector, testMatcherConfig(), testWorkerConfig(), cache)
}

func uniformBrightImageBase64(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 48, 48))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestMatchImage_LowQualityProbeIsRejected(t *testing.T) {
	idx := newTestIndex(t, nil)

	probe := uniformBrightImageBase64(t)
	res, err := idx.MatchImage(probe, template.Magic+"garbage", nil)

	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, match.ReasonProbeLowQuality, res.Reason)
}

func TestMatchImage_InvalidProbeImageErrorsAsRejection(t *testing.T) {
	idx := newTestIndex(t, nil)

	res, err := idx.MatchImage("not-an-image!!", template.Magic+"garbage", nil)

	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.NotEmpty(t, res.Reason)
}

func TestMatchTemplates_LowQualityProbeRejectedBeforeEmptyListCheck(t *testing.T) {
	idx := newTestIndex(t, nil)

	res, err := idx.MatchTemplates(uniformBrightImageBase64(t), nil, nil)

	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, match.ReasonProbeLowQuality, res.Reason)
}

func TestNominalBest_AcceptedBeatsUnacceptedRegardlessOfScore(t *testing.T) {
	votes := []VerifyResult{
		{Result: match.Result{Matched: false, Score: 90}},
		{Result: match.Result{Matched: true, Score: 40}},
	}
	best := nominalBest(votes)
	assert.True(t, best.Matched)
	assert.Equal(t, 40, best.Score)
}

func TestNominalBest_TiesBrokenByScore(t *testing.T) {
	votes := []VerifyResult{
		{Result: match.Result{Matched: true, Score: 40}, TemplateIndex: 0},
		{Result: match.Result{Matched: true, Score: 75}, TemplateIndex: 1},
	}
	best := nominalBest(votes)
	assert.Equal(t, 75, best.Score)
	assert.Equal(t, 1, best.TemplateIndex)
}

func TestSecondaryCorroborates_VeryStrongTier(t *testing.T) {
	best := VerifyResult{Result: match.Result{Score: 80}}
	secondary := VerifyResult{Result: match.Result{Score: 50, Threshold: 50}}
	assert.True(t, secondaryCorroborates(best, secondary))

	weak := VerifyResult{Result: match.Result{Score: 40, Threshold: 50}}
	assert.False(t, secondaryCorroborates(best, weak))
}

func TestSecondaryCorroborates_ModerateTierGivesPrecomputedSlack(t *testing.T) {
	best := VerifyResult{Result: match.Result{Score: 65}}
	secondary := VerifyResult{Result: match.Result{Score: 46, Threshold: 60, IsPrecomputed: true}}
	assert.True(t, secondaryCorroborates(best, secondary))

	notPrecomputed := VerifyResult{Result: match.Result{Score: 46, Threshold: 60, IsPrecomputed: false}}
	assert.False(t, secondaryCorroborates(best, notPrecomputed))
}

func TestSecondaryCorroborates_WeakTierRequiresFullAcceptance(t *testing.T) {
	best := VerifyResult{Result: match.Result{Score: 50}}
	accepted := VerifyResult{Result: match.Result{Matched: true}}
	notAccepted := VerifyResult{Result: match.Result{Matched: false}}
	assert.True(t, secondaryCorroborates(best, accepted))
	assert.False(t, secondaryCorroborates(best, notAccepted))
}
