package match

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReason_StripsDetailAfterCode(t *testing.T) {
	err := fmt.Errorf("decode_failed: %w", errors.New("invalid base64"))
	assert.Equal(t, "decode_failed", NormalizeReason(err))
}

func TestNormalizeReason_PlainErrorPassesThrough(t *testing.T) {
	err := errors.New(ReasonProbeLowQuality)
	assert.Equal(t, ReasonProbeLowQuality, NormalizeReason(err))
}

func TestAmbiguousMarginReason_Content(t *testing.T) {
	reason := AmbiguousMarginReason(2, 5)
	assert.Equal(t, "ambiguous_match_margin_2_5", reason)
}

func TestScoreTooLowReason_Content(t *testing.T) {
	assert.Equal(t, "score_too_low_30_45", ScoreTooLowReason(30, 45))
}

func TestInconsistentTemplatesReason_Content(t *testing.T) {
	assert.Equal(t, "inconsistent_templates_1/3", InconsistentTemplatesReason(1, 3))
}
