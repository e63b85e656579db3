package match

import (
	"fmt"
	"strings"
)

// Reason strings form a closed, observable taxonomy: every rejection or
// acceptance path in this package produces one of these, and every one of
// these is declared here so the full contract is traceable from one file.
// The exact strings (including the non-English "no_templates_evaluados")
// are part of the wire contract and must not be respelled.
const (
	// Input decoding.
	ReasonDecodeFailed      = "decode_failed"
	ReasonEnhancementFailed = "enhancement_failed"

	// Feature quality.
	ReasonInsufficientFeatures    = "insufficient_features"
	ReasonMissingDescriptors      = "missing_descriptors"
	ReasonInsufficientDescriptors = "insufficient_descriptors"
	ReasonProbeLowQuality         = "probe_low_quality"
	ReasonTemplateLowQuality      = "template_low_quality"

	// Scoring.
	ReasonScoreBelowAbsMin    = "score_below_abs_min"
	ReasonScoreBelowThreshold = "score_below_threshold"
	ReasonInsufficientMargin  = "insufficient_margin"
	ReasonConfidenceLow       = "confidence_low"

	// Verification orchestration.
	ReasonSecondaryTemplateDisagrees = "secondary_template_disagrees"
	ReasonSecondaryTemplateRequired  = "secondary_template_required"
	ReasonSingleTemplateMargin       = "single_template_margin"
	ReasonNoTemplatesEvaluated       = "no_templates_evaluados"
	ReasonCancelledEarlyExit         = "cancelled_early_exit"
	ReasonEmptyTemplate              = "empty_template"

	// Identification orchestration.
	ReasonNoCandidatesFound = "no_candidates_found"
	ReasonNoValidResults    = "no_valid_results"

	// Template codec.
	ReasonDeserializationFailed = "deserialization_failed"
	ReasonPrecomputedLoadFailed = "precomputed_load_failed"

	// Success.
	ReasonMatch      = "match"
	ReasonMatchFound = "match_found"

	// Unrecoverable (surfaced as a Go error, never placed in a reason field).
	ReasonIndexUnavailable = "index_unavailable"
)

// AmbiguousMarginReason formats the parameterized "margin too small vs the
// runner-up" rejection, where m is the observed margin and min is the
// required minimum margin, both expressed in score points.
func AmbiguousMarginReason(margin, minMargin int) string {
	return fmt.Sprintf("ambiguous_match_margin_%d_%d", margin, minMargin)
}

// ScoreTooLowReason formats the parameterized "winning score below the
// absolute identification floor" rejection.
func ScoreTooLowReason(score, minScore int) string {
	return fmt.Sprintf("score_too_low_%d_%d", score, minScore)
}

// InconsistentTemplatesReason formats the parameterized "multi-template
// consistency check failed" rejection: k of the employee's n templates
// corroborated the winning score.
func InconsistentTemplatesReason(k, n int) string {
	return fmt.Sprintf("inconsistent_templates_%d/%d", k, n)
}

// NormalizeReason collapses an error produced below (which may carry a
// "<reason>: <detail>" wrapped message, e.g. from the image conditioner or
// the decode path) down to its bare taxonomy code. Callers surface only the
// bare code in a response's reason field; the full error detail belongs in
// logs, not in the closed-vocabulary contract of this package.
func NormalizeReason(err error) string {
	msg := err.Error()
	if code, _, ok := strings.Cut(msg, ": "); ok {
		return code
	}
	return msg
}
