package handlers

import (
	"github.com/fingerprint-id/engine/internal/match"
	"github.com/fingerprint-id/engine/pkg/dto"
)

func toMatchResponse(r match.Result) dto.MatchResponse {
	return dto.MatchResponse{
		Matched:       r.Matched,
		Reason:        r.Reason,
		Score:         r.Score,
		Confidence:    r.Confidence,
		Threshold:     r.Threshold,
		RequiredScore: r.RequiredScore,
		IsPrecomputed: r.IsPrecomputed,
	}
}
