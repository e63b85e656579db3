// Package handlers implements the HTTP surface of the identification
// service: one constructor-injected handler group per operation, thin
// translation layers over internal/index, internal/template, and
// internal/match.
package handlers

import (
	"time"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/features"
	"github.com/fingerprint-id/engine/internal/imaging"
	"github.com/fingerprint-id/engine/internal/index"
	"github.com/fingerprint-id/engine/internal/template"
)

// Deps bundles the collaborators every handler group needs. Built once in
// cmd/api/main.go and threaded into each NewXHandler constructor.
type Deps struct {
	Index       *index.Index
	Conditioner *imaging.Conditioner
	Detector    *features.Detector
	DecodeCache *template.DecodeCache
	MatcherCfg  config.MatcherConfig
	FeaturesCfg config.FeaturesConfig
	StartedAt   time.Time
}
