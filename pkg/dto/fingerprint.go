package dto

// ExtractTemplateRequest carries a raw base64 fingerprint image to
// condition and extract into a durable template.
type ExtractTemplateRequest struct {
	Image string `json:"image" binding:"required"`
}

type ExtractTemplateResponse struct {
	Template     string `json:"template"`
	Keypoints    int    `json:"keypoints"`
	QualityOK    bool   `json:"quality_ok"`
	QualityWarn  bool   `json:"quality_warn"`
	Professional bool   `json:"professional"`
}

// TestTemplateRequest validates a probe image against a probe template
// produced from the same or a companion sample, without touching the
// employee population.
type TestTemplateRequest struct {
	Image    string `json:"image" binding:"required"`
	Template string `json:"template" binding:"required"`
}

// MatchImageRequest verifies a probe image against one stored template.
// ThresholdOverride, when set, replaces the Matcher's computed
// population-scaled threshold for this call only.
type MatchImageRequest struct {
	Image             string `json:"image" binding:"required"`
	Template          string `json:"template" binding:"required"`
	ThresholdOverride *int   `json:"threshold_override,omitempty"`
}

// MatchTemplatesRequest verifies a probe image against up to four stored
// templates for a single claimed identity, with corroboration voting.
type MatchTemplatesRequest struct {
	Image             string   `json:"image" binding:"required"`
	Templates         []string `json:"templates" binding:"required"`
	ThresholdOverride *int     `json:"threshold_override,omitempty"`
}

type MatchResponse struct {
	Matched       bool    `json:"matched"`
	Reason        string  `json:"reason"`
	Score         int     `json:"score"`
	Confidence    float64 `json:"confidence"`
	Threshold     int     `json:"threshold"`
	RequiredScore int     `json:"required_score"`
	IsPrecomputed bool    `json:"is_precomputed"`
	Timing        Timing  `json:"timing"`
}

// Timing is the per-stage duration breakdown field on matching responses:
// conditioning, extraction, matcher dispatch, corroboration. No handler
// fills it in, so every field is serialized as zero.
type Timing struct {
	ConditionMS   float64 `json:"condition_ms"`
	ExtractMS     float64 `json:"extract_ms"`
	MatchMS       float64 `json:"match_ms"`
	CorroborateMS float64 `json:"corroborate_ms"`
}

// IdentifyEmployeeRequest identifies a probe image against the full
// enrolled employee population.
type IdentifyEmployeeRequest struct {
	Image             string `json:"image" binding:"required"`
	TopK              int    `json:"top_k,omitempty"`
	ThresholdOverride *int   `json:"threshold_override,omitempty"`
}

type IdentifyCandidate struct {
	EmployeeID    string  `json:"employee_id"`
	Name          string  `json:"name"`
	Score         int     `json:"score"`
	Confidence    float64 `json:"confidence"`
	Matched       bool    `json:"matched"`
	IsPrecomputed bool    `json:"is_precomputed"`
}

type IdentifyEmployeeResponse struct {
	Matched       bool                `json:"matched"`
	Reason        string              `json:"reason"`
	EmployeeID    string              `json:"employee_id,omitempty"`
	Name          string              `json:"name,omitempty"`
	Score         int                 `json:"score,omitempty"`
	Confidence    float64             `json:"confidence,omitempty"`
	IsPrecomputed bool                `json:"is_precomputed,omitempty"`
	Candidates    []IdentifyCandidate `json:"candidates"`
	Timing        Timing              `json:"timing"`
}

type ParamsResponse struct {
	Ratio                float64    `json:"FP_RATIO"`
	MinBase              int        `json:"FP_MIN_BASE"`
	MinPercent           float64    `json:"FP_MIN_PERCENT"`
	ConfMin              float64    `json:"FP_CONF_MIN"`
	ConfHigh             float64    `json:"FP_CONF_HIGH"`
	MinKeypoints         int        `json:"FP_MIN_KEYPOINTS"`
	MinKeypointsWarn     int        `json:"FP_MIN_KEYPOINTS_WARN"`
	HighConfKeypoints    int        `json:"FP_HIGH_CONF_KP"`
	MarginBase           int        `json:"FP_MARGIN_BASE"`
	MarginPercent        float64    `json:"FP_MARGIN_PERCENT"`
	AbsMinScore          int        `json:"FP_ABS_MIN_SCORE"`
	ThresholdFor1000KP   int        `json:"threshold_for_1000_kp"`
	SiftParams           SiftParams `json:"sift_params"`
	AcceleratorAvailable bool       `json:"accelerator_available"`
}

type SiftParams struct {
	NFeatures         int     `json:"nfeatures"`
	ContrastThreshold float64 `json:"contrastThreshold"`
	EdgeThreshold     float64 `json:"edgeThreshold"`
	Sigma             float64 `json:"sigma"`
}

type ReloadIndexResponse struct {
	Status               string `json:"status"`
	EmployeeCount        int    `json:"employee_count"`
	AcceleratorAvailable bool   `json:"accelerator_available"`
}

type SyncEmployeeResponse struct {
	Status     string `json:"status"`
	EmployeeID string `json:"employee_id"`
}
