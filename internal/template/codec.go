// Package template implements the durable wire encoding of a FeatureSet:
// JSON, gzip-compressed, base64-encoded. No synthetic marker is added —
// the encoding is self-identifying because every gzip stream's fixed
// 3-byte magic+method header (0x1f 0x8b 0x08) encodes to the same four
// base64 characters, "H4sI", regardless of the flag byte that follows.
package template

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fingerprint-id/engine/internal/models"
)

// Magic is the base64 rendering of every gzip stream's fixed header
// bytes. base64(gzip(...)) output always begins with these four
// characters, so their presence distinguishes a template from a raw
// image's base64 without needing any prepended marker.
const Magic = "H4sI"

// minTemplateLength is the shortest input ever classified as a template,
// even one that happens to start with the gzip magic prefix.
const minTemplateLength = 100

// legacyMinLength is the length above which an un-prefixed payload is
// still attempted as a legacy gzip+base64+JSON blob rather than rejected
// outright.
const legacyMinLength = 10000

type wireFormat struct {
	Keypoints   []models.Keypoint `json:"kp"`
	Descriptors [][]float32       `json:"desc"`
	ROIWidth    int               `json:"w"`
	ROIHeight   int               `json:"h"`
	Method      string            `json:"method"`
}

// Encode compresses and encodes a FeatureSet into the current wire format.
func Encode(fs *models.FeatureSet, method string) (string, error) {
	wire := wireFormat{
		Keypoints: fs.Keypoints,
		Method:    method,
		ROIWidth:  fs.ROIWidth,
		ROIHeight: fs.ROIHeight,
	}
	wire.Descriptors = make([][]float32, len(fs.Descriptors))
	for i, d := range fs.Descriptors {
		wire.Descriptors[i] = append([]float32(nil), d[:]...)
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode_failed: marshal template: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return "", fmt.Errorf("encode_failed: gzip template: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("encode_failed: gzip close: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. It recognizes the natural gzip-in-base64 prefix
// and also tolerates legacy payloads (no recognizable prefix, length above
// legacyMinLength) produced by older encoders.
func Decode(raw string) (*models.FeatureSet, error) {
	if Classify(raw) == "unrecognized" {
		return nil, fmt.Errorf("decode_failed: unrecognized template encoding")
	}

	compressed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode_failed: base64: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decode_failed: gzip: %w", err)
	}
	defer gz.Close()

	raw2, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decode_failed: gzip read: %w", err)
	}

	var wire wireFormat
	if err := json.Unmarshal(raw2, &wire); err != nil {
		return nil, fmt.Errorf("decode_failed: json: %w", err)
	}

	method := wire.Method
	if method == "" {
		method = "unknown"
	}

	fs := &models.FeatureSet{
		Keypoints:     wire.Keypoints,
		Descriptors:   make([]models.Descriptor, len(wire.Descriptors)),
		ROIWidth:      wire.ROIWidth,
		ROIHeight:     wire.ROIHeight,
		Method:        method,
		IsPrecomputed: true,
	}
	for i, d := range wire.Descriptors {
		copy(fs.Descriptors[i][:], d)
	}

	return fs, nil
}

// Classify reports whether raw is self-identifying (current format),
// legacy-tolerated, or unrecognized, without fully decoding it. The
// magic-prefix check is the primary classifier; inputs longer than
// legacyMinLength that lack the prefix are still tolerantly accepted to
// accommodate enrollments stored before this codec existed. Inputs
// shorter than minTemplateLength are never classified as templates, even
// if they happen to start with the gzip magic prefix — too short to
// contain a real wire payload.
func Classify(raw string) string {
	if len(raw) < minTemplateLength {
		return "unrecognized"
	}
	if strings.HasPrefix(raw, Magic) {
		return "current"
	}
	if len(raw) > legacyMinLength {
		return "legacy"
	}
	return "unrecognized"
}
