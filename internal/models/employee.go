package models

import "time"

// EmployeeRecord is a single enrolled employee as read from the external
// store: up to four fingerprint samples, each available either as a raw
// image or a pre-extracted template. Template slots are preferred over
// image slots when both are present for the same finger position.
type EmployeeRecord struct {
	ID        string    `json:"id" db:"id_empleado"`
	Name      string    `json:"name" db:"nombre"`
	Active    bool      `json:"active" db:"activo"`
	Images    [4]string `json:"-" db:"-"` // base64 image payloads, slot-aligned
	Templates [4]string `json:"-" db:"-"` // encoded templates, slot-aligned
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SlotSource names which kind of payload, if any, one of an employee's
// four slots holds: nothing, a pre-extracted template, or a raw image.
type SlotSource int

const (
	SlotEmpty SlotSource = iota
	SlotTemplate
	SlotImage
)

// Keypoint is a single detected local feature location. It carries the
// full OpenCV-style keypoint fields — position, scale, orientation,
// response strength, octave, and class id — so a decoded keypoint is a
// lossless reconstruction of the one that was encoded.
type Keypoint struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Size     float32 `json:"size"`
	Angle    float32 `json:"angle"`
	Response float32 `json:"response"`
	Octave   int     `json:"octave"`
	ClassID  int     `json:"class_id"`
}

// Descriptor is the fixed-length gradient histogram describing the patch
// around a Keypoint.
type Descriptor [128]float32

// FeatureSet is the output of feature extraction on a single conditioned
// fingerprint image: the keypoints found and their paired descriptors.
// IsPrecomputed marks a FeatureSet decoded from a stored template (as
// opposed to one freshly extracted from a probe image this request) —
// the Matcher's non-strict leniency applies only when this is true.
type FeatureSet struct {
	Keypoints     []Keypoint   `json:"keypoints"`
	Descriptors   []Descriptor `json:"descriptors"`
	ROIWidth      int          `json:"roi_w"`
	ROIHeight     int          `json:"roi_h"`
	Method        string       `json:"-"`
	IsPrecomputed bool         `json:"-"`
}

// Count returns the number of keypoints in this FeatureSet.
func (fs *FeatureSet) Count() int {
	if fs == nil {
		return 0
	}
	return len(fs.Keypoints)
}

// QualityOK reports whether this FeatureSet meets the "good" keypoint
// population threshold.
func (fs *FeatureSet) QualityOK(minGood int) bool {
	return fs.Count() >= minGood
}

// QualityWarn reports whether this FeatureSet meets only the lesser "warn"
// keypoint population threshold.
func (fs *FeatureSet) QualityWarn(minWarn int) bool {
	return fs.Count() >= minWarn
}

// Template is the durable, wire-safe encoding of a FeatureSet, produced by
// internal/template's codec.
type Template struct {
	Method string `json:"method"`
	Data   []byte `json:"-"`
}

// EmployeeIndexStats summarizes the outcome of an index (re)build, logged
// but never fatal — a partially-loadable population still serves requests.
type EmployeeIndexStats struct {
	EmployeesLoaded    int
	TemplatesLoaded    int
	FourTemplateCount  int
	PartialCount       int
	CorruptedTemplates int
	CorruptedImages    int
	SkippedInvalid     int
	BuiltAt            time.Time
}
