// Package index holds the in-memory employee population the
// identification and multi-template matching operations run against, and
// the orchestration logic that turns a probe fingerprint into a decision.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fingerprint-id/engine/internal/config"
	"github.com/fingerprint-id/engine/internal/features"
	"github.com/fingerprint-id/engine/internal/imaging"
	"github.com/fingerprint-id/engine/internal/match"
	"github.com/fingerprint-id/engine/internal/models"
	"github.com/fingerprint-id/engine/internal/template"
)

const descriptorDim = 128

// employeeEntry is one employee's fully decoded template population, held
// inside a snapshot.
type employeeEntry struct {
	ID        string
	Name      string
	Templates []*models.FeatureSet
}

// snapshot is an immutable view of the employee population: swapped in
// atomically under a brief write lock so concurrent readers never observe
// a partially rebuilt state. This mirrors the RWMutex/copy-on-write
// discipline used elsewhere in this codebase for shared in-process state.
type snapshot struct {
	entries    []employeeEntry
	embeddings [][]float32
}

// Index is the employee population plus the services needed to act on it.
// Safe for concurrent use: reads take the RLock, (re)builds construct a
// fresh snapshot off-lock and swap it in under a brief Lock.
type Index struct {
	mu   sync.RWMutex
	snap *snapshot

	store       EmployeeStore
	cond        *imaging.Conditioner
	detector    *features.Detector
	matcher     *match.Matcher
	decodeCache *template.DecodeCache
	accel       Accelerator

	matcherCfg config.MatcherConfig
	workerCfg  config.WorkerConfig

	lastStats models.EmployeeIndexStats
}

func New(store EmployeeStore, cond *imaging.Conditioner, detector *features.Detector, matcherCfg config.MatcherConfig, workerCfg config.WorkerConfig, decodeCache *template.DecodeCache) *Index {
	return &Index{
		snap:        &snapshot{},
		store:       store,
		cond:        cond,
		detector:    detector,
		matcher:     match.NewMatcher(matcherCfg),
		decodeCache: decodeCache,
		accel:       NewBruteForceAccelerator(),
		matcherCfg:  matcherCfg,
		workerCfg:   workerCfg,
	}
}

// Ready reports whether the current snapshot holds at least one employee.
// A never-built index, or one whose last build loaded no employees, is not
// ready.
func (idx *Index) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.snap != nil && len(idx.snap.entries) > 0
}

// Stats returns the aggregate statistics from the most recent build.
func (idx *Index) Stats() models.EmployeeIndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.lastStats
}

// EmployeeCount returns the number of employees in the current snapshot.
func (idx *Index) EmployeeCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.snap.entries)
}

// AcceleratorName reports which shortlist accelerator is active.
func (idx *Index) AcceleratorName() string {
	return idx.accel.Name()
}

// Build performs a full rescan of the employee store, constructing a new
// snapshot entirely off-lock and swapping it in only once complete.
// Per-employee extraction failures are logged and skipped rather than
// aborting the whole build — a partially loadable population still
// serves requests.
func (idx *Index) Build(ctx context.Context) error {
	start := time.Now()

	records, err := idx.store.ListActiveEmployees(ctx)
	if err != nil {
		return fmt.Errorf("list active employees: %w", err)
	}

	next := &snapshot{}
	stats := models.EmployeeIndexStats{BuiltAt: start}

	for _, rec := range records {
		entry, embedding, ok := idx.buildEmployeeEntry(rec, &stats)
		if !ok {
			stats.SkippedInvalid++
			continue
		}
		next.entries = append(next.entries, entry)
		next.embeddings = append(next.embeddings, embedding)
		stats.EmployeesLoaded++
		stats.TemplatesLoaded += len(entry.Templates)
		if len(entry.Templates) >= 4 {
			stats.FourTemplateCount++
		} else {
			stats.PartialCount++
		}
	}

	idx.mu.Lock()
	idx.snap = next
	idx.lastStats = stats
	idx.mu.Unlock()

	slog.Info("employee index rebuilt",
		"employees", stats.EmployeesLoaded,
		"templates", stats.TemplatesLoaded,
		"four_template", stats.FourTemplateCount,
		"partial", stats.PartialCount,
		"corrupted_templates", stats.CorruptedTemplates,
		"corrupted_images", stats.CorruptedImages,
		"skipped", stats.SkippedInvalid,
		"duration", time.Since(start).String(),
	)

	return nil
}

// Add incrementally inserts one employee without a full rebuild, used by
// sync_employee. An employee already in the index is rejected.
func (idx *Index) Add(ctx context.Context, id string) error {
	rec, err := idx.store.GetEmployee(ctx, id)
	if err != nil {
		return fmt.Errorf("get employee %s: %w", id, err)
	}
	if rec == nil || !rec.Active {
		return fmt.Errorf("employee %s not found or inactive", id)
	}

	var stats models.EmployeeIndexStats
	entry, embedding, ok := idx.buildEmployeeEntry(*rec, &stats)
	if !ok {
		return fmt.Errorf("employee %s has no valid templates", id)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := &snapshot{
		entries:    make([]employeeEntry, 0, len(idx.snap.entries)+1),
		embeddings: make([][]float32, 0, len(idx.snap.embeddings)+1),
	}
	for i, e := range idx.snap.entries {
		if e.ID == id {
			return fmt.Errorf("employee %s is already in the index", id)
		}
		next.entries = append(next.entries, e)
		next.embeddings = append(next.embeddings, idx.snap.embeddings[i])
	}
	next.entries = append(next.entries, entry)
	next.embeddings = append(next.embeddings, embedding)

	idx.snap = next
	idx.lastStats.EmployeesLoaded = len(next.entries)

	if err := idx.store.PersistEmbedding(ctx, id, embedding); err != nil {
		slog.Warn("persist employee embedding", "employee_id", id, "error", err)
	}

	return nil
}

// buildEmployeeEntry decodes an employee's four slots (preferring a
// template slot over an image slot at the same position), extracting
// features from raw images as needed, and computes the employee's
// aggregate embedding: every template's descriptors are vertically
// stacked into one pool and the column-wise mean of that pool is taken,
// L2-normalized. A template with more descriptors naturally contributes
// more weight than one with few — this is not a mean of per-template
// means, which would weight a four-descriptor template the same as a
// four-hundred-descriptor one.
func (idx *Index) buildEmployeeEntry(rec models.EmployeeRecord, stats *models.EmployeeIndexStats) (employeeEntry, []float32, bool) {
	entry := employeeEntry{ID: rec.ID, Name: rec.Name}
	var sum [descriptorDim]float64
	var count int

	for slot := 0; slot < 4; slot++ {
		var fs *models.FeatureSet

		if rec.Templates[slot] != "" {
			decoded, err := idx.decodeCache.DecodeCached(rec.Templates[slot])
			if err != nil {
				stats.CorruptedTemplates++
				continue
			}
			fs = decoded
		} else if rec.Images[slot] != "" {
			result, err := idx.cond.Condition(rec.Images[slot], false)
			if err != nil {
				stats.CorruptedImages++
				continue
			}
			fs = idx.detector.Extract(result.ROI)
		} else {
			continue
		}

		if fs.Count() == 0 {
			continue
		}

		entry.Templates = append(entry.Templates, fs)
		for _, d := range fs.Descriptors {
			for i, v := range d {
				sum[i] += float64(v)
			}
			count++
		}
	}

	if count == 0 {
		return entry, nil, false
	}

	embedding := make([]float32, descriptorDim)
	for i := range embedding {
		embedding[i] = float32(sum[i] / float64(count))
	}
	l2Normalize(embedding)

	return entry, embedding, true
}

func meanDescriptor(descs []models.Descriptor) models.Descriptor {
	var mean models.Descriptor
	if len(descs) == 0 {
		return mean
	}
	for _, d := range descs {
		for i, v := range d {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float32(len(descs))
	}
	return mean
}

func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sum))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}
