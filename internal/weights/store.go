// Package weights keeps a self-normalizing weight vector per content type and
// adapts it from reported performance.
package weights

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Profile is a point-in-time copy of one content type's learned state.
type Profile struct {
	ContentType string             `json:"content_type"`
	Weights     map[string]float64 `json:"weights"`
	Counts      map[string]int64   `json:"performance_counts"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type profileState struct {
	mu        sync.RWMutex
	weights   map[string]float64
	counts    map[string]int64
	updatedAt time.Time
}

func newProfileState(contentType string) *profileState {
	return &profileState{
		weights:   DefaultWeights(contentType),
		counts:    make(map[string]int64),
		updatedAt: time.Now(),
	}
}

// Store owns the weight profiles of every content type seen by the process.
// Each profile has its own lock; the map of profiles is guarded separately
// so updates to different content types never contend.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*profileState
	logger   *logrus.Logger
	now      func() time.Time
}

// NewStore creates an empty store. A nil logger discards output.
func NewStore(logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Store{
		profiles: make(map[string]*profileState),
		logger:   logger,
		now:      time.Now,
	}
}

// profile returns the state for contentType, seeding it from the defaults
// exactly once.
func (s *Store) profile(contentType string) *profileState {
	s.mu.RLock()
	p, ok := s.profiles[contentType]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.profiles[contentType]; ok {
		return p
	}
	p = newProfileState(contentType)
	s.profiles[contentType] = p

	s.logger.WithFields(logrus.Fields{
		"content_type": contentType,
		"known":        KnownContentType(contentType),
	}).Debug("Initialized weight profile")

	return p
}

// GetWeights returns a copy of the current vector for contentType.
func (s *Store) GetWeights(contentType string) map[string]float64 {
	p := s.profile(contentType)

	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyWeights(p.weights)
}

// ReportPerformance folds one observed performance value for metric into the
// profile of contentType and returns the renormalized vector. The counter
// increment, smoothing and renormalization happen under one lock.
func (s *Store) ReportPerformance(contentType, metric string, performance float64) map[string]float64 {
	p := s.profile(contentType)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[metric]++
	var total int64
	for _, c := range p.counts {
		total += c
	}

	current, ok := p.weights[metric]
	if !ok {
		current = defaultMetricWeight(contentType, metric)
	}

	observed := performance / float64(total)
	p.weights[metric] = retainFactor*current + learnFactor*observed

	sum := 0.0
	for _, w := range p.weights {
		sum += w
	}
	if sum > 0 && !math.IsInf(sum, 0) {
		for m, w := range p.weights {
			p.weights[m] = w / sum
		}
	} else {
		s.logger.WithFields(logrus.Fields{
			"content_type": contentType,
			"metric":       metric,
			"sum":          sum,
		}).Warn("Skipping weight normalization for non-positive vector")
	}
	p.updatedAt = s.now()

	return copyWeights(p.weights)
}

// ResetWeights drops learned weights and counters for contentType and
// returns the restored defaults.
func (s *Store) ResetWeights(contentType string) map[string]float64 {
	p := s.profile(contentType)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.weights = DefaultWeights(contentType)
	p.counts = make(map[string]int64)
	p.updatedAt = s.now()

	s.logger.WithField("content_type", contentType).Info("Reset weight profile to defaults")

	return copyWeights(p.weights)
}

// ContentTypes lists every initialized content type in sorted order.
func (s *Store) ContentTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.profiles))
	for ct := range s.profiles {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}

// Snapshot copies every initialized profile.
func (s *Store) Snapshot() []Profile {
	types := s.ContentTypes()
	out := make([]Profile, 0, len(types))
	for _, ct := range types {
		out = append(out, s.snapshotOf(ct))
	}
	return out
}

func (s *Store) snapshotOf(contentType string) Profile {
	p := s.profile(contentType)

	p.mu.RLock()
	defer p.mu.RUnlock()
	return Profile{
		ContentType: contentType,
		Weights:     copyWeights(p.weights),
		Counts:      copyCounts(p.counts),
		UpdatedAt:   p.updatedAt,
	}
}

// Restore installs a previously captured profile, replacing any state held
// for its content type.
func (s *Store) Restore(profile Profile) error {
	if profile.ContentType == "" {
		return fmt.Errorf("profile has no content type")
	}
	if len(profile.Weights) == 0 {
		return fmt.Errorf("profile %q has no weights", profile.ContentType)
	}
	sum := 0.0
	for metric, w := range profile.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("profile %q has invalid weight %v for %q", profile.ContentType, w, metric)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("profile %q weights sum to %v", profile.ContentType, sum)
	}

	p := s.profile(profile.ContentType)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.weights = copyWeights(profile.Weights)
	p.counts = copyCounts(profile.Counts)
	p.updatedAt = profile.UpdatedAt
	if p.updatedAt.IsZero() {
		p.updatedAt = s.now()
	}

	return nil
}
