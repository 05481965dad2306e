package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/trendpulse/internal/utils"
)

// DefaultMaxSeriesSize bounds a single classification request.
const DefaultMaxSeriesSize = 10000

// groupedNumber matches comma thousands grouping such as "1,200" or
// "12,345.5". Any other comma is ambiguous and rejected.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Series is a validated value sequence ready for classification. Missing
// observations are NaN.
type Series struct {
	Values     []float64
	Timestamps []time.Time
}

// Len is the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// SeriesParser converts loosely typed upstream payloads into a Series and
// rejects anything malformed before it reaches the classifier.
type SeriesParser struct {
	MaxPoints int
}

func NewSeriesParser(maxPoints int) *SeriesParser {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxSeriesSize
	}
	return &SeriesParser{MaxPoints: maxPoints}
}

type rawSeries struct {
	Values     []json.RawMessage `json:"values"`
	Timestamps []time.Time       `json:"timestamps"`
}

// Parse decodes {"values": [...], "timestamps": [...]}. Values may be
// numbers, numeric strings or null.
func (p *SeriesParser) Parse(raw []byte) (Series, error) {
	var payload rawSeries
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Series{}, utils.NewValidationErrorf("malformed series payload: %v", err)
	}

	values := make([]any, len(payload.Values))
	for i, msg := range payload.Values {
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&values[i]); err != nil {
			return Series{}, utils.NewFieldError("values", "element %d: %v", i, err)
		}
	}

	return p.FromValues(values, payload.Timestamps)
}

// FromValues validates already-decoded values, as produced by a JSON binding
// or a CLI flag.
func (p *SeriesParser) FromValues(values []any, timestamps []time.Time) (Series, error) {
	if len(values) == 0 {
		return Series{}, utils.NewFieldError("values", "must not be empty")
	}
	if limit := p.maxPoints(); len(values) > limit {
		return Series{}, utils.NewFieldError("values", "has %d points, limit is %d", len(values), limit)
	}
	if len(timestamps) > 0 && len(timestamps) != len(values) {
		return Series{}, utils.NewFieldError("timestamps", "has %d entries for %d values", len(timestamps), len(values))
	}

	out := make([]float64, len(values))
	for i, v := range values {
		f, err := toObservation(v)
		if err != nil {
			return Series{}, utils.NewFieldError("values", "element %d: %v", i, err)
		}
		if f < 0 {
			return Series{}, utils.NewFieldError("values", "element %d: negative value %v", i, f)
		}
		out[i] = f
	}

	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].Before(timestamps[i-1]) {
			return Series{}, utils.NewFieldError("timestamps", "entry %d is earlier than entry %d", i, i-1)
		}
	}

	var ts []time.Time
	if len(timestamps) > 0 {
		ts = append([]time.Time(nil), timestamps...)
	}
	return Series{Values: out, Timestamps: ts}, nil
}

// FromFloats validates a plain float slice.
func (p *SeriesParser) FromFloats(values []float64, timestamps []time.Time) (Series, error) {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}
	return p.FromValues(anys, timestamps)
}

func (p *SeriesParser) maxPoints() int {
	if p.MaxPoints <= 0 {
		return DefaultMaxSeriesSize
	}
	return p.MaxPoints
}

// toObservation maps one element to a float. nil is a missing observation.
func toObservation(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return math.NaN(), nil
		}
		if strings.Contains(s, ",") {
			if !groupedNumber.MatchString(s) {
				return 0, fmt.Errorf("not a number: %q", x)
			}
			s = strings.ReplaceAll(s, ",", "")
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return f, nil
}
