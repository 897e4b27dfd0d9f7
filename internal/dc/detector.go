// Package dc implements the Directional Change event detector: an
// online, O(1)-per-tick state machine that turns a price stream into a
// sparse stream of confirmed trend reversals annotated with TMV, duration,
// and time-adjusted return.
package dc

import (
	"math"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// Trend is the detector's current view of price direction.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendUp
	TrendDown
)

// Event is a confirmed Directional Change.
type Event struct {
	Kind               schema.DCEventType
	TimestampNs        int64
	Price              float64
	TmvExt             float64
	DurationNs         int64
	TimeAdjustedReturn float64
}

// Detector tracks a single direction of price extremes for one symbol and
// emits Events on confirmed reversals. It is single-threaded by contract:
// callers must not call ProcessTick concurrently.
type Detector struct {
	theta float64

	trend Trend

	hasExtreme   bool
	extremePrice float64
	extremeTs    int64

	lastDCPrice float64
	lastDCTs    int64
}

// NewDetector creates a detector with threshold theta (e.g. 0.004 = 0.4%).
// theta must be strictly positive.
func NewDetector(theta float64) (*Detector, error) {
	if !(theta > 0) {
		return nil, xerrors.ErrInvalidTheta
	}
	return &Detector{theta: theta}, nil
}

// Theta returns the detector's configured threshold.
func (d *Detector) Theta() float64 { return d.theta }

// SetTheta updates the threshold used by subsequent ticks. It does not
// retroactively affect the current extreme or trend.
func (d *Detector) SetTheta(theta float64) error {
	if !(theta > 0) {
		return xerrors.ErrInvalidTheta
	}
	d.theta = theta
	return nil
}

// Reset clears all detector state; the next tick reseeds the extreme.
func (d *Detector) Reset() {
	*d = Detector{theta: d.theta}
}

// ProcessTick advances the detector by one price observation and returns
// the resulting event. The zero Event (Kind == schema.DCEventNone) means
// no reversal was confirmed on this tick.
//
// ProcessTick runs in O(1) and never blocks or allocates.
func (d *Detector) ProcessTick(price float64, timestampNs int64) (Event, error) {
	if !isFinite(price) {
		return Event{}, xerrors.ErrInvalidPrice
	}

	if !d.hasExtreme {
		d.extremePrice = price
		d.extremeTs = timestampNs
		d.hasExtreme = true
		d.lastDCPrice = price
		d.lastDCTs = timestampNs
		return Event{}, nil
	}

	var (
		confirmed bool
		kind      schema.DCEventType
	)

	switch d.trend {
	case TrendUnknown, TrendUp:
		if price > d.extremePrice {
			d.extremePrice = price
			d.extremeTs = timestampNs
		} else if (d.extremePrice-price)/d.extremePrice >= d.theta {
			kind = schema.DCEventDownturn
			d.trend = TrendDown
			confirmed = true
		}
	case TrendDown:
		if price < d.extremePrice {
			d.extremePrice = price
			d.extremeTs = timestampNs
		} else if (price-d.extremePrice)/d.extremePrice >= d.theta {
			kind = schema.DCEventUpturn
			d.trend = TrendUp
			confirmed = true
		}
	}

	if !confirmed {
		return Event{}, nil
	}

	previousExtreme := d.extremePrice
	tmvExt := math.Abs(price-previousExtreme) / (previousExtreme * d.theta)
	durationNs := d.extremeTs - d.lastDCTs
	timeAdjustedReturn := timeAdjustedReturn(tmvExt, durationNs, d.theta)

	event := Event{
		Kind:               kind,
		TimestampNs:        timestampNs,
		Price:              price,
		TmvExt:             tmvExt,
		DurationNs:         durationNs,
		TimeAdjustedReturn: timeAdjustedReturn,
	}

	// Post-emission state update: the confirming extreme becomes the new
	// "last DC" anchor, and the reversal tick seeds the next trend's extreme.
	d.lastDCPrice = d.extremePrice
	d.lastDCTs = d.extremeTs
	d.extremePrice = price
	d.extremeTs = timestampNs

	return event, nil
}

// State is a read-only snapshot of the detector's internal fields, for
// introspection and tests.
type State struct {
	Theta        float64
	Trend        Trend
	ExtremePrice float64
	ExtremeTs    int64
	LastDCPrice  float64
	LastDCTs     int64
}

// State returns a snapshot of the detector's current state.
func (d *Detector) State() State {
	return State{
		Theta:        d.theta,
		Trend:        d.trend,
		ExtremePrice: d.extremePrice,
		ExtremeTs:    d.extremeTs,
		LastDCPrice:  d.lastDCPrice,
		LastDCTs:     d.lastDCTs,
	}
}

func timeAdjustedReturn(tmvExt float64, durationNs int64, theta float64) float64 {
	if durationNs <= 0 {
		return 0.0
	}
	durationSeconds := float64(durationNs) / 1e9
	return (tmvExt / durationSeconds) * theta
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
