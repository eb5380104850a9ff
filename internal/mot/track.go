package mot

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackTentative TrackState = "tentative" // New track, needs confirmation
	TrackConfirmed TrackState = "confirmed" // Stable track with sufficient history
	TrackDeleted   TrackState = "deleted"   // Track marked for removal
)

// Track is a single tracked object. The matching layer reads Mean,
// Covariance and TimeSinceUpdate only; everything else belongs to the
// lifecycle managed by Tracker.
type Track struct {
	ID uuid.UUID

	// Predictive state distribution over
	// (x, y, a, h, vx, vy, va, vh).
	Mean       *mat.VecDense
	Covariance *mat.Dense

	State TrackState

	Hits            int // Successful associations since birth
	Age             int // Frames since birth
	TimeSinceUpdate int // Frames since the last successful association

	// Appearance descriptors collected from matched detections, kept
	// for upstream metrics that fuse appearance cost.
	Features [][]float64

	nInit  int
	maxAge int
}

func newTrack(mean *mat.VecDense, covariance *mat.Dense, nInit, maxAge int, feature []float64) *Track {
	track := &Track{
		ID:         uuid.New(),
		Mean:       mean,
		Covariance: covariance,
		State:      TrackTentative,
		Hits:       1,
		Age:        1,
		nInit:      nInit,
		maxAge:     maxAge,
	}
	if feature != nil {
		track.Features = append(track.Features, feature)
	}
	return track
}

// Predict propagates the state distribution one frame forward and ages
// the track. Must run once per frame before association.
func (t *Track) Predict(kf *KalmanFilter) {
	t.Mean, t.Covariance = kf.Predict(t.Mean, t.Covariance)
	t.Age++
	t.TimeSinceUpdate++
}

// Update corrects the state with a matched detection and advances the
// lifecycle: a tentative track is confirmed once it has nInit hits.
func (t *Track) Update(kf *KalmanFilter, det Detection) error {
	mean, covariance, err := kf.Update(t.Mean, t.Covariance, det.XYAH())
	if err != nil {
		return err
	}
	t.Mean, t.Covariance = mean, covariance
	if det.Feature != nil {
		t.Features = append(t.Features, det.Feature)
	}

	t.Hits++
	t.TimeSinceUpdate = 0
	if t.State == TrackTentative && t.Hits >= t.nInit {
		t.State = TrackConfirmed
	}
	return nil
}

// MarkMissed records a frame without a matching detection. A tentative
// track dies immediately; a confirmed track survives until it has
// coasted past maxAge frames.
func (t *Track) MarkMissed() {
	if t.State == TrackTentative || t.TimeSinceUpdate > t.maxAge {
		t.State = TrackDeleted
	}
}

// IsConfirmed reports whether the track has been confirmed.
func (t *Track) IsConfirmed() bool { return t.State == TrackConfirmed }

// IsDeleted reports whether the track is marked for removal.
func (t *Track) IsDeleted() bool { return t.State == TrackDeleted }

// TLWH returns the current box estimate as
// (top-left x, top-left y, width, height).
func (t *Track) TLWH() [4]float64 {
	a, h := t.Mean.AtVec(2), t.Mean.AtVec(3)
	w := a * h
	return [4]float64{t.Mean.AtVec(0) - w/2, t.Mean.AtVec(1) - h/2, w, h}
}
