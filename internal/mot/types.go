package mot

import (
	"gonum.org/v1/gonum/mat"
)

// Match pairs a track index with a detection index. Both refer to
// positions in the caller's original collections, never to cost-matrix
// rows or columns.
type Match struct {
	TrackIdx     int
	DetectionIdx int
}

// Metric produces a dense association-cost matrix over exactly the
// given index subsets: row i corresponds to trackIndices[i], column j
// to detectionIndices[j]. It is a caller-supplied strategy; a metric
// may fuse appearance and motion cost upstream, apply gating via
// GateCostMatrix, or return fixed costs in tests.
type Metric func(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (*mat.Dense, error)

// MotionModel is the query surface of the predictive filter consumed
// by cost gating: one squared gating distance per measurement between
// the state distribution (mean, covariance) and each candidate box.
// Implementations must be deterministic and side-effect free.
type MotionModel interface {
	GatingDistance(mean *mat.VecDense, covariance *mat.Dense, measurements [][4]float64, onlyPosition bool) ([]float64, error)
}

// Detection is a single detector observation in one frame. The box is
// stored as (top-left x, top-left y, width, height); Feature carries
// an optional appearance descriptor for upstream cost fusion and is
// never read by this package.
type Detection struct {
	TLWH       [4]float64
	Confidence float64
	Feature    []float64
}

// XYAH returns the (center-x, center-y, aspect-ratio, height) box
// representation consumed by the motion model.
func (d Detection) XYAH() [4]float64 {
	w, h := d.TLWH[2], d.TLWH[3]
	return [4]float64{d.TLWH[0] + w/2, d.TLWH[1] + h/2, w / h, h}
}

// TLBR returns the (min-x, min-y, max-x, max-y) corner representation.
func (d Detection) TLBR() [4]float64 {
	return [4]float64{d.TLWH[0], d.TLWH[1], d.TLWH[0] + d.TLWH[2], d.TLWH[1] + d.TLWH[3]}
}
