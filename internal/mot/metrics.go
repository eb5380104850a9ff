package mot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// IoUMetric scores track-detection pairs by 1 − intersection-over-
// union of their boxes. Tracks that have coasted for more than one
// frame carry a stale box estimate, so all of their entries are marked
// infeasible; the matching cascade handles those via the motion model
// instead.
func IoUMetric(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (*mat.Dense, error) {
	cost := mat.NewDense(len(trackIndices), len(detectionIndices), nil)
	for row, ti := range trackIndices {
		track := tracks[ti]
		if track.TimeSinceUpdate > 1 {
			for col := range detectionIndices {
				cost.Set(row, col, DefaultGatedCost)
			}
			continue
		}
		box := track.TLWH()
		for col, di := range detectionIndices {
			cost.Set(row, col, 1-iou(box, detections[di].TLWH))
		}
	}
	return cost, nil
}

// iou computes intersection over union for two boxes in
// (top-left x, top-left y, width, height) form.
func iou(a, b [4]float64) float64 {
	ax2, ay2 := a[0]+a[2], a[1]+a[3]
	bx2, by2 := b[0]+b[2], b[1]+b[3]

	ix := min(ax2, bx2) - max(a[0], b[0])
	iy := min(ay2, by2) - max(a[1], b[1])
	if ix <= 0 || iy <= 0 {
		return 0
	}
	intersection := ix * iy
	union := a[2]*a[3] + b[2]*b[3] - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// MahalanobisMetric returns a Metric whose cost is the squared gating
// distance under the motion model. This is the motion-only association
// cost; pair it with Chi2Inv95 thresholds for maxDistance.
func MahalanobisMetric(mm MotionModel, onlyPosition bool) Metric {
	return func(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (*mat.Dense, error) {
		measurements := make([][4]float64, len(detectionIndices))
		for i, di := range detectionIndices {
			measurements[i] = detections[di].XYAH()
		}

		cost := mat.NewDense(len(trackIndices), len(detectionIndices), nil)
		for row, ti := range trackIndices {
			track := tracks[ti]
			distances, err := mm.GatingDistance(track.Mean, track.Covariance, measurements, onlyPosition)
			if err != nil {
				return nil, fmt.Errorf("mot: mahalanobis metric row %d: %w", row, err)
			}
			for col, d := range distances {
				cost.Set(row, col, d)
			}
		}
		return cost, nil
	}
}

// GatedMetric composes a base cost metric with chi-square gating: the
// base matrix is computed first, then infeasible entries are forced to
// gatedCost via GateCostMatrix. Use this to combine an upstream
// appearance cost with motion feasibility.
func GatedMetric(mm MotionModel, base Metric, gatedCost float64, onlyPosition bool) Metric {
	return func(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (*mat.Dense, error) {
		cost, err := base(tracks, detections, trackIndices, detectionIndices)
		if err != nil {
			return nil, err
		}
		return GateCostMatrix(mm, cost, tracks, detections, trackIndices, detectionIndices, gatedCost, onlyPosition)
	}
}
