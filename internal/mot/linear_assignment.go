package mot

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// clampEpsilon is added to maxDistance for the pre-solve clamp. It
// exists only to break the boundary tie inside the solver: an entry
// exactly at maxDistance must survive the post-hoc reject, while
// anything clamped sits strictly above it. It is not a second
// tolerance band.
const clampEpsilon = 1e-5

// DefaultGatedCost is the sentinel written into cost matrix entries
// that fail the chi-square gate. Large relative to any real
// association cost, finite so the solver never sees an infinity.
const DefaultGatedCost = 1e5

// Chi2Inv95 holds the 0.95 quantile of the chi-square distribution,
// indexed by degrees of freedom. Gating uses 4 degrees for the full
// (x, y, aspect, height) measurement and 2 for position-only.
var Chi2Inv95 = map[int]float64{
	1: 3.8415,
	2: 5.9915,
	3: 7.8147,
	4: 9.4877,
	5: 11.070,
	6: 12.592,
	7: 14.067,
	8: 15.507,
	9: 16.919,
}

// ErrDimensionMismatch reports a cost matrix whose shape disagrees
// with the supplied index lists. It is a precondition violation: the
// caller's metric and index bookkeeping are out of sync, so matching
// rejects the call before any solver work.
var ErrDimensionMismatch = errors.New("mot: cost matrix dimensions do not match index lists")

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// MinCostMatching runs one gated matching round over the given track
// and detection subsets. The metric supplies the cost matrix; entries
// are clamped to maxDistance+clampEpsilon before solving, and any
// solved pair whose original cost exceeds maxDistance is demoted to
// unmatched. Both threshold checks use the same maxDistance.
//
// nil index lists mean "all tracks" / "all detections". Returned
// indices are always positions in the caller's original collections.
func MinCostMatching(metric Metric, maxDistance float64, tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (matches []Match, unmatchedTracks, unmatchedDetections []int, err error) {
	if trackIndices == nil {
		trackIndices = allIndices(len(tracks))
	}
	if detectionIndices == nil {
		detectionIndices = allIndices(len(detections))
	}
	if len(trackIndices) == 0 || len(detectionIndices) == 0 {
		unmatchedTracks = append([]int(nil), trackIndices...)
		unmatchedDetections = append([]int(nil), detectionIndices...)
		return nil, unmatchedTracks, unmatchedDetections, nil
	}

	cost, err := metric(tracks, detections, trackIndices, detectionIndices)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mot: cost metric: %w", err)
	}
	n, m := cost.Dims()
	if n != len(trackIndices) || m != len(detectionIndices) {
		return nil, nil, nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrDimensionMismatch, n, m, len(trackIndices), len(detectionIndices))
	}

	// Cap extreme costs so infeasible sentinels cannot distort the
	// optimum; the unclamped matrix still decides acceptance below.
	limit := maxDistance + clampEpsilon
	clamped := make([]float64, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			v := cost.At(i, j)
			if v > limit {
				v = limit
			}
			clamped[i*m+j] = v
		}
	}

	assignment := SolveAssignment(clamped, n, m)
	dedupeColumns(assignment)

	assignedCols := make([]bool, m)
	for _, col := range assignment {
		if col != Unassigned {
			assignedCols[col] = true
		}
	}
	for col := 0; col < m; col++ {
		if !assignedCols[col] {
			unmatchedDetections = append(unmatchedDetections, detectionIndices[col])
		}
	}

	for row, col := range assignment {
		if col == Unassigned {
			unmatchedTracks = append(unmatchedTracks, trackIndices[row])
			continue
		}
		if cost.At(row, col) > maxDistance {
			unmatchedTracks = append(unmatchedTracks, trackIndices[row])
			unmatchedDetections = append(unmatchedDetections, detectionIndices[col])
			continue
		}
		matches = append(matches, Match{TrackIdx: trackIndices[row], DetectionIdx: detectionIndices[col]})
	}
	return matches, unmatchedTracks, unmatchedDetections, nil
}

// MatchingCascade partitions matching into priority rounds so that
// recently updated tracks get first access to detections. Level L
// considers exactly the tracks with TimeSinceUpdate == L+1; a track
// whose level has not come up yet simply waits, it is never skipped
// permanently. cascadeDepth should equal the maximum allowed track
// age.
func MatchingCascade(metric Metric, maxDistance float64, cascadeDepth int, tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) (matches []Match, unmatchedTracks, unmatchedDetections []int, err error) {
	if trackIndices == nil {
		trackIndices = allIndices(len(tracks))
	}
	if detectionIndices == nil {
		detectionIndices = allIndices(len(detections))
	}

	unmatchedDetections = append([]int(nil), detectionIndices...)
	remaining := append([]int(nil), trackIndices...)

	for level := 0; level < cascadeDepth; level++ {
		if len(unmatchedDetections) == 0 {
			break
		}

		var levelIndices []int
		for _, ti := range remaining {
			if tracks[ti].TimeSinceUpdate == level+1 {
				levelIndices = append(levelIndices, ti)
			}
		}
		if len(levelIndices) == 0 {
			continue
		}

		levelMatches, _, levelUnmatched, err := MinCostMatching(metric, maxDistance, tracks, detections, levelIndices, unmatchedDetections)
		if err != nil {
			return nil, nil, nil, err
		}
		matches = append(matches, levelMatches...)
		unmatchedDetections = levelUnmatched

		if len(levelMatches) == 0 {
			continue
		}
		// Rebuild the survivor list rather than erasing in place.
		matched := make(map[int]bool, len(levelMatches))
		for _, m := range levelMatches {
			matched[m.TrackIdx] = true
		}
		survivors := make([]int, 0, len(remaining)-len(levelMatches))
		for _, ti := range remaining {
			if !matched[ti] {
				survivors = append(survivors, ti)
			}
		}
		remaining = survivors
	}

	return matches, remaining, unmatchedDetections, nil
}

// GateCostMatrix returns a copy of cost where statistically infeasible
// track-detection pairs are forced to gatedCost. A pair is infeasible
// when its squared gating distance under the motion model is strictly
// greater than the chi-square 95% critical value for the gating
// dimensionality (2 when onlyPosition, otherwise 4); a distance
// exactly at the threshold stays feasible. The input matrix is not
// modified.
func GateCostMatrix(mm MotionModel, cost *mat.Dense, tracks []*Track, detections []Detection, trackIndices, detectionIndices []int, gatedCost float64, onlyPosition bool) (*mat.Dense, error) {
	n, m := cost.Dims()
	if n != len(trackIndices) || m != len(detectionIndices) {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrDimensionMismatch, n, m, len(trackIndices), len(detectionIndices))
	}

	gatingDim := 4
	if onlyPosition {
		gatingDim = 2
	}
	threshold := Chi2Inv95[gatingDim]

	measurements := make([][4]float64, len(detectionIndices))
	for i, di := range detectionIndices {
		measurements[i] = detections[di].XYAH()
	}

	gated := mat.DenseCopyOf(cost)
	for row, ti := range trackIndices {
		track := tracks[ti]
		distances, err := mm.GatingDistance(track.Mean, track.Covariance, measurements, onlyPosition)
		if err != nil {
			return nil, fmt.Errorf("mot: gating distance for track row %d: %w", row, err)
		}
		for col, d := range distances {
			if d > threshold {
				gated.Set(row, col, gatedCost)
			}
		}
	}
	return gated, nil
}
