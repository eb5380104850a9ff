package mot

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	stateDim = 8 // [x, y, a, h, vx, vy, va, vh]
	measDim  = 4 // [x, y, a, h]
)

// Measurement noise scales with box height: bigger boxes are closer
// to the camera and carry proportionally larger pixel uncertainty.
const (
	stdWeightPosition = 1.0 / 20
	stdWeightVelocity = 1.0 / 160
)

// ErrSingularCovariance reports a projected innovation covariance that
// is not positive definite, so the Cholesky-based distance and update
// steps cannot proceed.
var ErrSingularCovariance = errors.New("mot: projected covariance is not positive definite")

// KalmanFilter tracks bounding boxes in image space with a constant
// velocity model over the 8-dimensional state
// (center-x, center-y, aspect-ratio, height) plus their velocities.
// Object motion between frames is assumed linear; the box parameters
// are observed directly. One filter instance serves any number of
// tracks since all per-track state lives in the (mean, covariance)
// pairs it hands back.
//
// It satisfies MotionModel via GatingDistance.
type KalmanFilter struct {
	motion     *mat.Dense // 8x8 state transition, dt = 1 frame
	projection *mat.Dense // 4x8 measurement matrix
}

// NewKalmanFilter builds the shared transition and projection
// matrices.
func NewKalmanFilter() *KalmanFilter {
	motion := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		motion.Set(i, i, 1)
		if i < measDim {
			motion.Set(i, i+measDim, 1)
		}
	}
	projection := mat.NewDense(measDim, stateDim, nil)
	for i := 0; i < measDim; i++ {
		projection.Set(i, i, 1)
	}
	return &KalmanFilter{motion: motion, projection: projection}
}

// Initiate creates the state distribution for a track born from an
// unassociated measurement in (x, y, a, h) form. Velocities start at
// zero with generous uncertainty.
func (kf *KalmanFilter) Initiate(measurement [4]float64) (*mat.VecDense, *mat.Dense) {
	mean := mat.NewVecDense(stateDim, nil)
	for i := 0; i < measDim; i++ {
		mean.SetVec(i, measurement[i])
	}

	h := measurement[3]
	std := [stateDim]float64{
		2 * stdWeightPosition * h,
		2 * stdWeightPosition * h,
		1e-2,
		2 * stdWeightPosition * h,
		10 * stdWeightVelocity * h,
		10 * stdWeightVelocity * h,
		1e-5,
		10 * stdWeightVelocity * h,
	}
	covariance := mat.NewDense(stateDim, stateDim, nil)
	for i, s := range std {
		covariance.Set(i, i, s*s)
	}
	return mean, covariance
}

// Predict runs the prediction step, returning the prior distribution
// for the next frame. The inputs are not modified.
func (kf *KalmanFilter) Predict(mean *mat.VecDense, covariance *mat.Dense) (*mat.VecDense, *mat.Dense) {
	h := mean.AtVec(3)
	std := [stateDim]float64{
		stdWeightPosition * h,
		stdWeightPosition * h,
		1e-2,
		stdWeightPosition * h,
		stdWeightVelocity * h,
		stdWeightVelocity * h,
		1e-5,
		stdWeightVelocity * h,
	}

	next := mat.NewVecDense(stateDim, nil)
	next.MulVec(kf.motion, mean)

	var fp, fpf mat.Dense
	fp.Mul(kf.motion, covariance)
	fpf.Mul(&fp, kf.motion.T())
	for i, s := range std {
		fpf.Set(i, i, fpf.At(i, i)+s*s)
	}
	return next, &fpf
}

// project maps the state distribution into measurement space and adds
// measurement noise.
func (kf *KalmanFilter) project(mean *mat.VecDense, covariance *mat.Dense) (*mat.VecDense, *mat.Dense) {
	h := mean.AtVec(3)
	std := [measDim]float64{
		stdWeightPosition * h,
		stdWeightPosition * h,
		1e-1,
		stdWeightPosition * h,
	}

	projMean := mat.NewVecDense(measDim, nil)
	projMean.MulVec(kf.projection, mean)

	var hp, hph mat.Dense
	hp.Mul(kf.projection, covariance)
	hph.Mul(&hp, kf.projection.T())
	for i, s := range std {
		hph.Set(i, i, hph.At(i, i)+s*s)
	}
	return projMean, &hph
}

// Update runs the correction step against a measurement in
// (x, y, a, h) form and returns the posterior distribution.
func (kf *KalmanFilter) Update(mean *mat.VecDense, covariance *mat.Dense, measurement [4]float64) (*mat.VecDense, *mat.Dense, error) {
	projMean, projCov := kf.project(mean, covariance)

	chol, err := factorize(projCov)
	if err != nil {
		return nil, nil, err
	}

	// Gain K = P Hᵀ S⁻¹, computed via the Cholesky solve
	// S Kᵀ = H P (P is symmetric).
	var hp mat.Dense
	hp.Mul(kf.projection, covariance)
	var gainT mat.Dense
	if err := chol.SolveTo(&gainT, &hp); err != nil {
		return nil, nil, fmt.Errorf("mot: kalman gain solve: %w", err)
	}

	innovation := mat.NewVecDense(measDim, nil)
	for i := 0; i < measDim; i++ {
		innovation.SetVec(i, measurement[i]-projMean.AtVec(i))
	}

	var correction mat.VecDense
	correction.MulVec(gainT.T(), innovation)
	newMean := mat.NewVecDense(stateDim, nil)
	newMean.AddVec(mean, &correction)

	// P' = P − K S Kᵀ, the Joseph-free form valid for the optimal gain.
	var ks, ksk mat.Dense
	ks.Mul(gainT.T(), projCov)
	ksk.Mul(&ks, &gainT)
	var newCov mat.Dense
	newCov.Sub(covariance, &ksk)
	return newMean, &newCov, nil
}

// GatingDistance returns the squared Mahalanobis distance between the
// state distribution and each measurement. With onlyPosition the
// comparison is restricted to the (x, y) block, dropping the degrees
// of freedom from 4 to 2.
func (kf *KalmanFilter) GatingDistance(mean *mat.VecDense, covariance *mat.Dense, measurements [][4]float64, onlyPosition bool) ([]float64, error) {
	projMean, projCov := kf.project(mean, covariance)

	dim := measDim
	if onlyPosition {
		dim = 2
		projCov = mat.DenseCopyOf(projCov.Slice(0, dim, 0, dim))
	}

	chol, err := factorize(projCov)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(measurements))
	diff := mat.NewVecDense(dim, nil)
	var solved mat.VecDense
	for i, z := range measurements {
		for j := 0; j < dim; j++ {
			diff.SetVec(j, z[j]-projMean.AtVec(j))
		}
		if err := chol.SolveVecTo(&solved, diff); err != nil {
			return nil, fmt.Errorf("mot: gating solve: %w", err)
		}
		distances[i] = mat.Dot(diff, &solved)
	}
	return distances, nil
}

// factorize symmetrises a nominally symmetric dense matrix and takes
// its Cholesky decomposition.
func factorize(m *mat.Dense) (*mat.Cholesky, error) {
	r, _ := m.Dims()
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, ErrSingularCovariance
	}
	return &chol, nil
}
