package mot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fakeMotionModel serves one fixed gating-distance row regardless of
// track state.
type fakeMotionModel struct {
	distances []float64
	err       error
}

func (f *fakeMotionModel) GatingDistance(_ *mat.VecDense, _ *mat.Dense, measurements [][4]float64, _ bool) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.distances[:len(measurements)], nil
}

func TestGateCostMatrix(t *testing.T) {
	t.Parallel()

	threshold4 := Chi2Inv95[4]
	threshold2 := Chi2Inv95[2]

	t.Run("threshold boundary", func(t *testing.T) {
		t.Parallel()
		// Exactly at the critical value stays feasible; strictly
		// above is gated.
		mm := &fakeMotionModel{distances: []float64{threshold4, threshold4 + 1e-6, threshold4 - 1e-6}}
		cost := mat.NewDense(1, 3, []float64{0.1, 0.2, 0.3})
		gated, err := GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 3), []int{0}, []int{0, 1, 2}, DefaultGatedCost, false)
		require.NoError(t, err)
		assert.Equal(t, 0.1, gated.At(0, 0))
		assert.Equal(t, DefaultGatedCost, gated.At(0, 1))
		assert.Equal(t, 0.3, gated.At(0, 2))
	})

	t.Run("only position uses two degrees of freedom", func(t *testing.T) {
		t.Parallel()
		// A distance between the 2-DOF and 4-DOF critical values is
		// gated in position-only mode but feasible in full mode.
		between := (threshold2 + threshold4) / 2
		mm := &fakeMotionModel{distances: []float64{between}}
		cost := mat.NewDense(1, 1, []float64{0.5})

		gated, err := GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 1), []int{0}, []int{0}, DefaultGatedCost, true)
		require.NoError(t, err)
		assert.Equal(t, DefaultGatedCost, gated.At(0, 0))

		gated, err = GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 1), []int{0}, []int{0}, DefaultGatedCost, false)
		require.NoError(t, err)
		assert.Equal(t, 0.5, gated.At(0, 0))
	})

	t.Run("input matrix is not modified", func(t *testing.T) {
		t.Parallel()
		mm := &fakeMotionModel{distances: []float64{threshold4 + 1}}
		cost := mat.NewDense(1, 1, []float64{0.5})
		_, err := GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 1), []int{0}, []int{0}, DefaultGatedCost, false)
		require.NoError(t, err)
		assert.Equal(t, 0.5, cost.At(0, 0))
	})

	t.Run("dimension mismatch fails fast", func(t *testing.T) {
		t.Parallel()
		mm := &fakeMotionModel{distances: []float64{0}}
		cost := mat.NewDense(2, 1, []float64{0.5, 0.5})
		_, err := GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 1), []int{0}, []int{0}, DefaultGatedCost, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})

	t.Run("motion model error propagates", func(t *testing.T) {
		t.Parallel()
		modelErr := errors.New("covariance not positive definite")
		mm := &fakeMotionModel{err: modelErr}
		cost := mat.NewDense(1, 1, []float64{0.5})
		_, err := GateCostMatrix(mm, cost, coastingTracks(1), make([]Detection, 1), []int{0}, []int{0}, DefaultGatedCost, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, modelErr))
	})
}

func TestGatedMetric(t *testing.T) {
	t.Parallel()

	t.Run("forces infeasible entries to gated cost", func(t *testing.T) {
		t.Parallel()
		mm := &fakeMotionModel{distances: []float64{0, Chi2Inv95[4] + 1}}
		base := fixedMetric([]float64{0.2, 0.3})
		metric := GatedMetric(mm, base, DefaultGatedCost, false)

		cost, err := metric(coastingTracks(1), make([]Detection, 2), []int{0}, []int{0, 1})
		require.NoError(t, err)
		assert.Equal(t, 0.2, cost.At(0, 0))
		assert.Equal(t, DefaultGatedCost, cost.At(0, 1))
	})

	t.Run("base metric error propagates", func(t *testing.T) {
		t.Parallel()
		baseErr := errors.New("bad features")
		base := func(_ []*Track, _ []Detection, _, _ []int) (*mat.Dense, error) {
			return nil, baseErr
		}
		metric := GatedMetric(&fakeMotionModel{distances: []float64{0}}, base, DefaultGatedCost, false)
		_, err := metric(coastingTracks(1), make([]Detection, 1), []int{0}, []int{0})
		require.Error(t, err)
		assert.True(t, errors.Is(err, baseErr))
	})
}
