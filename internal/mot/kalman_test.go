package mot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKalmanFilterInitiate(t *testing.T) {
	t.Parallel()

	kf := NewKalmanFilter()
	mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})

	assert.Equal(t, 100.0, mean.AtVec(0))
	assert.Equal(t, 50.0, mean.AtVec(1))
	assert.Equal(t, 0.5, mean.AtVec(2))
	assert.Equal(t, 80.0, mean.AtVec(3))
	for i := 4; i < stateDim; i++ {
		assert.Zero(t, mean.AtVec(i), "velocity component %d should start at zero", i)
	}

	for i := 0; i < stateDim; i++ {
		assert.Greater(t, covariance.At(i, i), 0.0, "diagonal %d must be positive", i)
		for j := 0; j < stateDim; j++ {
			if i != j {
				assert.Zero(t, covariance.At(i, j), "initial covariance must be diagonal")
			}
		}
	}
}

func TestKalmanFilterPredict(t *testing.T) {
	t.Parallel()

	kf := NewKalmanFilter()

	t.Run("constant velocity moves the box", func(t *testing.T) {
		t.Parallel()
		mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})
		mean.SetVec(4, 3) // vx
		mean.SetVec(5, -2)

		next, _ := kf.Predict(mean, covariance)
		assert.InDelta(t, 103, next.AtVec(0), 1e-12)
		assert.InDelta(t, 48, next.AtVec(1), 1e-12)
		assert.InDelta(t, 0.5, next.AtVec(2), 1e-12)
		assert.InDelta(t, 80, next.AtVec(3), 1e-12)
	})

	t.Run("uncertainty grows without measurements", func(t *testing.T) {
		t.Parallel()
		mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})
		_, next := kf.Predict(mean, covariance)
		assert.Greater(t, next.At(0, 0), covariance.At(0, 0))
		assert.Greater(t, next.At(1, 1), covariance.At(1, 1))
	})

	t.Run("inputs are untouched", func(t *testing.T) {
		t.Parallel()
		mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})
		before := mean.AtVec(0)
		beforeVar := covariance.At(0, 0)
		kf.Predict(mean, covariance)
		assert.Equal(t, before, mean.AtVec(0))
		assert.Equal(t, beforeVar, covariance.At(0, 0))
	})
}

func TestKalmanFilterUpdate(t *testing.T) {
	t.Parallel()

	kf := NewKalmanFilter()
	mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})
	mean, covariance = kf.Predict(mean, covariance)

	measurement := [4]float64{110, 55, 0.5, 80}
	newMean, newCov, err := kf.Update(mean, covariance, measurement)
	require.NoError(t, err)

	// Posterior mean lands between prediction and measurement.
	assert.Greater(t, newMean.AtVec(0), mean.AtVec(0))
	assert.Less(t, newMean.AtVec(0), measurement[0])
	assert.Greater(t, newMean.AtVec(1), mean.AtVec(1))
	assert.Less(t, newMean.AtVec(1), measurement[1])

	// Measurements shrink positional uncertainty.
	assert.Less(t, newCov.At(0, 0), covariance.At(0, 0))
	assert.Less(t, newCov.At(1, 1), covariance.At(1, 1))
}

func TestKalmanFilterGatingDistance(t *testing.T) {
	t.Parallel()

	kf := NewKalmanFilter()
	mean, covariance := kf.Initiate([4]float64{100, 50, 0.5, 80})
	mean, covariance = kf.Predict(mean, covariance)

	t.Run("distance grows with displacement", func(t *testing.T) {
		t.Parallel()
		measurements := [][4]float64{
			{100, 50, 0.5, 80},  // at the predicted box
			{105, 50, 0.5, 80},  // nearby
			{300, 400, 0.5, 80}, // far away
		}
		distances, err := kf.GatingDistance(mean, covariance, measurements, false)
		require.NoError(t, err)
		require.Len(t, distances, 3)

		assert.InDelta(t, 0, distances[0], 1e-9)
		assert.Greater(t, distances[1], distances[0])
		assert.Greater(t, distances[2], distances[1])
		assert.Greater(t, distances[2], Chi2Inv95[4], "a far measurement must fail the gate")
	})

	t.Run("only position ignores shape mismatch", func(t *testing.T) {
		t.Parallel()
		// Same position, wildly different aspect and height.
		measurements := [][4]float64{{100, 50, 3.0, 10}}

		full, err := kf.GatingDistance(mean, covariance, measurements, false)
		require.NoError(t, err)
		positional, err := kf.GatingDistance(mean, covariance, measurements, true)
		require.NoError(t, err)

		assert.Greater(t, full[0], Chi2Inv95[4])
		assert.InDelta(t, 0, positional[0], 1e-9)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		measurements := [][4]float64{{104, 52, 0.5, 80}}
		a, err := kf.GatingDistance(mean, covariance, measurements, false)
		require.NoError(t, err)
		b, err := kf.GatingDistance(mean, covariance, measurements, false)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty measurement set", func(t *testing.T) {
		t.Parallel()
		distances, err := kf.GatingDistance(mean, covariance, nil, false)
		require.NoError(t, err)
		assert.Empty(t, distances)
	})
}
