package gbm

import (
	"context"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepDataset() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		v := float64(i)
		x = append(x, []float64{v, math.Mod(v, 3)})
		if i < 10 {
			y = append(y, 20)
		} else {
			y = append(y, 80)
		}
	}
	return x, y
}

func TestTrainFitsStepFunction(t *testing.T) {
	x, y := stepDataset()
	model, err := Train(context.Background(), x, y, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, model.Trees, 100)

	low, err := model.Predict([]float64{2, 2})
	require.NoError(t, err)
	high, err := model.Predict([]float64{15, 0})
	require.NoError(t, err)

	assert.InDelta(t, 20, low, 0.5)
	assert.InDelta(t, 80, high, 0.5)
}

func TestTrainIsDeterministic(t *testing.T) {
	x, y := stepDataset()
	a, err := Train(context.Background(), x, y, Config{Estimators: 10})
	require.NoError(t, err)
	b, err := Train(context.Background(), x, y, Config{Estimators: 10})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrainConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{42, 42, 42}
	model, err := Train(context.Background(), x, y, Config{Estimators: 3})
	require.NoError(t, err)

	got, err := model.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 42, got, 1e-9)
	for _, tree := range model.Trees {
		assert.Len(t, tree.Nodes, 1)
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	_, err := Train(context.Background(), nil, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Train(context.Background(), [][]float64{{1, 2}, {3}}, []float64{1, 2}, DefaultConfig())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTrainHonoursContext(t *testing.T) {
	x, y := stepDataset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, x, y, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictDimensionMismatch(t *testing.T) {
	x, y := stepDataset()
	model, err := Train(context.Background(), x, y, Config{Estimators: 2})
	require.NoError(t, err)

	_, err = model.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestModelSurvivesJSON(t *testing.T) {
	x, y := stepDataset()
	model, err := Train(context.Background(), x, y, Config{Estimators: 5})
	require.NoError(t, err)

	raw, err := json.Marshal(model)
	require.NoError(t, err)
	var restored Model
	require.NoError(t, json.Unmarshal(raw, &restored))

	for _, row := range x {
		want, _ := model.Predict(row)
		got, err := restored.Predict(row)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	}
}
