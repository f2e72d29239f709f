package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/cleanse/internal/table"
)

func TestQuantile(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}

	assert.InDelta(t, 3.25, quantile(data, 0.25), 1e-9)
	assert.InDelta(t, 7.75, quantile(data, 0.75), 1e-9)
	assert.InDelta(t, 5.5, quantile(data, 0.5), 1e-9)
	assert.Equal(t, 1.0, quantile(data, 0))
	assert.Equal(t, 100.0, quantile(data, 1))
	assert.Equal(t, 42.0, quantile([]float64{42}, 0.25))
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{1, 2, 4, 100}))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.138, std, 1e-3) // sample deviation

	mean, std = meanStd([]float64{7})
	assert.Equal(t, 7.0, mean)
	assert.Zero(t, std)
}

func TestMode(t *testing.T) {
	t.Run("most frequent", func(t *testing.T) {
		v, ok := mode(table.MustColumn("c", table.Text, "b", "a", "a", nil, "a", "b"))
		assert.True(t, ok)
		assert.Equal(t, "a", v.Str)
	})

	t.Run("tie goes to first occurrence", func(t *testing.T) {
		v, ok := mode(table.MustColumn("c", table.Text, "y", "x", "x", "y"))
		assert.True(t, ok)
		assert.Equal(t, "y", v.Str)
	})

	t.Run("all null", func(t *testing.T) {
		_, ok := mode(table.MustColumn("c", table.Numeric, nil, nil))
		assert.False(t, ok)
	})
}

func TestNumericViewDatetime(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	c := table.MustColumn("d", table.Datetime, d1, nil, d3)

	xs := numericView(c)
	assert.Len(t, xs, 2)
	got := fromFloat(table.Datetime, median(xs))
	assert.True(t, got.Time.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), "got %v", got.Time)

	assert.Nil(t, numericView(table.MustColumn("s", table.Text, "a")))
}
