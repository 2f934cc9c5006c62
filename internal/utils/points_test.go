package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecosort/waste-bank/internal/config"
)

var testRates = config.RewardRates{Organic: 10, Recyclable: 15, Hazardous: 5}

func TestCalculatePoints(t *testing.T) {
	b := CalculatePoints(2.5, 1.8, 0.3, testRates)

	assert.Equal(t, uint64(25), b.Organic)
	assert.Equal(t, uint64(27), b.Recyclable)
	assert.Equal(t, uint64(1), b.Hazardous)
	assert.Equal(t, uint64(53), b.Total())
}

func TestCalculatePoints_Truncates(t *testing.T) {
	// 0.19 kg * 10 = 1.9 points, which truncates down, never rounds up.
	b := CalculatePoints(0.19, 0, 0, testRates)
	assert.Equal(t, uint64(1), b.Organic)
	assert.Equal(t, uint64(1), b.Total())

	// Below one whole point the submission earns nothing.
	b = CalculatePoints(0.09, 0, 0, testRates)
	assert.Equal(t, uint64(0), b.Total())
}

func TestCalculatePoints_ZeroWeights(t *testing.T) {
	b := CalculatePoints(0, 0, 0, testRates)
	assert.Equal(t, uint64(0), b.Organic)
	assert.Equal(t, uint64(0), b.Recyclable)
	assert.Equal(t, uint64(0), b.Hazardous)
	assert.Equal(t, uint64(0), b.Total())
}

func TestCalculatePoints_SingleCategory(t *testing.T) {
	b := CalculatePoints(0, 4.0, 0, testRates)
	assert.Equal(t, uint64(0), b.Organic)
	assert.Equal(t, uint64(60), b.Recyclable)
	assert.Equal(t, uint64(0), b.Hazardous)
	assert.Equal(t, uint64(60), b.Total())
}

func TestCalculatePoints_HugeWeightsCannotWrap(t *testing.T) {
	// An absurd weight must not saturate the uint64 conversion to an
	// implementation-defined value.
	b := CalculatePoints(3e18, 0, 0, testRates)
	assert.Equal(t, maxEntryPoints, b.Organic)

	// Three capped parts still sum without wrapping, so the ledger
	// entries for a submission always equal the balance delta.
	b = CalculatePoints(1.5e18, 1e18, 1e18, testRates)
	assert.Equal(t, b.Organic+b.Recyclable+b.Hazardous, b.Total())
	assert.Greater(t, b.Total(), b.Organic)
	assert.Greater(t, b.Total(), b.Recyclable)
	assert.Greater(t, b.Total(), b.Hazardous)
}

func TestCalculatePoints_ZeroRate(t *testing.T) {
	b := CalculatePoints(5, 5, 5, config.RewardRates{Organic: 0, Recyclable: 15, Hazardous: 5})
	assert.Equal(t, uint64(0), b.Organic)
	assert.Equal(t, uint64(75), b.Recyclable)
	assert.Equal(t, uint64(25), b.Hazardous)
}
