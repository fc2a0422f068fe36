package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// PRODUCT CONCENTRATION TESTS
// ============================================================================

func TestProductConcentrationHighlyConcentrated(t *testing.T) {
	a, err := Analyze(csvTable(`order_date,product,revenue
2024-01-05,Widget,600
2024-01-06,Gadget,300
2024-01-07,Gizmo,100`))
	require.NoError(t, err)

	c := a.Concentration
	require.NotNil(t, c)
	require.Len(t, c.Products, 3)
	assert.InDelta(t, 60, c.TopSharePct, 1e-9)
	assert.InDelta(t, 0.46, c.HHI, 1e-9)
	assert.Equal(t, "highly_concentrated", c.Band)

	require.Len(t, c.Dependencies, 1)
	assert.Equal(t, "Widget", c.Dependencies[0].Name)
}

func TestProductConcentrationBands(t *testing.T) {
	// Ten equal products: HHI 0.10.
	a, err := Analyze(csvTable(`product,revenue
P0,10
P1,10
P2,10
P3,10
P4,10
P5,10
P6,10
P7,10
P8,10
P9,10`))
	require.NoError(t, err)
	require.NotNil(t, a.Concentration)
	assert.Equal(t, "unconcentrated", a.Concentration.Band)
	assert.Empty(t, a.Concentration.Dependencies)

	// Five equal products: HHI 0.20.
	a, err = Analyze(csvTable(`product,revenue
P0,10
P1,10
P2,10
P3,10
P4,10`))
	require.NoError(t, err)
	assert.Equal(t, "moderately_concentrated", a.Concentration.Band)
}

func TestProductConcentrationThresholdOption(t *testing.T) {
	data := `product,revenue
A,35
B,35
C,30`
	a, err := Analyze(csvTable(data))
	require.NoError(t, err)
	assert.Empty(t, a.Concentration.Dependencies)

	a, err = Analyze(csvTable(data), WithConcentrationThreshold(30))
	require.NoError(t, err)
	assert.Len(t, a.Concentration.Dependencies, 2)
}

func TestProductConcentrationNeedsPositiveRevenue(t *testing.T) {
	a, err := Analyze(csvTable(`product,revenue
A,0
B,0`))
	require.NoError(t, err)
	assert.Nil(t, a.Concentration)
}
