package cmd

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCounts(t *testing.T) {
	counts, err := parseCounts([]string{"p1=12", "p2=3.5", "p3=0"})
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.True(t, counts["p1"].Equal(decimal.NewFromInt(12)))
	assert.True(t, counts["p2"].Equal(decimal.NewFromFloat(3.5)))
	assert.True(t, counts["p3"].IsZero())
}

func TestParseCountsRejectsMalformed(t *testing.T) {
	_, err := parseCounts([]string{"p1"})
	assert.Error(t, err)

	_, err = parseCounts([]string{"=5"})
	assert.Error(t, err)

	_, err = parseCounts([]string{"p1=lots"})
	assert.Error(t, err)

	_, err = parseCounts([]string{"p1=1", "p1=2"})
	assert.Error(t, err)
}
