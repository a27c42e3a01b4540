package ribbon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams_Valid(t *testing.T) {
	p := DefaultParams()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 40.0, p.DistanceThresholdM)
	assert.Equal(t, 50, p.MinIndexGap)
	assert.Equal(t, 30, p.PacketGap)
	assert.Equal(t, 40.0, p.GridCellM)
	assert.Equal(t, 6, p.MaxHitsPerPoint)
	assert.Equal(t, 30, p.MaxSampleHitsPerPacket)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero threshold", func(p *Params) { p.DistanceThresholdM = 0 }},
		{"zero cell", func(p *Params) { p.GridCellM = 0 }},
		{"cell below threshold", func(p *Params) { p.GridCellM = 39.9 }},
		{"min index gap", func(p *Params) { p.MinIndexGap = 0 }},
		{"negative packet gap", func(p *Params) { p.PacketGap = -1 }},
		{"no hits per point", func(p *Params) { p.MaxHitsPerPoint = 0 }},
		{"negative sample cap", func(p *Params) { p.MaxSampleHitsPerPacket = -1 }},
		{"negative idx min", func(p *Params) { p.IdxMin = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
		})
	}
}

func TestParams_ValidateCellHint(t *testing.T) {
	p := DefaultParams()
	p.DistanceThresholdM = 60

	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "raise the grid cell to at least 60m")
}

func TestParams_ValidateAllowsLargerCell(t *testing.T) {
	p := DefaultParams()
	p.GridCellM = 100
	p.PacketGap = 0
	assert.NoError(t, p.Validate())
}

func TestParams_ScanRange(t *testing.T) {
	tests := []struct {
		name           string
		idxMin, idxMax int
		n              int
		wantMin        int
		wantMax        int
		wantOK         bool
	}{
		{"whole sequence", 0, -1, 10, 0, 9, true},
		{"clamped max", 2, 100, 10, 2, 9, true},
		{"inner range", 3030, 11440, 20000, 3030, 11440, true},
		{"min past end", 10, -1, 10, 10, 9, false},
		{"inverted", 5, 4, 10, 5, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.IdxMin, p.IdxMax = tt.idxMin, tt.idxMax
			lo, hi, ok := p.ScanRange(tt.n)
			assert.Equal(t, tt.wantMin, lo)
			assert.Equal(t, tt.wantMax, hi)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
