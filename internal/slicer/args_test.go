package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/material"
)

func TestLayerHeight(t *testing.T) {
	tests := []struct {
		nozzle float64
		want   float64
	}{
		{0.2, 0.1},
		{0.25, 0.125},
		{0.3, 0.15},
		{0.4, 0.2},
		{1.0, 0.2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LayerHeight(tt.nozzle), "nozzle %v", tt.nozzle)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       PrintConfig
		wantField string
	}{
		{
			name: "valid",
			cfg:  PrintConfig{NozzleSize: 0.4, FillDensity: 20},
		},
		{
			name:      "nozzle too large",
			cfg:       PrintConfig{NozzleSize: 1.5, FillDensity: 20},
			wantField: "nozzleSize",
		},
		{
			name:      "nozzle too small",
			cfg:       PrintConfig{NozzleSize: 0.1, FillDensity: 20},
			wantField: "nozzleSize",
		},
		{
			name:      "fill density over 100",
			cfg:       PrintConfig{NozzleSize: 0.4, FillDensity: 150},
			wantField: "fillDensity",
		},
		{
			name:      "negative fill density",
			cfg:       PrintConfig{NozzleSize: 0.4, FillDensity: -1},
			wantField: "fillDensity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestBuildArgsTrailingOrder(t *testing.T) {
	cfg := PrintConfig{
		Material:     "PLA",
		MaterialType: "filament",
		NozzleSize:   0.4,
		FillDensity:  20,
	}

	args := BuildArgs(cfg, material.Lookup("PLA"), "/tmp/in.stl", "/tmp/out.gcode")

	require.GreaterOrEqual(t, len(args), 4)
	assert.Equal(t,
		[]string{"--export-gcode", "--output", "/tmp/out.gcode", "/tmp/in.stl"},
		args[len(args)-4:])
	assert.NotContains(t, args, "--support-material")
}

func TestBuildArgsSupportMaterialPosition(t *testing.T) {
	cfg := PrintConfig{
		Material:        "ABS",
		MaterialType:    "filament",
		NozzleSize:      0.4,
		FillDensity:     35,
		SupportMaterial: true,
	}

	args := BuildArgs(cfg, material.Lookup("ABS"), "in.stl", "out.gcode")

	// The support flag sits immediately before [--output, outputPath,
	// inputPath], after the export flag.
	require.GreaterOrEqual(t, len(args), 5)
	assert.Equal(t,
		[]string{"--support-material", "--output", "out.gcode", "in.stl"},
		args[len(args)-4:])
	assert.Equal(t, "--export-gcode", args[len(args)-5])
}

func TestBuildArgsPassesProfileValues(t *testing.T) {
	cfg := PrintConfig{
		Material:     "PETG",
		MaterialType: "filament",
		NozzleSize:   0.2,
		FillDensity:  15,
	}

	args := BuildArgs(cfg, material.Lookup("PETG"), "in.stl", "out.gcode")

	assertFlagValue(t, args, "--nozzle-diameter", "0.2")
	assertFlagValue(t, args, "--filament-type", "filament")
	assertFlagValue(t, args, "--temperature", "230")
	assertFlagValue(t, args, "--bed-temperature", "80")
	assertFlagValue(t, args, "--fill-density", "15%")
	assertFlagValue(t, args, "--layer-height", "0.1")
	assertFlagValue(t, args, "--bed-shape", "0x0,300x0,300x300,0x300")
}

func assertFlagValue(t *testing.T, args []string, flag, want string) {
	t.Helper()

	for i, arg := range args[:len(args)-1] {
		if arg == flag {
			assert.Equal(t, want, args[i+1], "value of %s", flag)
			return
		}
	}

	t.Errorf("flag %s not found in %v", flag, args)
}
