package slicer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"printforge/internal/material"
)

// PrintConfig is a slicing request as submitted by the caller.
type PrintConfig struct {
	DesignUnit      string          `json:"designUnit"`
	Material        string          `json:"material"`
	MaterialType    string          `json:"materialType"`
	NozzleSize      float64         `json:"nozzleSize"`
	FillDensity     float64         `json:"fillDensity"`
	SupportMaterial bool            `json:"supportMaterial"`
	CustomMaterials json.RawMessage `json:"customMaterials,omitempty"`
}

// ValidationError reports an out-of-range or missing configuration field.
// It is raised before any filesystem or engine interaction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the numeric ranges of a configuration.
func (c PrintConfig) Validate() error {
	if c.NozzleSize < 0.2 || c.NozzleSize > 1.0 {
		return &ValidationError{
			Field:  "nozzleSize",
			Reason: fmt.Sprintf("%v is outside the supported range 0.2-1.0 mm", c.NozzleSize),
		}
	}

	if c.FillDensity < 0 || c.FillDensity > 100 {
		return &ValidationError{
			Field:  "fillDensity",
			Reason: fmt.Sprintf("%v is outside the supported range 0-100%%", c.FillDensity),
		}
	}

	return nil
}

// bedShape is the fixed 300x300 square print bed as corner coordinates.
const bedShape = "0x0,300x0,300x300,0x300"

// LayerHeight derives the layer height from the nozzle size: 0.2mm default,
// halved nozzle diameter (but at least 0.1mm) for fine nozzles up to 0.3mm.
func LayerHeight(nozzleSize float64) float64 {
	if nozzleSize <= 0.3 {
		return math.Max(0.1, nozzleSize*0.5)
	}

	return 0.2
}

// BuildArgs converts a configuration and material profile into the argument
// list for the slicing engine. The engine is positional-argument sensitive:
// the sequence must end with the output flag pair followed by the input path.
func BuildArgs(cfg PrintConfig, profile material.Profile, inputPath, outputPath string) []string {
	args := []string{
		"--nozzle-diameter", formatFloat(cfg.NozzleSize),
		"--filament-type", cfg.MaterialType,
		"--temperature", formatFloat(profile.ExtruderTemp),
		"--first-layer-temperature", formatFloat(profile.FirstLayerTemp),
		"--bed-temperature", formatFloat(profile.BedTemp),
		"--max-fan-speed", formatFloat(profile.CoolingFanSpeed),
		"--retract-length", formatFloat(profile.RetractionLength),
		"--retract-speed", formatFloat(profile.RetractionSpeed),
		"--fill-density", formatFloat(cfg.FillDensity) + "%",
		"--layer-height", formatFloat(LayerHeight(cfg.NozzleSize)),
		"--bed-shape", bedShape,
		"--export-gcode",
		"--output", outputPath,
		inputPath,
	}

	if cfg.SupportMaterial {
		// Inserted just before [--output, outputPath, inputPath].
		i := len(args) - 3
		args = append(args[:i], append([]string{"--support-material"}, args[i:]...)...)
	}

	return args
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
