package material

import (
	_ "embed"

	"github.com/BurntSushi/toml"
)

// Profile holds the thermal and retraction parameters for one filament.
type Profile struct {
	ExtruderTemp     float64 `toml:"extruder_temp"`
	BedTemp          float64 `toml:"bed_temp"`
	FirstLayerTemp   float64 `toml:"first_layer_temp"`
	CoolingFanSpeed  float64 `toml:"cooling_fan_speed"`
	RetractionLength float64 `toml:"retraction_length"`
	RetractionSpeed  float64 `toml:"retraction_speed"`
}

// DefaultKey names the profile returned for unrecognized materials.
const DefaultKey = "PLA"

//go:embed materials.toml
var profileData []byte

var profiles map[string]Profile

func init() {
	var table struct {
		Profiles map[string]Profile `toml:"profiles"`
	}

	if err := toml.Unmarshal(profileData, &table); err != nil {
		panic("material: invalid embedded profile table: " + err.Error())
	}

	if _, ok := table.Profiles[DefaultKey]; !ok {
		panic("material: embedded profile table missing " + DefaultKey)
	}

	profiles = table.Profiles
}

// Lookup returns the profile for a material name. Unknown names get the PLA
// profile, so a typo'd material slices with PLA settings instead of failing.
func Lookup(name string) Profile {
	if profile, ok := profiles[name]; ok {
		return profile
	}

	return profiles[DefaultKey]
}

// Known reports whether a material has its own profile entry.
func Known(name string) bool {
	_, ok := profiles[name]
	return ok
}
