package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKnownMaterials(t *testing.T) {
	pla := Lookup("PLA")
	assert.Equal(t, 200.0, pla.ExtruderTemp)
	assert.Equal(t, 60.0, pla.BedTemp)

	abs := Lookup("ABS")
	assert.Equal(t, 235.0, abs.ExtruderTemp)
	assert.Equal(t, 100.0, abs.BedTemp)
	assert.NotEqual(t, pla, abs)
}

func TestLookupUnknownMaterialFallsBackToPLA(t *testing.T) {
	for _, name := range []string{"", "PAL", "carbon-unobtanium", "pla"} {
		assert.Equal(t, Lookup(DefaultKey), Lookup(name), "material %q", name)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("PLA"))
	assert.True(t, Known("PETG"))
	assert.False(t, Known("PAL"))
	assert.False(t, Known(""))
}
