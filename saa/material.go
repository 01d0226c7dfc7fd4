package saa

import "fmt"

// Material indexes the paving materials. The order is positional: every
// per-material vector and every constraint-matrix column uses it.
type Material int

const (
	// Paver is interlocking concrete pavers.
	Paver Material = iota
	// RC is reinforced concrete.
	RC
	// Pervious is pervious concrete.
	Pervious
)

// NumMaterials is the number of decision variables.
const NumMaterials = 3

// Materials lists every material in index order.
var Materials = [NumMaterials]Material{Paver, RC, Pervious}

var materialNames = [NumMaterials]string{"paver", "rc", "pervious"}

var materialLabels = [NumMaterials]string{
	"Interlocking pavers",
	"RC concrete",
	"Pervious concrete",
}

// String returns the config key for the material ("paver", "rc", "pervious").
func (m Material) String() string {
	if m < 0 || int(m) >= NumMaterials {
		return fmt.Sprintf("material_%d", int(m))
	}
	return materialNames[m]
}

// Label returns a human-readable name for reports.
func (m Material) Label() string {
	if m < 0 || int(m) >= NumMaterials {
		return m.String()
	}
	return materialLabels[m]
}

// Vec3 holds one value per material, indexed by Material.
type Vec3 [NumMaterials]float64

// Dot returns the inner product v·w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[Paver]*w[Paver] + v[RC]*w[RC] + v[Pervious]*w[Pervious]
}

// Sum returns the sum of the components.
func (v Vec3) Sum() float64 {
	return v[Paver] + v[RC] + v[Pervious]
}

// Slice returns a fresh []float64 copy of v.
func (v Vec3) Slice() []float64 {
	return []float64{v[Paver], v[RC], v[Pervious]}
}

// Allocation is an area assignment (m²) per material: (x1, x2, x3).
type Allocation = Vec3
