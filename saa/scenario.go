package saa

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidBatchSize is returned when a scenario batch of size < 1 is requested.
var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// TriangularSpec parameterizes a triangular distribution of per-m² carbon
// intensity (kgCO2e/m²).
type TriangularSpec struct {
	Min  float64 `yaml:"min"`
	Mode float64 `yaml:"mode"`
	Max  float64 `yaml:"max"`
}

// Validate requires Min ≤ Mode ≤ Max and Min < Max, all finite.
func (t TriangularSpec) Validate() error {
	for _, v := range []float64{t.Min, t.Mode, t.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("triangular parameters must be finite, got (%v, %v, %v)", t.Min, t.Mode, t.Max)
		}
	}
	if t.Min >= t.Max {
		return fmt.Errorf("triangular min (%g) must be less than max (%g)", t.Min, t.Max)
	}
	if t.Mode < t.Min || t.Mode > t.Max {
		return fmt.Errorf("triangular mode (%g) must lie in [%g, %g]", t.Mode, t.Min, t.Max)
	}
	return nil
}

// Mean returns the analytic mean (min+mode+max)/3.
func (t TriangularSpec) Mean() float64 {
	return (t.Min + t.Mode + t.Max) / 3
}

// EmissionModel holds one triangular distribution per material.
type EmissionModel [NumMaterials]TriangularSpec

// DefaultEmissionModel returns the calibrated per-material distributions:
// pavers vary by laying method (graded 50.6, dry 75.6, wet 78.1), RC by
// ±10% construction error around 90.0, pervious concrete by base-course
// thickness (27.2–28.0).
func DefaultEmissionModel() EmissionModel {
	return EmissionModel{
		Paver:    {Min: 50.6, Mode: 75.6, Max: 78.1},
		RC:       {Min: 81.0, Mode: 90.0, Max: 99.0},
		Pervious: {Min: 27.2, Mode: 27.8, Max: 28.0},
	}
}

// Validate checks every material's distribution.
func (e EmissionModel) Validate() error {
	for _, m := range Materials {
		if err := e[m].Validate(); err != nil {
			return fmt.Errorf("emissions.%s: %w", m, err)
		}
	}
	return nil
}

// Modes returns the most likely coefficient of each material.
func (e EmissionModel) Modes() Vec3 {
	var v Vec3
	for _, m := range Materials {
		v[m] = e[m].Mode
	}
	return v
}

// Means returns the analytic mean coefficient of each material.
func (e EmissionModel) Means() Vec3 {
	var v Vec3
	for _, m := range Materials {
		v[m] = e[m].Mean()
	}
	return v
}

// EmissionScenario is one realization (e1, e2, e3) of per-m² carbon intensities.
type EmissionScenario = Vec3

// ScenarioBatch is an ordered collection of scenarios.
type ScenarioBatch []EmissionScenario

// Len returns the number of scenarios.
func (b ScenarioBatch) Len() int { return len(b) }

// Mean returns the column-wise mean (the expected-emission vector used as
// the LP objective). An empty batch yields the zero vector.
func (b ScenarioBatch) Mean() Vec3 {
	var sum Vec3
	if len(b) == 0 {
		return sum
	}
	for _, s := range b {
		for i := range s {
			sum[i] += s[i]
		}
	}
	n := float64(len(b))
	for i := range sum {
		sum[i] /= n
	}
	return sum
}

// Column returns a copy of material m's samples.
func (b ScenarioBatch) Column(m Material) []float64 {
	col := make([]float64, len(b))
	for i, s := range b {
		col[i] = s[m]
	}
	return col
}

// ScenarioGenerator draws independent emission-coefficient scenarios.
// It holds no random state; every Generate call consumes the stream it is
// given, so callers control reproducibility and stream isolation.
type ScenarioGenerator struct {
	model EmissionModel
}

// NewScenarioGenerator validates the model and returns a generator.
func NewScenarioGenerator(model EmissionModel) (*ScenarioGenerator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &ScenarioGenerator{model: model}, nil
}

// Model returns the generator's emission model.
func (g *ScenarioGenerator) Model() EmissionModel {
	return g.model
}

// Generate draws n scenarios from rng. Materials are sampled column by
// column (all pavers, then RC, then pervious) with no cross-material
// correlation.
func (g *ScenarioGenerator) Generate(rng *rand.Rand, n int) (ScenarioBatch, error) {
	if n < 1 {
		return nil, fmt.Errorf("generate %d scenarios: %w", n, ErrInvalidBatchSize)
	}
	if rng == nil {
		return nil, errors.New("generate scenarios: nil rng")
	}
	batch := make(ScenarioBatch, n)
	for _, m := range Materials {
		spec := g.model[m]
		dist := distuv.NewTriangle(spec.Min, spec.Max, spec.Mode, rng)
		for i := range batch {
			batch[i][m] = dist.Rand()
		}
	}
	return batch, nil
}
