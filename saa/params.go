package saa

import (
	"errors"
	"fmt"
	"math"
)

// ProblemParameters is the immutable configuration of one allocation problem.
// Strength and Drainage hold coefficients already normalized to [0,1] by
// NormalizeCoefficients.
type ProblemParameters struct {
	TotalArea     float64 // Q, m²
	Budget        float64 // B
	UnitCost      Vec3    // C, cost per m²
	Strength      Vec3    // S, normalized structural strength
	StrengthFloor float64 // Smin, fraction of Q
	Drainage      Vec3    // D, normalized drainage capacity
	DrainageFloor float64 // Dmin, fraction of Q
	PaverRatioMin float64 // lower bound on x1/Q
	PaverRatioMax float64 // upper bound on x1/Q
}

// RawProblemInputs carries the un-normalized inputs as they appear in config.
type RawProblemInputs struct {
	TotalArea     float64
	Budget        float64
	UnitCost      Vec3
	StrengthRaw   Vec3
	StrengthFloor float64
	DrainageRaw   Vec3
	DrainageFloor float64
	PaverRatioMin float64
	PaverRatioMax float64
}

// NormalizeCoefficients divides every coefficient by the largest one so the
// strongest material scores 1.0.
func NormalizeCoefficients(raw Vec3) (Vec3, error) {
	maxV := math.Max(raw[Paver], math.Max(raw[RC], raw[Pervious]))
	if !(maxV > 0) || math.IsInf(maxV, 0) {
		return Vec3{}, fmt.Errorf("coefficients must have a positive finite maximum, got %v", raw)
	}
	var out Vec3
	for i, v := range raw {
		out[i] = v / maxV
	}
	return out, nil
}

// NewProblemParameters normalizes the raw strength and drainage coefficients
// and runs Validate on the result.
func NewProblemParameters(in RawProblemInputs) (ProblemParameters, error) {
	s, err := NormalizeCoefficients(in.StrengthRaw)
	if err != nil {
		return ProblemParameters{}, fmt.Errorf("strength: %w", err)
	}
	d, err := NormalizeCoefficients(in.DrainageRaw)
	if err != nil {
		return ProblemParameters{}, fmt.Errorf("drainage: %w", err)
	}
	p := ProblemParameters{
		TotalArea:     in.TotalArea,
		Budget:        in.Budget,
		UnitCost:      in.UnitCost,
		Strength:      s,
		StrengthFloor: in.StrengthFloor,
		Drainage:      d,
		DrainageFloor: in.DrainageFloor,
		PaverRatioMin: in.PaverRatioMin,
		PaverRatioMax: in.PaverRatioMax,
	}
	if err := p.Validate(); err != nil {
		return ProblemParameters{}, err
	}
	return p, nil
}

// DefaultProblemParameters returns the reference site: 505.4 m² with a
// budget of 670,000.
func DefaultProblemParameters() ProblemParameters {
	return ProblemParameters{
		TotalArea:     505.4,
		Budget:        670000,
		UnitCost:      Vec3{1325, 850, 1350},
		Strength:      Vec3{0.7, 1.0, 0.5},
		StrengthFloor: 0.6,
		Drainage:      Vec3{0.3, 0.1, 1.0},
		DrainageFloor: 0.4,
		PaverRatioMin: 0.2,
		PaverRatioMax: 0.6,
	}
}

// ErrFloorOutOfRange marks a structural or drainage floor outside [0,1].
// Such a problem is well-formed but can never be satisfied; ValidateStrict
// reports it, Validate lets it through to the solver.
var ErrFloorOutOfRange = errors.New("floor ratio outside [0, 1]")

// Validate checks that the parameters describe a well-formed LP. It does not
// check whether the constraints are jointly satisfiable; that is left to the
// solver.
func (p ProblemParameters) Validate() error {
	if err := validateFinitePositive("total_area", p.TotalArea); err != nil {
		return err
	}
	if err := validateFinitePositive("budget", p.Budget); err != nil {
		return err
	}
	for _, m := range Materials {
		if err := validateFinitePositive("unit_cost."+m.String(), p.UnitCost[m]); err != nil {
			return err
		}
		if err := validateUnit("strength."+m.String(), p.Strength[m]); err != nil {
			return err
		}
		if err := validateUnit("drainage."+m.String(), p.Drainage[m]); err != nil {
			return err
		}
	}
	if math.IsNaN(p.StrengthFloor) || math.IsInf(p.StrengthFloor, 0) {
		return fmt.Errorf("strength_floor must be finite, got %v", p.StrengthFloor)
	}
	if math.IsNaN(p.DrainageFloor) || math.IsInf(p.DrainageFloor, 0) {
		return fmt.Errorf("drainage_floor must be finite, got %v", p.DrainageFloor)
	}
	if err := validateUnit("paver_ratio.min", p.PaverRatioMin); err != nil {
		return err
	}
	if err := validateUnit("paver_ratio.max", p.PaverRatioMax); err != nil {
		return err
	}
	if p.PaverRatioMin > p.PaverRatioMax {
		return fmt.Errorf("paver_ratio.min (%g) must not exceed paver_ratio.max (%g)", p.PaverRatioMin, p.PaverRatioMax)
	}
	return nil
}

// ValidateStrict runs Validate and additionally requires Smin and Dmin to lie
// in [0,1]. Floor violations wrap ErrFloorOutOfRange.
func (p ProblemParameters) ValidateStrict() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.StrengthFloor < 0 || p.StrengthFloor > 1 {
		return fmt.Errorf("strength_floor = %g: %w", p.StrengthFloor, ErrFloorOutOfRange)
	}
	if p.DrainageFloor < 0 || p.DrainageFloor > 1 {
		return fmt.Errorf("drainage_floor = %g: %w", p.DrainageFloor, ErrFloorOutOfRange)
	}
	return nil
}

// PaverBounds returns [ratioMin·Q, ratioMax·Q].
func (p ProblemParameters) PaverBounds() (lo, hi float64) {
	return p.PaverRatioMin * p.TotalArea, p.PaverRatioMax * p.TotalArea
}

func validateFinitePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%s must be a finite positive number, got %v", name, v)
	}
	return nil
}

func validateUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", name, v)
	}
	return nil
}
