package saa

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpecVersion is the only accepted value of SiteSpec.Version.
const SpecVersion = "1"

// SiteSpec is the YAML description of one paving problem and its sampling
// plan. Per-material vectors are ordered paver, rc, pervious.
type SiteSpec struct {
	Version   string        `yaml:"version"`
	Seed      *int64        `yaml:"seed,omitempty"`
	Problem   ProblemSpec   `yaml:"problem"`
	Emissions EmissionsSpec `yaml:"emissions"`
	Sampling  SamplingSpec  `yaml:"sampling"`
}

// ProblemSpec holds the raw problem inputs. Strength and drainage are raw
// coefficients; they are normalized by their maximum when converted.
type ProblemSpec struct {
	TotalArea     float64    `yaml:"total_area"`
	Budget        float64    `yaml:"budget"`
	UnitCost      []float64  `yaml:"unit_cost"`
	StrengthRaw   []float64  `yaml:"strength_raw"`
	StrengthFloor float64    `yaml:"strength_floor"`
	DrainageRaw   []float64  `yaml:"drainage_raw"`
	DrainageFloor float64    `yaml:"drainage_floor"`
	PaverRatio    RatioRange `yaml:"paver_ratio"`
}

// RatioRange is a closed share interval of the total area.
type RatioRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// EmissionsSpec holds one triangular distribution per material.
type EmissionsSpec struct {
	Paver    TriangularSpec `yaml:"paver"`
	RC       TriangularSpec `yaml:"rc"`
	Pervious TriangularSpec `yaml:"pervious"`
}

// SamplingSpec sizes the reference sample and the SAA estimation.
type SamplingSpec struct {
	Scenarios               int     `yaml:"scenarios"`
	LowerBatchSize          int     `yaml:"lower_batch_size"`
	Batches                 int     `yaml:"batches"`
	ValidationSize          int     `yaml:"validation_size"`
	Workers                 int     `yaml:"workers"`
	ConvergenceThresholdPct float64 `yaml:"convergence_threshold_pct"`
}

// LoadSiteSpec reads and parses a YAML site specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSiteSpec(path string) (*SiteSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site spec: %w", err)
	}
	return ParseSiteSpec(data)
}

// ParseSiteSpec parses YAML bytes with strict field checking.
func ParseSiteSpec(data []byte) (*SiteSpec, error) {
	var spec SiteSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing site spec: %w", err)
	}
	return &spec, nil
}

// Validate checks the site spec's shape and converts it once to surface any
// parameter error. Joint feasibility is not checked.
func (s *SiteSpec) Validate() error {
	if s.Version != "" && s.Version != SpecVersion {
		return fmt.Errorf("unsupported spec version %q; valid: %q", s.Version, SpecVersion)
	}
	vectors := []struct {
		name string
		v    []float64
	}{
		{"problem.unit_cost", s.Problem.UnitCost},
		{"problem.strength_raw", s.Problem.StrengthRaw},
		{"problem.drainage_raw", s.Problem.DrainageRaw},
	}
	for _, vec := range vectors {
		if len(vec.v) != NumMaterials {
			return fmt.Errorf("%s must have %d entries (paver, rc, pervious), got %d", vec.name, NumMaterials, len(vec.v))
		}
	}
	if _, err := s.ProblemParameters(); err != nil {
		return err
	}
	if err := s.EmissionModel().Validate(); err != nil {
		return err
	}
	if s.Sampling.Scenarios < 0 {
		return fmt.Errorf("sampling.scenarios must be >= 0, got %d", s.Sampling.Scenarios)
	}
	if err := s.EstimatorConfig().Validate(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	return nil
}

// ProblemParameters normalizes the raw coefficients into ProblemParameters.
func (s *SiteSpec) ProblemParameters() (ProblemParameters, error) {
	p := s.Problem
	return NewProblemParameters(RawProblemInputs{
		TotalArea:     p.TotalArea,
		Budget:        p.Budget,
		UnitCost:      toVec3(p.UnitCost),
		StrengthRaw:   toVec3(p.StrengthRaw),
		StrengthFloor: p.StrengthFloor,
		DrainageRaw:   toVec3(p.DrainageRaw),
		DrainageFloor: p.DrainageFloor,
		PaverRatioMin: p.PaverRatio.Min,
		PaverRatioMax: p.PaverRatio.Max,
	})
}

// EmissionModel returns the per-material distributions in index order.
func (s *SiteSpec) EmissionModel() EmissionModel {
	return EmissionModel{
		Paver:    s.Emissions.Paver,
		RC:       s.Emissions.RC,
		Pervious: s.Emissions.Pervious,
	}
}

// EstimatorConfig returns the sampling plan, with unset fields taken from
// DefaultEstimatorConfig.
func (s *SiteSpec) EstimatorConfig() EstimatorConfig {
	cfg := DefaultEstimatorConfig()
	sp := s.Sampling
	if sp.LowerBatchSize != 0 {
		cfg.LowerBatchSize = sp.LowerBatchSize
	}
	if sp.Batches != 0 {
		cfg.Batches = sp.Batches
	}
	if sp.ValidationSize != 0 {
		cfg.ValidationSize = sp.ValidationSize
	}
	if sp.Workers != 0 {
		cfg.Workers = sp.Workers
	}
	if sp.ConvergenceThresholdPct != 0 {
		cfg.ConvergenceThresholdPct = sp.ConvergenceThresholdPct
	}
	return cfg
}

// ScenarioCount returns sampling.scenarios, or DefaultScenarios when unset.
func (s *SiteSpec) ScenarioCount() int {
	if s.Sampling.Scenarios == 0 {
		return DefaultScenarios
	}
	return s.Sampling.Scenarios
}

// DefaultSiteSpec returns the reference case in spec form. Strength and
// drainage are given already normalized, which normalization leaves as is.
func DefaultSiteSpec() *SiteSpec {
	p := DefaultProblemParameters()
	e := DefaultEmissionModel()
	est := DefaultEstimatorConfig()
	return &SiteSpec{
		Version: SpecVersion,
		Problem: ProblemSpec{
			TotalArea:     p.TotalArea,
			Budget:        p.Budget,
			UnitCost:      p.UnitCost.Slice(),
			StrengthRaw:   p.Strength.Slice(),
			StrengthFloor: p.StrengthFloor,
			DrainageRaw:   p.Drainage.Slice(),
			DrainageFloor: p.DrainageFloor,
			PaverRatio:    RatioRange{Min: p.PaverRatioMin, Max: p.PaverRatioMax},
		},
		Emissions: EmissionsSpec{Paver: e[Paver], RC: e[RC], Pervious: e[Pervious]},
		Sampling: SamplingSpec{
			Scenarios:               DefaultScenarios,
			LowerBatchSize:          est.LowerBatchSize,
			Batches:                 est.Batches,
			ValidationSize:          est.ValidationSize,
			Workers:                 est.Workers,
			ConvergenceThresholdPct: est.ConvergenceThresholdPct,
		},
	}
}

func toVec3(v []float64) Vec3 {
	var out Vec3
	copy(out[:], v)
	return out
}
