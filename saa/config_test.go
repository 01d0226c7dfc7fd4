package saa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSpecYAML = `
version: "1"
seed: 9
problem:
  total_area: 100
  budget: 200000
  unit_cost: [1325, 850, 1350]
  strength_raw: [35, 50, 25]
  strength_floor: 0.6
  drainage_raw: [3, 1, 10]
  drainage_floor: 0.4
  paver_ratio: {min: 0.2, max: 0.6}
emissions:
  paver: {min: 50.6, mode: 75.6, max: 78.1}
  rc: {min: 81, mode: 90, max: 99}
  pervious: {min: 27.2, mode: 27.8, max: 28}
sampling:
  batches: 10
`

func TestParseSiteSpec_NormalizesAndDefaults(t *testing.T) {
	// GIVEN raw coefficients and a partial sampling section
	spec, err := ParseSiteSpec([]byte(minimalSpecYAML))
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	// WHEN converted
	p, err := spec.ProblemParameters()
	require.NoError(t, err)
	cfg := spec.EstimatorConfig()

	// THEN coefficients are divided by their maximum
	assert.InDelta(t, 0.7, p.Strength[Paver], 1e-12)
	assert.InDelta(t, 1.0, p.Strength[RC], 1e-12)
	assert.InDelta(t, 0.5, p.Strength[Pervious], 1e-12)
	assert.InDelta(t, 0.3, p.Drainage[Paver], 1e-12)
	assert.InDelta(t, 1.0, p.Drainage[Pervious], 1e-12)

	// AND unset sampling fields fall back to defaults
	assert.Equal(t, 10, cfg.Batches)
	assert.Equal(t, DefaultEstimatorConfig().LowerBatchSize, cfg.LowerBatchSize)
	assert.Equal(t, DefaultScenarios, spec.ScenarioCount())
	require.NotNil(t, spec.Seed)
	assert.Equal(t, int64(9), *spec.Seed)
}

func TestParseSiteSpec_UnknownFieldRejected(t *testing.T) {
	_, err := ParseSiteSpec([]byte("version: \"1\"\nproblme:\n  total_area: 1\n"))
	assert.Error(t, err)
}

func TestSiteSpec_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SiteSpec)
		want   string
	}{
		{"bad version", func(s *SiteSpec) { s.Version = "2" }, "version"},
		{"short unit cost", func(s *SiteSpec) { s.Problem.UnitCost = []float64{1, 2} }, "unit_cost"},
		{"zero area", func(s *SiteSpec) { s.Problem.TotalArea = 0 }, "total_area"},
		{"inverted paver ratio", func(s *SiteSpec) { s.Problem.PaverRatio = RatioRange{Min: 0.7, Max: 0.2} }, "paver_ratio"},
		{"bad triangle", func(s *SiteSpec) { s.Emissions.RC.Mode = 200 }, "emissions.rc"},
		{"negative scenarios", func(s *SiteSpec) { s.Sampling.Scenarios = -1 }, "scenarios"},
		{"negative workers", func(s *SiteSpec) { s.Sampling.Workers = -2 }, "workers"},
		{"all-zero strength", func(s *SiteSpec) { s.Problem.StrengthRaw = []float64{0, 0, 0} }, "strength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSiteSpec()
			tt.mutate(spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultSiteSpec_MatchesDefaults(t *testing.T) {
	spec := DefaultSiteSpec()
	require.NoError(t, spec.Validate())
	p, err := spec.ProblemParameters()
	require.NoError(t, err)
	assert.Equal(t, DefaultProblemParameters(), p)
	assert.Equal(t, DefaultEmissionModel(), spec.EmissionModel())
	assert.Equal(t, DefaultEstimatorConfig(), spec.EstimatorConfig())
}

func TestLoadSiteSpec_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSpecYAML), 0o644))

	spec, err := LoadSiteSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, spec.Problem.TotalArea)

	_, err = LoadSiteSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateStrict_FloorRange(t *testing.T) {
	p := DefaultProblemParameters()
	p.StrengthFloor = 1.5
	assert.NoError(t, p.Validate())
	assert.ErrorIs(t, p.ValidateStrict(), ErrFloorOutOfRange)
}
