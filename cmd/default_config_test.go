package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pave-saa/saa"
)

func TestDefaultsFile_LoadsAndMatchesBuiltIn(t *testing.T) {
	// GIVEN the shipped defaults.yaml
	spec, err := saa.LoadSiteSpec("../" + defaultsFilePath)
	require.NoError(t, err)

	// WHEN validated and converted
	require.NoError(t, spec.Validate())
	params, err := spec.ProblemParameters()
	require.NoError(t, err)

	// THEN it describes the built-in reference case
	assert.Equal(t, saa.DefaultProblemParameters(), params)
	assert.Equal(t, saa.DefaultEmissionModel(), spec.EmissionModel())
	assert.Equal(t, saa.DefaultEstimatorConfig(), spec.EstimatorConfig())
	require.NotNil(t, spec.Seed)
	assert.Equal(t, int64(42), *spec.Seed)
}

func TestWriteDefaultSpec_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDefaultSpec(&buf))

	spec, err := saa.ParseSiteSpec(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, spec.Validate())
	params, err := spec.ProblemParameters()
	require.NoError(t, err)
	assert.Equal(t, saa.DefaultProblemParameters(), params)
}
