package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/pave-saa/saa"
	"github.com/inference-sim/pave-saa/saa/trace"
)

var (
	// Shared flags
	configPath string // Path to the YAML site spec
	logLevel   string // Log verbosity level
	jsonOutput bool   // Emit the JSON report instead of the text report

	// Sampling overrides (applied only when set on the command line)
	seed           int64 // Run key; random when neither flag nor spec sets it
	scenarios      int   // Reference sample size
	lowerBatchSize int   // N, scenarios per lower-bound batch
	batches        int   // M, number of lower-bound batches
	validationSize int   // N', validation batch size
	workers        int   // Parallel batch solves

	// run-only flags
	metricsFile string // Prometheus textfile output path
	traceLevel  string // Batch trace level

	// solve-only flags
	emissions []float64 // Emission coefficients (paver, rc, pervious)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pave-saa",
	Short: "Carbon-minimizing paving allocation under emission uncertainty (SAA)",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the full SAA pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve the best-estimate allocation and certify it with SAA bounds",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpec(cmd)
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, batches", traceLevel)
		}
		params, err := spec.ProblemParameters()
		if err != nil {
			logrus.Fatalf("Invalid problem parameters: %v", err)
		}

		key := runKey(spec)
		var metrics *saa.Metrics
		if metricsFile != "" {
			metrics = saa.NewMetrics()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Starting SAA run: key=%d scenarios=%d N=%d M=%d N'=%d workers=%d",
			key, spec.ScenarioCount(), spec.EstimatorConfig().LowerBatchSize, spec.EstimatorConfig().Batches,
			spec.EstimatorConfig().ValidationSize, spec.EstimatorConfig().Workers)
		res, err := saa.Run(ctx, saa.RunConfig{
			Params:     params,
			Emissions:  spec.EmissionModel(),
			Scenarios:  spec.ScenarioCount(),
			Estimator:  spec.EstimatorConfig(),
			Key:        key,
			TraceLevel: trace.TraceLevel(traceLevel),
			Metrics:    metrics,
		})
		if err != nil {
			logrus.Fatalf("SAA run failed: %v", err)
		}

		report := NewRunReport(params, res)
		if jsonOutput {
			if err := report.WriteJSON(os.Stdout); err != nil {
				logrus.Fatalf("Failed to write JSON report: %v", err)
			}
		} else {
			report.Print(os.Stdout)
		}

		if metrics != nil {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				logrus.Fatalf("Failed to write metrics file: %v", err)
			}
			logrus.Infof("Metrics written to: %s", metricsFile)
		}
		if !res.Solve.Success {
			os.Exit(1)
		}
		logrus.Info("SAA run complete.")
	},
}

// solveCmd runs a single deterministic solve
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the allocation LP for fixed emission coefficients (default: distribution modes)",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpec(cmd)
		params, err := spec.ProblemParameters()
		if err != nil {
			logrus.Fatalf("Invalid problem parameters: %v", err)
		}
		expected := spec.EmissionModel().Modes()
		if cmd.Flags().Changed("emissions") {
			if len(emissions) != saa.NumMaterials {
				logrus.Fatalf("--emissions needs %d values (paver,rc,pervious), got %d", saa.NumMaterials, len(emissions))
			}
			copy(expected[:], emissions)
		}

		report := NewSolveReport(params, expected)
		if jsonOutput {
			if err := report.WriteJSON(os.Stdout); err != nil {
				logrus.Fatalf("Failed to write JSON report: %v", err)
			}
		} else {
			report.Print(os.Stdout)
		}
		if !report.Success {
			os.Exit(1)
		}
	},
}

// validateCmd checks the site spec and reports feasibility
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a site spec and diagnose infeasible constraint sets",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpec(cmd)
		params, err := spec.ProblemParameters()
		if err != nil {
			logrus.Fatalf("Invalid problem parameters: %v", err)
		}
		if err := params.ValidateStrict(); err != nil {
			logrus.Warnf("%v", err)
		}
		causes := saa.DiagnoseInfeasibility(params, nil)
		if len(causes) == 0 {
			fmt.Println("Site spec is valid and the constraint set is feasible.")
			return
		}
		printDiagnosis(os.Stdout, causes)
		os.Exit(1)
	},
}

// loadSpec reads --config, applies changed flag overrides and validates.
// A missing default config falls back to the built-in reference case.
func loadSpec(cmd *cobra.Command) *saa.SiteSpec {
	var spec *saa.SiteSpec
	if _, err := os.Stat(configPath); err != nil && !cmd.Flags().Changed("config") {
		logrus.Infof("No %s found, using the built-in reference case", configPath)
		spec = saa.DefaultSiteSpec()
	} else {
		spec, err = saa.LoadSiteSpec(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load site spec: %v", err)
		}
	}
	applyOverrides(cmd, spec)
	if err := spec.Validate(); err != nil {
		logrus.Fatalf("Invalid site spec %s: %v", configPath, err)
	}
	return spec
}

// applyOverrides copies flags the user actually set into spec.
func applyOverrides(cmd *cobra.Command, spec *saa.SiteSpec) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		s := seed
		spec.Seed = &s
	}
	if flags.Changed("scenarios") {
		spec.Sampling.Scenarios = scenarios
	}
	if flags.Changed("batch-size") {
		spec.Sampling.LowerBatchSize = lowerBatchSize
	}
	if flags.Changed("batches") {
		spec.Sampling.Batches = batches
	}
	if flags.Changed("validation-size") {
		spec.Sampling.ValidationSize = validationSize
	}
	if flags.Changed("workers") {
		spec.Sampling.Workers = workers
	}
}

// runKey picks the seed from the site spec (after overrides) or draws one.
func runKey(spec *saa.SiteSpec) saa.RunKey {
	if spec.Seed != nil {
		return saa.NewRunKey(*spec.Seed)
	}
	key := saa.RandomRunKey()
	logrus.Warnf("No seed given; using random seed %d (pass --seed %d to reproduce)", key, key)
	return key
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultsFilePath, "Path to the YAML site spec")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Write the report as JSON")

	for _, c := range []*cobra.Command{runCmd, solveCmd, validateCmd} {
		rootCmd.AddCommand(c)
	}

	runCmd.Flags().Int64Var(&seed, "seed", 0, "Run seed (overrides the site spec seed)")
	runCmd.Flags().IntVar(&scenarios, "scenarios", saa.DefaultScenarios, "Reference sample size")
	runCmd.Flags().IntVar(&lowerBatchSize, "batch-size", 100, "Scenarios per lower-bound batch (N)")
	runCmd.Flags().IntVar(&batches, "batches", 30, "Number of lower-bound batches (M)")
	runCmd.Flags().IntVar(&validationSize, "validation-size", 10000, "Validation batch size (N')")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Parallel batch solves")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this path")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Batch trace level (none, batches)")

	solveCmd.Flags().Float64SliceVar(&emissions, "emissions", nil, "Emission coefficients paver,rc,pervious (kgCO2e/m²)")
}
