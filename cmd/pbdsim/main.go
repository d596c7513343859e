package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pbdsim/internal/config"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/export"
	"github.com/san-kum/pbdsim/internal/metrics"
	"github.com/san-kum/pbdsim/internal/optim"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/sim"
	"github.com/san-kum/pbdsim/internal/solver"
	"github.com/san-kum/pbdsim/internal/storage"
	"github.com/san-kum/pbdsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	verbose    bool
	logger     *log.Logger

	steps      int
	benchSteps int
	solverName string
	iterations int
	relaxation float64
	stiffness  float64
	dt         float64
	constraint string
	link       float64
	save       bool
	plot       bool
	scale      float64
	series     string
	svgFile    string
	metricName string
)

const defaultBenchSteps = 1000

// main runs the CLI; with no subcommand it opens the live view on the
// default scenario.
func main() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "pbdsim",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// newRootCmd registers every command. Commands that share a package-level
// flag variable must share its default too, since pflag writes the default
// at registration.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pbdsim",
		Short:         "position based particle constraint solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, []string{config.DefaultPreset})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pbdsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addScenarioFlags(rootCmd)
	rootCmd.Flags().Float64Var(&scale, "scale", viz.DefaultScale, "dots per world unit")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario headless",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().BoolVar(&save, "save", false, "store a run record")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the violation series")
	runCmd.Flags().StringVar(&svgFile, "svg", "", "write the final scene and particle paths as SVG")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step a scenario in the terminal",
		Long:  "step a scenario in the terminal; without a preset or --config a scenario menu opens",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().Float64Var(&scale, "scale", viz.DefaultScale, "dots per world unit")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "run a scenario under every solver that supports it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareSolvers,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time the step loop",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	addScenarioFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "steps", defaultBenchSteps, "number of steps")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search relaxation and iterations for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScenario,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	tuneCmd.Flags().StringVar(&metricName, "metric", "violation", "metric to minimise")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOLVER\tKIND\tPARTICLES\tSTEPS")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", name, p.Solver, p.Constraint, len(p.Particles), p.Steps)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [preset] [file]",
		Short: "write a preset as a scenario file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			if err := config.Save(args[1], cfg); err != nil {
				return err
			}
			logger.Info("scenario written", "preset", args[0], "file", args[1])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list run records",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded diagnostic series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "", "metric to plot (default: all)")

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, benchCmd, tuneCmd, presetsCmd, exportCmd, listCmd, plotCmd)
	return rootCmd
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "scenario file (yaml, or ini/cfg/gcfg)")
	f.StringVar(&solverName, "solver", config.DefaultSolver, "dual, primal or projection")
	f.StringVar(&constraint, "constraint", config.DefaultConstraint, "contact or link")
	f.Float64Var(&link, "link", config.DefaultLinkDistance, "link distance for link constraints")
	f.IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations per step")
	f.Float64Var(&relaxation, "relaxation", config.DefaultRelaxation, "relaxation in (0, 1]")
	f.Float64Var(&stiffness, "stiffness", config.DefaultStiffness, "constraint stiffness")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
}

// loadScenario resolves the scenario from --config, a preset argument or the
// default preset, then applies explicitly set flags on top.
func loadScenario(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	var (
		name string
		cfg  *config.Config
	)
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		name, cfg = loaded.Name, loaded
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	default:
		name = config.DefaultPreset
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	applyFlags(cmd, cfg)
	return name, cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("solver") {
		cfg.Solver = solverName
	}
	if f.Changed("constraint") {
		cfg.Constraint = constraint
	}
	if f.Changed("link") {
		cfg.LinkDistance = link
	}
	if f.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if f.Changed("relaxation") {
		cfg.Relaxation = relaxation
	}
	if f.Changed("stiffness") {
		cfg.Stiffness = stiffness
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("steps") {
		if n, err := f.GetInt("steps"); err == nil {
			cfg.Steps = n
		}
	}
}

func buildSimulation(cfg *config.Config) (*sim.Simulation, error) {
	sc, err := cfg.ToSim()
	if err != nil {
		return nil, err
	}
	return sim.New(sc)
}

// stepLogger writes every metric at debug level. Observers run after the
// metrics of the same step have been sampled.
type stepLogger struct {
	log     *log.Logger
	metrics []sim.Metric
}

func (l stepLogger) OnStep(step int, _ *particle.Store, cs *contact.Set) {
	kv := make([]interface{}, 0, 2*len(l.metrics)+2)
	kv = append(kv, "n", step)
	for _, m := range l.metrics {
		kv = append(kv, m.Name(), m.Value())
	}
	l.log.Debug("step", kv...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	s, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	ms := metrics.Default()
	for _, m := range ms {
		s.AddMetric(m)
	}
	s.AddObserver(stepLogger{log: logger, metrics: ms})
	var trace *export.Trace
	if svgFile != "" {
		trace = export.NewTrace()
		s.AddObserver(trace)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "scenario", name, "solver", cfg.Solver, "steps", cfg.Steps)
	start := time.Now()
	result, err := s.Run(ctx, cfg.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d steps in %v\n\n", result.Steps, elapsed)
	printParticles(result.Particles)
	printMetrics(result.Metrics)

	if plot {
		if v := result.Series["violation"]; len(v) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(v, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("violation per step")))
		}
	}

	if trace != nil {
		out := export.SceneToSVG(export.Scene{Particles: result.Particles, Contacts: s.Contacts(), Trace: trace}, 800, 600)
		if err := os.WriteFile(svgFile, []byte(out), 0644); err != nil {
			return err
		}
		logger.Info("scene written", "file", svgFile)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, s.Config(), result)
		if err != nil {
			return err
		}
		logger.Info("run saved", "id", runID)
	}
	return nil
}

func printParticles(ps []sim.ParticleView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX\tY\tVX\tVY\tINV_MASS\tRADIUS")
	for i, p := range ps {
		fmt.Fprintf(w, "%d\t%.5f\t%.5f\t%.5f\t%.5f\t%g\t%g\n",
			i, p.Position.X(), p.Position.Y(), p.Velocity.X(), p.Velocity.Y(), p.InvMass, p.Radius)
	}
	w.Flush()
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" && cmd.Name() == "live" {
		info := make(map[string]string, len(config.Presets))
		for name, p := range config.Presets {
			info[name] = fmt.Sprintf("%s, %d particles", p.Solver, len(p.Particles))
		}
		build := func(name string) (*sim.Simulation, error) {
			cfg := config.GetPreset(name)
			applyFlags(cmd, cfg)
			return buildSimulation(cfg)
		}
		return viz.RunPicker(config.ListPresets(), info, build, scale)
	}

	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	s, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	return viz.Run(s, name, scale)
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sc, err := cfg.ToSim()
	if err != nil {
		return err
	}

	modes := []solver.Mode{solver.ModeDual, solver.ModePrimal}
	if sc.Constraint == contact.Inequality {
		modes = append(modes, solver.ModeProjection)
	}

	logger.Info("comparing", "scenario", name, "solvers", len(modes), "steps", cfg.Steps)
	results, err := sim.NewEnsemble(sc, modes, metrics.Default).Run(context.Background(), cfg.Steps)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tVIOLATION\tCONTACTS\tMAX_MULT\tKINETIC\tMOMENTUM_DRIFT")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.3e\t%.0f\t%.4g\t%.4g\t%.3e\n",
			modes[i],
			r.Metrics["violation"],
			r.Metrics["contacts"],
			r.Metrics["max_multiplier"],
			r.Metrics["kinetic_energy"],
			r.Metrics["momentum_drift"],
		)
	}
	w.Flush()

	// positions of the first two solvers against each other
	if len(results) >= 2 {
		worst := 0.0
		for i := range results[0].Particles {
			d := results[0].Particles[i].Position.Sub(results[1].Particles[i].Position).Len()
			worst = max(worst, d)
		}
		fmt.Printf("\nmax position gap %s vs %s: %.3e\n", modes[0], modes[1], worst)
	}
	return nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	s, err := buildSimulation(cfg)
	if err != nil {
		return err
	}

	n := benchSteps
	start := time.Now()
	for i := 0; i < n; i++ {
		s.Step()
	}
	elapsed := time.Since(start)

	fmt.Printf("scenario:   %s (%s, %d particles)\n", name, cfg.Solver, s.Len())
	fmt.Printf("steps:      %d\n", n)
	fmt.Printf("total:      %v\n", elapsed)
	if n > 0 {
		fmt.Printf("per step:   %v\n", elapsed/time.Duration(n))
		fmt.Printf("steps/sec:  %.0f\n", float64(n)/elapsed.Seconds())
	}
	return nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sc, err := cfg.ToSim()
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(
		[]string{optim.ParamRelaxation, optim.ParamIterations},
		[][]float64{{0.1, 0.25, 0.5, 0.75, 1}, {1, 5, 10, 20, 50}},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("tuning", "scenario", name, "solver", cfg.Solver, "metric", metricName, "steps", cfg.Steps)
	best, all, err := g.Search(ctx, sc, cfg.Steps, metrics.Default, metricName)
	for _, c := range all {
		if c.Err != nil {
			logger.Debug("candidate rejected", "params", c.Params, "err", c.Err)
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d settings\n", len(all))
	fmt.Printf("best %s: %.6g\n", metricName, best.Value)
	fmt.Printf("  relaxation: %g\n", best.Params[optim.ParamRelaxation])
	fmt.Printf("  iterations: %g\n", best.Params[optim.ParamIterations])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSOLVER\tKIND\tSTEPS\tITER\tVIOLATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Solver,
			run.Constraint,
			run.Steps,
			run.Iterations,
			run.Metrics["violation"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	all, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(all))
	if series != "" {
		if _, ok := all[series]; !ok {
			return fmt.Errorf("%w: %s", storage.ErrNoSeries, series)
		}
		names = append(names, series)
	} else {
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s, %s)\n", meta.Scenario, meta.Solver, meta.Constraint)
	fmt.Printf("steps: %d\n\n", meta.Steps)

	for _, name := range names {
		data := all[name]
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}
