package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/cartbox/internal/automation"
	"github.com/san-kum/cartbox/internal/config"
	"github.com/san-kum/cartbox/internal/export"
	"github.com/san-kum/cartbox/internal/logging"
	"github.com/san-kum/cartbox/internal/metrics"
	"github.com/san-kum/cartbox/internal/sim"
	"github.com/san-kum/cartbox/internal/storage"
	"github.com/san-kum/cartbox/internal/stream"
	"github.com/san-kum/cartbox/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	dt             float64
	duration       float64
	frameRate      int
	theme          string
	legacyOverlap  bool
	stopOnComplete bool

	floorFriction   float64
	cartBoxFriction float64
	cartMass        float64
	boxMass         float64
	maxSpeed        float64
	acceleration    float64
	deceleration    float64
	targetDistance  float64

	addr string

	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	workers      int
	trials       int
	perturbation float64
	seed         int64

	outFile string
	width   int
	height  int
)

// main registers the commands and opens the live viewer when no subcommand
// is given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "cartbox",
		Short:        "cart and box physics demo",
		SilenceUsage: true,
		RunE:         runMenu,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file (default stderr, data dir for the viewer)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().BoolVar(&stopOnComplete, "stop-on-complete", true, "stop once the run completes")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with live visualization",
		RunE:  runLive,
	}
	addParamFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "color theme")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websocket",
		RunE:  runServe,
	}
	addParamFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run telemetry to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export speed and distance charts to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 500, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACCEL\tDECEL\tMAX\tTARGET\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.0f\t%s\n", name,
					p.Params.Acceleration, p.Params.Deceleration, p.Params.MaxSpeed, p.Params.TargetDistance, p.Description)
			}
			return w.Flush()
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter across a range",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "deceleration", fmt.Sprintf("parameter %v", automation.ParamNames()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 6, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 6, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb every parameter randomly and count held boxes",
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.2, "relative perturbation")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")
	monteCarloCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a yaml script of timed commands",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd,
		exportSVGCmd, presetsCmd, sweepCmd, monteCarloCmd, scriptCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Params
	cmd.Flags().Float64Var(&floorFriction, "floor-friction", d.FloorFriction, "floor friction coefficient")
	cmd.Flags().Float64Var(&cartBoxFriction, "box-friction", d.CartBoxFriction, "cart/box friction coefficient")
	cmd.Flags().Float64Var(&cartMass, "cart-mass", d.CartMass, "cart mass (kg)")
	cmd.Flags().Float64Var(&boxMass, "box-mass", d.BoxMass, "box mass (kg)")
	cmd.Flags().Float64Var(&maxSpeed, "max-speed", d.MaxSpeed, "speed limit (m/s)")
	cmd.Flags().Float64Var(&acceleration, "accel", d.Acceleration, "acceleration (m/s²)")
	cmd.Flags().Float64Var(&deceleration, "decel", d.Deceleration, "deceleration (m/s²)")
	cmd.Flags().Float64Var(&targetDistance, "target", d.TargetDistance, "braking distance (m)")
	cmd.Flags().BoolVar(&legacyOverlap, "legacy-overlap", false, "apply forward and braking impulses together")
}

// loadConfig layers defaults, the config file, the preset, the environment
// and finally the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Params = p.Params
		cfg.Frame.Duration = p.Duration
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, dst *float64, v float64) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("floor-friction", &cfg.Params.FloorFriction, floorFriction)
	set("box-friction", &cfg.Params.CartBoxFriction, cartBoxFriction)
	set("cart-mass", &cfg.Params.CartMass, cartMass)
	set("box-mass", &cfg.Params.BoxMass, boxMass)
	set("max-speed", &cfg.Params.MaxSpeed, maxSpeed)
	set("accel", &cfg.Params.Acceleration, acceleration)
	set("decel", &cfg.Params.Deceleration, deceleration)
	set("target", &cfg.Params.TargetDistance, targetDistance)
	set("dt", &cfg.Frame.Dt, dt)
	set("time", &cfg.Frame.Duration, duration)

	if flags.Changed("legacy-overlap") {
		cfg.Braking.LegacyOverlap = legacyOverlap
	}
	if flags.Changed("fps") {
		cfg.Frame.FPS = frameRate
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.File)
}

// fileLogger logs into the data directory unless a file was configured, so
// the terminal UI is not overwritten.
func fileLogger(cfg *config.Config) (*zap.Logger, error) {
	file := cfg.Log.File
	if file == "" {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, err
		}
		file = filepath.Join(cfg.DataDir, "cartbox.log")
	}
	return logging.New(cfg.Log.Level, file)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	opts := cfg.SceneOptions(log)
	s := sim.New(opts)
	for _, m := range metrics.Standard(opts.Dimensions.CartHalf.X()) {
		s.AddMetric(m)
	}
	simCfg := sim.Config{
		Dt:             cfg.Frame.Dt,
		Duration:       cfg.Frame.Duration,
		StopOnComplete: stopOnComplete,
		ValidateState:  true,
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println("running cart simulation...")
	start := time.Now()
	result, err := s.Run(ctx, cfg.Params, simCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(preset, cfg.Params, simCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.Completed {
		fmt.Printf("run complete at %.2fs\n", result.CompletedAt)
	} else {
		fmt.Println("run did not complete")
	}
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runMenu(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	p := tea.NewProgram(viz.NewApp(cfg, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	name := preset
	if name == "" {
		name = "custom"
	}
	p := tea.NewProgram(viz.NewModel(cfg, name, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("streaming on ws://%s/ws\n", addr)
	return stream.NewServer(cfg, log).ListenAndServe(ctx, addr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tDONE\tPEAK\tPARAMS")

	for _, run := range runs {
		done := "-"
		if run.Completed {
			done = fmt.Sprintf("%.2fs", run.CompletedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.2f\t%s\n",
			run.ID[:8],
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			done,
			run.Metrics["peak_speed"],
			run.Fingerprint[:8],
		)
	}

	return w.Flush()
}

func loadRun(cmd *cobra.Command, id string) (*storage.RunMetadata, []sim.Sample, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	if meta.Preset != "" {
		fmt.Printf("preset: %s\n", meta.Preset)
	}
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"speed (m/s)", func(s sim.Sample) float64 { return s.Speed }},
		{"distance (m)", func(s sim.Sample) float64 { return s.Distance }},
		{"box offset on cart (m)", func(s sim.Sample) float64 { return s.BoxX - s.CartX }},
		{"box tilt (rad)", func(s sim.Sample) float64 { return s.BoxTilt }},
	}
	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, samples)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	svg := export.TelemetryToSVG(samples, width, height)
	if svg == "" {
		return fmt.Errorf("not enough samples to chart")
	}
	if outFile == "" {
		_, err = fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.NewRunner(cfg, nil, log).RunSweep(ctx, automation.Sweep{
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		Steps:    sweepSteps,
		Duration: cfg.Frame.Duration,
		Workers:  workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tDONE\tPEAK\tBRAKING\tSLIP\tLOST\n", sweepParam)
	for _, r := range results {
		done := "-"
		if r.Completed {
			done = fmt.Sprintf("%.2fs", r.CompletedAt)
		}
		fmt.Fprintf(w, "%.4f\t%s\t%.2f\t%.2f\t%.3f\t%v\n", r.Value, done,
			r.Metrics["peak_speed"], r.Metrics["braking_distance"], r.Metrics["box_slip"], r.Metrics["box_lost"] != 0)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.NewRunner(cfg, nil, log).RunMonteCarlo(ctx, automation.MonteCarlo{
		Perturbation: perturbation,
		Trials:       trials,
		Duration:     cfg.Frame.Duration,
		Seed:         seed,
		Workers:      workers,
	})
	if err != nil {
		return err
	}

	held, lost := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  held: %d  lost: %d\n", len(results), held, lost)
	for _, r := range results {
		if !r.Held {
			fmt.Printf("  trial %d lost the box: accel %.2f decel %.2f box μ %.3f\n",
				r.Trial, r.Params.Acceleration, r.Params.Deceleration, r.Params.CartBoxFriction)
		}
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running script %s (%d steps)\n", script.Name, len(script.Steps))
	results, err := automation.NewRunner(cfg, st, log).RunScript(ctx, script)
	for _, r := range results {
		final := r.Result.Final()
		fmt.Printf("  step %d %-16s run %s  phase %-8s distance %.2f\n",
			r.Step, r.Label, r.RunID[:8], final.Phase, final.Distance)
		for _, e := range r.Result.Errors {
			fmt.Printf("    warning: %v\n", e)
		}
	}
	return err
}
