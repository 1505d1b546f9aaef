package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"isinglab/internal/analysis"
	"isinglab/internal/config"
	"isinglab/internal/physics"
	"isinglab/internal/sim"
	"isinglab/internal/storage"
)

var (
	storeBackend string
	storePath    string

	width       int
	height      int
	coupling    float64
	field       float64
	temperature float64
	seed        int64
	initMode    string
	workers     int

	equilSweeps  int
	sampleSweeps int
	interval     int

	configFile string
	preset     string

	// Temperature scan bounds for the sweep command.
	tempMin   float64
	tempMax   float64
	tempSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "isinglab",
		Short: "2D Ising model Metropolis Monte Carlo lab",
	}

	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", config.DefaultStoreBackend, "store backend (files|sqlite)")
	rootCmd.PersistentFlags().StringVar(&storePath, "data", config.DefaultStorePath, "data directory or database path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "equilibrate, sample and store one simulation run",
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)
	runCmd.Flags().IntVar(&equilSweeps, "equil", config.DefaultEquilSweeps, "equilibration sweeps")
	runCmd.Flags().IntVar(&sampleSweeps, "sweeps", config.DefaultSampleSweeps, "sampling sweeps")
	runCmd.Flags().IntVar(&interval, "interval", config.DefaultInterval, "sweeps between samples")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "scan a temperature range and estimate the critical point",
		RunE:  runTemperatureSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&tempMin, "tmin", 1.0, "scan start temperature")
	sweepCmd.Flags().Float64Var(&tempMax, "tmax", 3.5, "scan end temperature")
	sweepCmd.Flags().IntVar(&tempSteps, "steps", 26, "number of scan points")
	sweepCmd.Flags().IntVar(&equilSweeps, "equil", 500, "equilibration sweeps per point")
	sweepCmd.Flags().IntVar(&sampleSweeps, "sweeps", 2000, "sampling sweeps per point")
	sweepCmd.Flags().IntVar(&interval, "interval", 5, "sweeps between samples")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot observables of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "autocorrelation analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run record to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a stored run where it left off",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().IntVar(&sampleSweeps, "sweeps", config.DefaultSampleSweeps, "additional sampling sweeps")
	resumeCmd.Flags().IntVar(&interval, "interval", config.DefaultInterval, "sweeps between samples")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark sweep throughput across lattice sizes",
		RunE:  benchSizes,
	}
	benchCmd.Flags().IntVar(&workers, "workers", 1, "checkerboard workers (1 = sequential)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s %dx%d T=%.3f h=%.2f\n", name, p.Width, p.Height, p.Temperature, p.Field)
			}
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, resumeCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "lattice width")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "lattice height")
	cmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J")
	cmd.Flags().Float64Var(&field, "field", 0.0, "external field h")
	cmd.Flags().Float64Var(&temperature, "temp", config.DefaultTemperature, "temperature")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&initMode, "init", "random", "initial configuration (random|up|down)")
	cmd.Flags().IntVar(&workers, "workers", 1, "checkerboard workers (1 = sequential)")
}

// signalContext cancels on interrupt so long runs stop at a sweep
// boundary with aggregates intact.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override preset and config file values.
	if cmd.Flags().Changed("width") {
		cfg.Width = width
	}
	if cmd.Flags().Changed("height") {
		cfg.Height = height
	}
	if cmd.Flags().Changed("coupling") {
		cfg.Coupling = coupling
	}
	if cmd.Flags().Changed("field") {
		cfg.Field = field
	}
	if cmd.Flags().Changed("temp") {
		cfg.Temperature = temperature
	}
	if cmd.Flags().Changed("init") {
		cfg.Init = initMode
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("equil") {
		cfg.EquilibrationSweeps = equilSweeps
	}
	if cmd.Flags().Changed("sweeps") {
		cfg.SamplingSweeps = sampleSweeps
	}
	if cmd.Flags().Changed("interval") {
		cfg.SampleInterval = interval
	}
	if cfg.Seed == 0 || cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, nil
}

func openStore(ctx context.Context) (storage.Store, error) {
	st, err := storage.New(storeBackend, storePath)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctrl, err := sim.NewController(cfg.SimConfig())
	if err != nil {
		return err
	}

	fmt.Printf("running %dx%d lattice at T=%.3f (J=%.2f, h=%.2f, seed=%d)\n",
		cfg.Width, cfg.Height, cfg.Temperature, cfg.Coupling, cfg.Field, cfg.Seed)
	start := time.Now()

	if cfg.EquilibrationSweeps > 0 {
		if err := ctrl.RunEquilibration(ctx, cfg.EquilibrationSweeps); err != nil {
			return err
		}
	}
	if err := ctrl.RunSampling(ctx, cfg.SamplingSweeps, cfg.SampleInterval); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := ctrl.CheckConsistency(sim.DriftTolerance); err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := recordFromController(ctrl, cfg)
	if err := st.Save(ctx, rec); err != nil {
		return err
	}

	stats := ctrl.Stats(0)
	snap := ctrl.Snapshot()

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", rec.ID)
	fmt.Printf("sweeps: %d, samples: %d\n\n", snap.SweepCount, stats.Samples)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBSERVABLE\tVALUE")
	fmt.Fprintf(w, "<e>\t%.6f\n", stats.MeanEnergy)
	fmt.Fprintf(w, "<m>\t%.6f\n", stats.MeanMagnetization)
	fmt.Fprintf(w, "<|m|>\t%.6f\n", stats.MeanAbsMagnetization)
	fmt.Fprintf(w, "specific heat\t%.6f\n", stats.SpecificHeat)
	fmt.Fprintf(w, "susceptibility\t%.6f\n", stats.Susceptibility)
	fmt.Fprintf(w, "acceptance\t%.4f\n", snap.AcceptanceRate)
	return w.Flush()
}

func recordFromController(ctrl *sim.Controller, cfg *config.Config) *storage.RunRecord {
	snap := ctrl.Snapshot()
	stats := ctrl.Stats(0)
	return &storage.RunRecord{
		ID:            storage.NewRunID(snap.Width, snap.Height),
		Timestamp:     time.Now(),
		Width:         snap.Width,
		Height:        snap.Height,
		Coupling:      snap.Params.Coupling,
		Field:         snap.Params.Field,
		Temperature:   snap.Params.Temperature,
		Boltzmann:     snap.Params.Boltzmann,
		Seed:          cfg.Seed,
		Init:          cfg.Init,
		Workers:       cfg.Workers,
		SweepCount:    snap.SweepCount,
		Energy:        snap.Energy,
		Magnetization: snap.Magnetization,
		Lattice:       snap.Grid,
		Samples:       ctrl.Samples(),
		Stats: map[string]float64{
			"mean_energy":            stats.MeanEnergy,
			"mean_magnetization":     stats.MeanMagnetization,
			"mean_abs_magnetization": stats.MeanAbsMagnetization,
			"specific_heat":          stats.SpecificHeat,
			"susceptibility":         stats.Susceptibility,
		},
	}
}

func runTemperatureSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if tempSteps < 2 {
		return fmt.Errorf("steps must be at least 2, got %d", tempSteps)
	}
	if tempMax <= tempMin {
		return fmt.Errorf("tmax %.3f must exceed tmin %.3f", tempMax, tempMin)
	}

	temps := make([]float64, tempSteps)
	for i := range temps {
		temps[i] = tempMin + (tempMax-tempMin)*float64(i)/float64(tempSteps-1)
	}

	fmt.Printf("scanning %d temperatures in [%.3f, %.3f] on %dx%d\n",
		tempSteps, tempMin, tempMax, cfg.Width, cfg.Height)
	start := time.Now()

	ens := sim.NewEnsemble(cfg.SimConfig(), temps, cfg.Seed)
	points, err := ens.Run(ctx, equilSweeps, sampleSweeps, interval)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\t<e>\t<|m|>\tC\tCHI\tACCEPT")
	chis := make([]float64, len(points))
	for i, p := range points {
		chis[i] = p.Susceptibility
		fmt.Fprintf(w, "%.3f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			p.Temperature, p.MeanEnergy, p.MeanAbsMagnetization,
			p.SpecificHeat, p.Susceptibility, p.AcceptanceRate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	graph := asciigraph.Plot(chis,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("susceptibility vs temperature"),
	)
	fmt.Println()
	fmt.Println(graph)

	tc, peak := analysis.PeakTemperature(temps, chis)
	fmt.Printf("\nsusceptibility peak: chi=%.4f at T=%.3f (exact Tc ~ 2.269)\n", peak, tc)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tT\tH\tSWEEPS\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%.3f\t%.2f\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Temperature, run.Field,
			run.SweepCount, run.Samples,
		)
	}
	return w.Flush()
}

func loadRecord(ctx context.Context, id string) (*storage.RunRecord, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, id)
}

func plotRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(rec.Samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	fmt.Printf("run: %s\n", rec.ID)
	fmt.Printf("lattice: %dx%d, T=%.3f, h=%.2f\n", rec.Width, rec.Height, rec.Temperature, rec.Field)
	fmt.Printf("samples: %d\n\n", len(rec.Samples))

	energies := make([]float64, len(rec.Samples))
	mags := make([]float64, len(rec.Samples))
	for i, s := range rec.Samples {
		energies[i] = s.EnergyPerSite
		mags[i] = s.MagnetizationPerSite
	}

	fmt.Println(asciigraph.Plot(energies,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("energy per site"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(mags,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("magnetization per site"),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(rec.Samples) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}

	mags := make([]float64, len(rec.Samples))
	for i, s := range rec.Samples {
		mags[i] = s.MagnetizationPerSite
	}

	fmt.Printf("autocorrelation analysis: %s\n", rec.ID)
	fmt.Printf("samples: %d\n\n", len(mags))

	maxLag := len(mags) / 4
	if maxLag > 64 {
		maxLag = 64
	}
	acf := analysis.Autocorrelation(mags, maxLag)

	fmt.Println(asciigraph.Plot(acf,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("magnetization autocorrelation"),
	))

	tau := analysis.IntegratedAutocorrelationTime(mags)
	fmt.Printf("\nintegrated autocorrelation time: %.2f samples\n", tau)
	if tau > 1.0 {
		fmt.Printf("suggested sampling interval multiplier: %.0fx\n", 2*tau)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(rec.Samples) == 0 {
		return fmt.Errorf("no samples to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"sweep", "energy_per_site", "magnetization_per_site"}); err != nil {
		return err
	}
	for _, s := range rec.Samples {
		row := []string{
			strconv.FormatUint(s.Sweep, 10),
			strconv.FormatFloat(s.EnergyPerSite, 'f', 6, 64),
			strconv.FormatFloat(s.MagnetizationPerSite, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := struct {
		*storage.RunRecord
		Lattice []int8          `json:"lattice"`
		Samples json.RawMessage `json:"samples"`
	}{RunRecord: rec, Lattice: rec.Lattice}

	samples, err := json.Marshal(rec.Samples)
	if err != nil {
		return err
	}
	out.Samples = samples

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func resumeRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}

	ctrl, err := sim.Restore(sim.Config{
		Width:  rec.Width,
		Height: rec.Height,
		Params: physics.Parameters{
			Coupling:    rec.Coupling,
			Field:       rec.Field,
			Temperature: rec.Temperature,
			Boltzmann:   rec.Boltzmann,
		},
		Seed:    rec.Seed,
		Init:    sim.InitMode(rec.Init),
		Workers: rec.Workers,
	}, rec.Lattice, rec.SweepCount, rec.Energy, rec.Magnetization, rec.Samples)
	if err != nil {
		return err
	}

	fmt.Printf("resuming %s at sweep %d\n", rec.ID, rec.SweepCount)
	if err := ctrl.RunSampling(ctx, sampleSweeps, interval); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	rec.SweepCount = snap.SweepCount
	rec.Energy = snap.Energy
	rec.Magnetization = snap.Magnetization
	rec.Lattice = snap.Grid
	rec.Samples = ctrl.Samples()
	if err := st.Save(ctx, rec); err != nil {
		return err
	}

	fmt.Printf("now at sweep %d with %d samples\n", snap.SweepCount, len(rec.Samples))
	return nil
}

func benchSizes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sizes := []int{16, 32, 64, 128}
	sweeps := 200

	fmt.Printf("benchmarking %d sweeps per size (workers=%d)\n\n", sweeps, workers)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tSWEEPS\tTIME\tSWEEPS/SEC\tTRIALS/SEC")

	for _, size := range sizes {
		ctrl, err := sim.NewController(sim.Config{
			Width:   size,
			Height:  size,
			Params:  config.DefaultConfig().Parameters(),
			Seed:    42,
			Init:    sim.InitRandom,
			Workers: workers,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		if err := ctrl.RunEquilibration(ctx, sweeps); err != nil {
			return err
		}
		elapsed := time.Since(start)

		sweepsPerSec := float64(sweeps) / elapsed.Seconds()
		trialsPerSec := sweepsPerSec * float64(size*size)
		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.0f\t%.2e\n",
			size, size, sweeps, elapsed.Round(time.Millisecond), sweepsPerSec, trialsPerSec)
	}
	return w.Flush()
}
