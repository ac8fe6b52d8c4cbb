package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/san-kum/murphybed/internal/config"
	"github.com/san-kum/murphybed/internal/design"
	"github.com/san-kum/murphybed/internal/export"
	"github.com/san-kum/murphybed/internal/optim"
	"github.com/san-kum/murphybed/internal/storage"
	"github.com/san-kum/murphybed/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultCycles = 100

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	theme      string

	// search overrides
	resume          string
	strategy        string
	searchSeed      uint64
	checkpointEvery int
	target          float64
	angles          int

	// scan
	scanPoints int
	scanSpread float64

	score bool

	// render
	outDir string
	width  int
	height int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "murphy",
		Short: "Murphy bed linkage designer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			})))
			if theme != "" {
				viz.SetTheme(theme)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".murphy", "data directory")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&preset, "preset", "p", "reference", "preset design")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [cycles]",
		Short: "Search the design parameters for a lower penalty",
		Args:  cobra.MaximumNArgs(1),
		RunE:  optimize,
	}
	searchFlags(optimizeCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [cycles]",
		Short: "Optimize with a live view of the poses and penalty",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watch,
	}
	searchFlags(watchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Solve every pose of the current design and score it",
		RunE:  sweep,
	}
	sweepCmd.Flags().IntVar(&angles, "angles", config.DefaultAngles, "poses from deployed to stowed")

	scanCmd := &cobra.Command{
		Use:   "scan <param[=lo:hi]>...",
		Short: "Grid-scan design parameters and report the best combination",
		Long: "Grid-scan design parameters such as A.length or B.attach_y.\n" +
			"Without an explicit range each parameter is scanned over ±spread around its current value.",
		Args: cobra.MinimumNArgs(1),
		RunE: scan,
	}
	scanCmd.Flags().IntVarP(&scanPoints, "points", "n", 9, "grid points per parameter")
	scanCmd.Flags().Float64Var(&scanSpread, "spread", 5, "half-width of the default range")
	scanCmd.Flags().IntVar(&angles, "angles", config.DefaultAngles, "poses from deployed to stowed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List optimization runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run]",
		Short: "Chart the penalty history of a run and list its poses",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&width, "width", 70, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 15, "chart height")

	renderCmd := &cobra.Command{
		Use:   "render [run]",
		Short: "Draw the poses and penalty history of a run to image files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: the run directory)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List preset designs",
		RunE:  listPresets,
	}
	presetsCmd.Flags().BoolVar(&score, "score", false, "sweep every preset and show its penalty")

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "Print the selected config as YAML, or write it to file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showConfig,
	}

	rootCmd.AddCommand(optimizeCmd, watchCmd, sweepCmd, scanCmd, listCmd, plotCmd, renderCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func searchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&resume, "resume", "r", "", "continue a run (id prefix or \"latest\")")
	cmd.Flags().StringVar(&strategy, "strategy", "round-robin", "parameter selection (round-robin, random)")
	cmd.Flags().Uint64Var(&searchSeed, "seed", 1, "random selection seed")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", config.DefaultCheckpointEvery, "iterations between checkpoints")
	cmd.Flags().Float64Var(&target, "target", 0, "stop once the penalty reaches this value")
	cmd.Flags().IntVar(&angles, "angles", config.DefaultAngles, "poses from deployed to stowed")
}

// loadConfig reads --config if given, otherwise the selected preset.
func loadConfig() (*config.Config, string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		return cfg, name, nil
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(config.ListPresets(), ", "))
	}
	return cfg, preset, nil
}

// parseCycles reads the optional cycle count, falling back to the default
// when it is missing or not a positive integer.
func parseCycles(args []string) int {
	if len(args) == 0 {
		return defaultCycles
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		slog.Warn("ignoring cycle count", "arg", args[0], "using", defaultCycles)
		return defaultCycles
	}
	return n
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("angles") {
		cfg.Sweep.Angles = angles
	}
	bed, err := cfg.Bed(slog.Default())
	if err != nil {
		return err
	}
	grid, err := cfg.Angles()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	b, err := bed.Evaluate(ctx, grid)
	if err != nil {
		return err
	}
	slog.Info("swept", "poses", len(grid), "elapsed", time.Since(start).Round(time.Millisecond))

	snaps := bed.Snapshots()
	fmt.Println(viz.Report(name, b, snaps))
	fmt.Println(viz.SweepChart(snaps, 60, 12))
	return nil
}

type scanAxis struct {
	name   string
	values []float64
}

func parseAxis(arg string, current float64) (scanAxis, error) {
	name, rng, ok := strings.Cut(arg, "=")
	lo, hi := current-scanSpread, current+scanSpread
	if ok {
		los, his, found := strings.Cut(rng, ":")
		if !found {
			return scanAxis{}, fmt.Errorf("range %q: want lo:hi", rng)
		}
		var err error
		if lo, err = strconv.ParseFloat(los, 64); err != nil {
			return scanAxis{}, fmt.Errorf("range %q: %w", rng, err)
		}
		if hi, err = strconv.ParseFloat(his, 64); err != nil {
			return scanAxis{}, fmt.Errorf("range %q: %w", rng, err)
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return scanAxis{name: name, values: optim.Linspace(lo, hi, scanPoints)}, nil
}

func scan(cmd *cobra.Command, args []string) error {
	if scanPoints < 2 {
		return fmt.Errorf("scan needs at least 2 points, got %d", scanPoints)
	}
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("angles") {
		cfg.Sweep.Angles = angles
	}
	grid, err := cfg.Angles()
	if err != nil {
		return err
	}
	bed, err := cfg.Bed(slog.Default())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		p, err := bed.ParseParam(strings.SplitN(arg, "=", 2)[0])
		if err != nil {
			return err
		}
		if p.IsPose() {
			return fmt.Errorf("%s is solved per pose and cannot be scanned", bed.Label(p))
		}
		current, err := bed.Get(p)
		if err != nil {
			return err
		}
		axis, err := parseAxis(arg, current)
		if err != nil {
			return err
		}
		names = append(names, bed.Label(p))
		ranges = append(ranges, axis.values)
	}

	ctx, stop := signalContext()
	defer stop()

	evaluated, failed := 0, 0
	gs := optim.NewGridSearch(names, ranges)
	best, penalty, err := gs.Search(ctx, func(ctx context.Context, values map[string]float64) (float64, error) {
		evaluated++
		for label, v := range values {
			p, err := bed.ParseParam(label)
			if err != nil {
				return 0, err
			}
			if err := bed.Set(p, v); err != nil {
				return 0, err
			}
		}
		b, err := bed.Evaluate(ctx, grid)
		if err != nil {
			failed++
			slog.Debug("scan point failed", "values", values, "err", err)
			return 0, err
		}
		return b.Total(), nil
	})
	if err != nil {
		return err
	}
	if best == nil || math.IsInf(penalty, 1) {
		return fmt.Errorf("%s: none of %d scan points produced a full sweep", name, evaluated)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tBEST")
	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%.4f\n", k, best[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npenalty %.6g (%d points, %d failed)\n", penalty, evaluated, failed)
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
	fmt.Fprintln(w, "ID\tPRESET\tCREATED\tUPDATED\tITER\tBEST\tACCEPT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4g\t%.0f%%\n",
			run.ID[:8],
			run.Preset,
			run.Created.Local().Format("2006-01-02 15:04:05"),
			run.Updated.Local().Format("15:04:05"),
			run.Iteration,
			run.Best,
			100*run.Metrics["acceptance_rate"],
		)
	}

	return w.Flush()
}

func runArg(st *storage.Store, args []string) (string, error) {
	prefix := "latest"
	if len(args) > 0 {
		prefix = args[0]
	}
	return st.Find(prefix)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runArg(st, args)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(id)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no iterations recorded yet")
		return nil
	}
	fmt.Printf("run %s: %d iterations\n\n", id, len(history))
	fmt.Println(viz.PenaltyChart(history, width, height))

	rows, err := st.LoadSweep(id)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	fmt.Println()
	return printSweep(rows)
}

// printSweep lists the committed poses as stored in sweep.csv.
func printSweep(rows []storage.SweepRow) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "ANGLE\tX\tY\t")
	for i := range rows[0].LinkAngles {
		fmt.Fprintf(w, "LINK%d\tFIT%d\t", i+1, i+1)
	}
	fmt.Fprintln(w, "FLOOR\tLEFT\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%.1f\t%.2f\t%.2f\t", r.Angle, r.X, r.Y)
		for i, a := range r.LinkAngles {
			fmt.Fprintf(w, "%.2f\t%.3g\t", a, r.LinkFit[i])
		}
		fmt.Fprintf(w, "%.2f\t%.2f\t\n", r.FloorOpening, r.Left)
	}
	return w.Flush()
}

func renderRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runArg(st, args)
	if err != nil {
		return err
	}
	cp, err := st.Load(id)
	if err != nil {
		return err
	}
	bed, err := cp.Config.Bed(slog.Default())
	if err != nil {
		return err
	}
	if err := bed.Restore(cp.State.Bed); err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Join(dataDir, id)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	title := fmt.Sprintf("%s iteration %d", cp.Run.Preset, cp.State.Iteration)
	poses := filepath.Join(dir, "poses.svg")
	if err := export.SavePoses(poses, title, bed.Snapshots()); err != nil {
		return err
	}
	fmt.Println("wrote", poses)

	if len(cp.State.History) == 0 {
		return nil
	}
	penalty := filepath.Join(dir, "penalty.svg")
	if err := export.SavePenalty(penalty, title, cp.State.History); err != nil {
		return err
	}
	fmt.Println("wrote", penalty)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()

	var scores []design.Outcome
	if score {
		beds := make([]*design.Bed, len(names))
		for i, name := range names {
			bed, err := config.GetPreset(name).Bed(slog.Default())
			if err != nil {
				return fmt.Errorf("preset %s: %w", name, err)
			}
			beds[i] = bed
		}
		grid, err := design.Angles(config.DefaultAngles)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()
		if scores, err = design.NewEnsemble(beds...).Evaluate(ctx, grid); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "NAME\tLENGTH\tTHICKNESS\tLINKS\tDEPLOYED\tSTOWED")
	if score {
		fmt.Fprint(w, "\tPENALTY")
	}
	fmt.Fprintln(w)
	for i, name := range names {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%g\t%g",
			name,
			cfg.Bedframe.Length,
			cfg.Bedframe.Thickness,
			len(cfg.Links),
			cfg.Targets.DeployedHeight,
			cfg.Targets.StowedHeight,
		)
		if score {
			if scores[i].Err != nil {
				fmt.Fprint(w, "\tfailed")
				slog.Warn("preset does not sweep", "preset", name, "err", scores[i].Err)
			} else {
				fmt.Fprintf(w, "\t%.4g", scores[i].Breakdown.Total())
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(args) == 1 {
		if err := config.Save(args[0], cfg); err != nil {
			return err
		}
		fmt.Println("wrote", args[0])
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
