package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"bertrand-replay/internal/analysis"
	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/config"
	"bertrand-replay/internal/data"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/npyio"
	"bertrand-replay/internal/replay"
	"bertrand-replay/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(ctx, os.Args[2:])
	case "ic":
		cmdIC(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "all-states":
		cmdAllStates(ctx, os.Args[2:])
	default:
		usage(os.Stdout)
		os.Exit(2)
	}
}

// Files shipped under examples/ that the usage text points at.
const (
	exampleConfig   = "examples/config.yaml"
	exampleMarkets  = "examples/super_stars_2_agents.yaml"
	exampleMarketID = "colluding_at_4"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintf(w, "  cli simulate   --config %s --markets %s --out results [--csv] [--db runs.db]\n", exampleConfig, exampleMarkets)
	fmt.Fprintf(w, "  cli ic         --config %s --dir results\n", exampleConfig)
	fmt.Fprintf(w, "  cli check      --config %s --markets %s --market %s\n", exampleConfig, exampleMarkets, exampleMarketID)
	fmt.Fprintf(w, "  cli all-states --config %s --markets %s --out results\n", exampleConfig, exampleMarkets)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "notes:")
	fmt.Fprintln(w, "  - simulate writes (markets, periods, agents) int64 .npy arrays with and without deviation")
	fmt.Fprintln(w, "  - ic reads those arrays back and writes the share of incentive-compatible markets")
}

// setup loads the config and markets shared by every replaying subcommand.
func setup(cfgPath, marketPaths string) (*config.Config, *replay.Engine, []replay.Market) {
	if cfgPath == "" {
		log.Fatal("--config is required")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	cdc, err := codec.New(cfg.Market.ToModelParams())
	if err != nil {
		log.WithError(err).Fatal("build codec")
	}

	f, err := data.LoadMarkets(splitPaths(marketPaths))
	if err != nil {
		log.WithError(err).Fatal("load markets")
	}
	markets, err := data.BuildMarkets(f.Markets, cdc)
	if err != nil {
		log.WithError(err).Fatal("build markets")
	}
	log.WithFields(log.Fields{
		"markets": len(markets),
		"agents":  cdc.NAgent(),
		"states":  cdc.TotalStates(),
	}).Info("loaded markets")
	return cfg, replay.New(cdc), markets
}

func cmdSimulate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	marketPaths := fs.String("markets", "", "Comma-separated markets files or directories")
	outDir := fs.String("out", "results", "Output directory")
	writeCSV := fs.Bool("csv", false, "Also write a per-period ledger CSV")
	dbPath := fs.String("db", "", "Optional SQLite database to store the run in")
	label := fs.String("label", "", "Label for the stored run")
	top := fs.Int("top", 10, "Print the N markets where deviating paid most")
	_ = fs.Parse(args)

	cfg, engine, markets := setup(*cfgPath, *marketPaths)
	params := engine.Params()
	spec := cfg.Deviation.ToDeviationSpec()

	batch, err := engine.SimulateMarkets(ctx, markets, spec, cfg.Workers)
	if err != nil {
		log.WithError(err).Fatal("simulate")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatal("create output dir")
	}
	for name, trajs := range map[string][]model.Trajectory{
		"no_deviation": batch.NoDeviation,
		"deviation":    batch.Deviation,
	} {
		path := filepath.Join(*outDir, fmt.Sprintf("array_%s_simulations_%d_agents.npy", name, params.NAgent))
		shape, flat := replay.Stack(trajs)
		if err := npyio.WriteFile(path, shape, flat); err != nil {
			log.WithError(err).Fatal("write array")
		}
		log.WithFields(log.Fields{"file": path, "shape": shape}).Info("wrote array")
	}

	results, err := analysis.CheckICMarketsForAgent(batch.Deviation, batch.NoDeviation, spec.DeviatingAgent, params)
	if err != nil {
		log.WithError(err).Fatal("check ic")
	}

	if *writeCSV {
		var ledger []replay.LedgerRow
		for i, id := range batch.MarketIDs {
			ledger = append(ledger, replay.BuildLedger(id, model.PathNoDeviation, batch.NoDeviation[i], spec.DeviatingAgent, params)...)
			ledger = append(ledger, replay.BuildLedger(id, model.PathDeviation, batch.Deviation[i], spec.DeviatingAgent, params)...)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("ledger_%d_agents.csv", params.NAgent))
		if err := replay.WriteLedgerCSV(path, ledger); err != nil {
			log.WithError(err).Fatal("write ledger")
		}
		log.WithFields(log.Fields{"file": path, "rows": len(ledger)}).Info("wrote ledger")
	}

	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("open store")
		}
		defer db.Close()
		run := &store.Run{Label: *label, Params: params, Spec: spec}
		for i, id := range batch.MarketIDs {
			run.Markets = append(run.Markets, store.MarketRun{
				MarketID:    id,
				NoDeviation: batch.NoDeviation[i],
				Deviation:   batch.Deviation[i],
				IC:          results[i],
			})
		}
		id, err := db.SaveRun(ctx, run)
		if err != nil {
			log.WithError(err).Fatal("store run")
		}
		log.WithField("run_id", id).Info("stored run")
	}

	ranked := analysis.RankByDeviationGain(batch.MarketIDs, results)
	if *top > 0 && *top < len(ranked) {
		ranked = ranked[:*top]
	}
	fmt.Printf("%-4s %-18s %-6s %-12s %-12s %-10s\n", "rank", "market", "ic", "v_no_dev", "v_dev", "gain")
	for i, r := range ranked {
		fmt.Printf("%-4d %-18s %-6t %-12.2f %-12.2f %-10.2f\n", i+1, r.MarketID, r.IsIC, r.ValueNoDev, r.ValueDev, r.Gain())
	}
	fmt.Printf("IC share=%.3f over %d markets\n", analysis.ShareIC(results), len(results))
}

func cmdIC(args []string) {
	fs := flag.NewFlagSet("ic", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dir := fs.String("dir", "results", "Directory holding the simulate arrays")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		log.Fatal("--config is required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	params := cfg.Market.ToModelParams()

	load := func(name string) []model.Trajectory {
		path := filepath.Join(*dir, fmt.Sprintf("array_%s_simulations_%d_agents.npy", name, params.NAgent))
		f, err := os.Open(path)
		if err != nil {
			log.WithError(err).Fatal("open array")
		}
		defer f.Close()
		shape, flat, err := npyio.ReadInt64(f)
		if err != nil {
			log.WithError(err).WithField("file", path).Fatal("read array")
		}
		trajs := replay.Unstack(shape, flat)
		if trajs == nil {
			log.WithFields(log.Fields{"file": path, "shape": shape}).Fatal("array is not (markets, periods, agents)")
		}
		return trajs
	}
	noDev := load("no_deviation")
	dev := load("deviation")

	results, err := analysis.CheckICMarketsForAgent(dev, noDev, cfg.Deviation.DeviatingAgent, params)
	if err != nil {
		log.WithError(err).Fatal("check ic")
	}
	share := analysis.ShareIC(results)

	out := map[string]string{
		fmt.Sprintf("IC_share_all_markets_%d_agents", params.NAgent): fmt.Sprintf("%.3f", share),
	}
	path := filepath.Join(*dir, fmt.Sprintf("ic_all_super_star_%d_agents.json", params.NAgent))
	if err := writeJSON(path, out); err != nil {
		log.WithError(err).Fatal("write ic share")
	}
	log.WithFields(log.Fields{"file": path, "share_ic": share, "markets": len(results)}).Info("wrote ic share")
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	marketPaths := fs.String("markets", "", "Comma-separated markets files or directories")
	marketID := fs.String("market", "", "ID of the market to check (default: first)")
	outPath := fs.String("out", "", "Optional JSON output path (default: stdout)")
	_ = fs.Parse(args)

	cfg, engine, markets := setup(*cfgPath, *marketPaths)
	if len(markets) == 0 {
		log.Fatal("no markets loaded")
	}
	m := markets[0]
	if *marketID != "" {
		found := false
		for _, cand := range markets {
			if cand.ID == *marketID {
				m, found = cand, true
				break
			}
		}
		if !found {
			log.WithField("market", *marketID).Fatal("market not found")
		}
	}

	spec := cfg.Deviation.ToDeviationSpec()
	start, err := engine.Codec().Decode(m.StateOfConvergence)
	if err != nil {
		log.WithError(err).Fatal("decode state of convergence")
	}
	dev, err := engine.PlayWithDeviation(spec, m.Policies, start)
	if err != nil {
		log.WithError(err).Fatal("play with deviation")
	}
	noDev, err := engine.PlayWithoutDeviation(spec, m.Policies, start)
	if err != nil {
		log.WithError(err).Fatal("play without deviation")
	}
	r, err := analysis.CheckICForAgent(dev, noDev, spec.DeviatingAgent, engine.Params())
	if err != nil {
		log.WithError(err).Fatal("check ic")
	}

	out := map[string]any{
		"IC":       r.IsIC,
		"V_NO_DEV": r.ValueNoDev,
		"V_DEV":    r.ValueDev,
	}
	if *outPath == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		_ = enc.Encode(out)
		return
	}
	if err := writeJSON(*outPath, out); err != nil {
		log.WithError(err).Fatal("write result")
	}
	log.WithFields(log.Fields{"market": m.ID, "file": *outPath, "ic": r.IsIC}).Info("wrote ic check")
}

func cmdAllStates(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("all-states", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	marketPaths := fs.String("markets", "", "Comma-separated markets files or directories")
	outDir := fs.String("out", "results", "Output directory")
	collusive := fs.Float64("collusive-threshold", 3, "Mean price above which a market counts as collusive")
	_ = fs.Parse(args)

	cfg, engine, markets := setup(*cfgPath, *marketPaths)
	nash := float64(analysis.ComputeBenchmarks(engine.Params()).NashPrice)
	all, err := engine.PlayFromAllStates(ctx, markets, cfg.Deviation.ToDeviationSpec(), cfg.Workers)
	if err != nil {
		log.WithError(err).Fatal("play from all states")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatal("create output dir")
	}
	path := filepath.Join(*outDir, fmt.Sprintf("array_all_state_simulations_%d_agents.npy", engine.Params().NAgent))
	shape, flat := replay.StackAllStates(all)
	if err := npyio.WriteFile(path, shape, flat); err != nil {
		log.WithError(err).Fatal("write array")
	}
	log.WithFields(log.Fields{"file": path, "shape": shape}).Info("wrote array")

	for i, id := range marketIDs(markets) {
		summaries := make([]analysis.PriceSummary, len(all[i]))
		for s, traj := range all[i] {
			summaries[s] = analysis.SummarizePrices(id, traj)
		}
		log.WithFields(log.Fields{
			"market":           id,
			"share_above_ne":   analysis.ShareMeanAbove(summaries, nash),
			"share_above_coll": analysis.ShareMeanAbove(summaries, *collusive),
		}).Info("initial-state sensitivity")
	}
}

func marketIDs(markets []replay.Market) []string {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = m.ID
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
