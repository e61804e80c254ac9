package main

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"bertrand-replay/internal/analysis"
	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/config"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
	"bertrand-replay/internal/replay"
)

// Demo:
// - Two grim-trigger agents sitting at the monopoly price
// - Agent 0 undercuts once, the market falls to the floor and stays there
// - Print both paths and whether the deviation paid off
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	periods := flag.Int("n", 8, "Number of periods to replay")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/demo.csv)")
	flag.Parse()

	// Defaults (can be overridden via --config).
	params := model.MarketParameters{
		NAgent:           2,
		MinPrice:         1,
		MaxPrice:         5,
		Step:             1,
		KMemory:          1,
		DiscountRate:     0.95,
		ReservationPrice: 4,
		MConsumer:        60,
	}
	spec := model.DeviationSpec{TotalPeriods: *periods, PeriodsBeforeDeviation: 1, DeviationSteps: 1}

	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		params = cfg.Market.ToModelParams()
		spec = cfg.Deviation.ToDeviationSpec()
	}

	cdc, err := codec.New(params)
	if err != nil {
		log.WithError(err).Fatal("build codec")
	}
	bench := analysis.ComputeBenchmarks(params)

	policies := make([]policy.Policy, params.NAgent)
	for i := range policies {
		policies[i] = grimTrigger(cdc, bench.MonopolyPrice)
	}

	start := cdc.FromVector(repeat(bench.MonopolyPrice, params.NAgent))
	engine := replay.New(cdc)
	noDev, err := engine.PlayWithoutDeviation(spec, policies, start)
	if err != nil {
		log.WithError(err).Fatal("play without deviation")
	}
	dev, err := engine.PlayWithDeviation(spec, policies, start)
	if err != nil {
		log.WithError(err).Fatal("play with deviation")
	}

	fmt.Printf("Grid %v, %d agents, monopoly price %d, deviation in period %d\n\n",
		cdc.Prices(), params.NAgent, bench.MonopolyPrice, spec.DeviationPeriod())

	ledger := append(
		replay.BuildLedger("demo", model.PathNoDeviation, noDev, spec.DeviatingAgent, params),
		replay.BuildLedger("demo", model.PathDeviation, dev, spec.DeviatingAgent, params)...,
	)
	for _, r := range ledger {
		fmt.Printf("%-12s t=%-3d prices=%-10v winner=%d(x%d)  reward=%7.2f  cum=%8.2f\n",
			r.Path, r.Period, r.Prices, r.WinningPrice, r.NWinners, r.Rewards[spec.DeviatingAgent], r.CumValue)
	}

	ic, err := analysis.CheckICForAgent(dev, noDev, spec.DeviatingAgent, params)
	if err != nil {
		log.WithError(err).Fatal("check ic")
	}

	if *outCSV != "" {
		if err := replay.WriteLedgerCSV(*outCSV, ledger); err != nil {
			log.WithError(err).Fatal("write ledger")
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Printf("\nDone. IC=%t  V_NO_DEV=%.2f  V_DEV=%.2f  (V^C=%.2f, V^D=%.2f)\n",
		ic.IsIC, ic.ValueNoDev, ic.ValueDev, bench.CollusiveValue, bench.CompetitiveValue)
}

// grimTrigger asks for the collusive price while nobody in the remembered
// window went below it, and the floor forever after.
func grimTrigger(c *codec.Codec, collusive model.PricePoint) policy.Policy {
	high, err := c.IndexOf(collusive)
	if err != nil {
		log.WithError(err).Fatal("collusive price not on grid")
	}
	return policy.Func(func(s model.IntState) int {
		state, err := c.Decode(s)
		if err != nil {
			return 0
		}
		for _, p := range state {
			if p < collusive {
				return 0
			}
		}
		return high
	})
}

func repeat(p model.PricePoint, n int) model.PriceVector {
	out := make(model.PriceVector, n)
	for i := range out {
		out[i] = p
	}
	return out
}
