/*
Copyright © 2026 the rotrain authors.
This file is part of rotrain.

rotrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rotrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rotrain.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rotrain/rotrain"
	"github.com/rotrain/rotrain/internal/config"
)

// cfg is the process-wide configuration, the direct counterpart of
// inmaputil's package-level Cfg built by InitializeConfig - a single
// *viper.Viper-backed store every subcommand reads from after
// PersistentPreRunE loads the config file named by --config.
var cfg = config.New()

var configPath string

// Root is the main command, mirroring inmaputil.Cfg.Root:
// PersistentPreRunE loads the config file (if any) into cfg before the
// subcommand body runs. Subcommand flags are read from each command's
// own FlagSet and are not bound into cfg; cfg supplies the PHREEQC
// engine settings.
var Root = &cobra.Command{
	Use:   "rotrain",
	Short: "A reverse-osmosis train design and simulation engine.",
	Long: `rotrain sizes, recycles, and simulates multi-stage reverse-osmosis
trains against a feed water chemistry, using a PHREEQC scaling evaluator as
the sole source of truth for saturation state - no algebraic scaling
fallback. Configuration can be set with a TOML file (--config), environment
variables in the form ROTRAIN_var, or the flags below.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return cfg.Load(configPath)
	},
}

func init() {
	Root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	Root.AddCommand(optimizeCmd, simulateCmd, defaultsCmd)
	bindOptimizeFlags(optimizeCmd.Flags())
	bindSimulateFlags(simulateCmd.Flags())
	defaultsCmd.Flags().String("membrane", "BW30_PRO_400", "membrane catalog model name")
}

// parseIons parses a comma-separated label=mgL list (e.g.
// "na+=450,cl-=680,ca2+=95") into the map chemistry.Validate expects,
// the CLI-flag counterpart of InMAP's checkOutputVars environment-
// variable-expanding string parsing.
func parseIons(s string) (map[string]float64, error) {
	ions := make(map[string]float64)
	if s == "" {
		return ions, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("rotrain: malformed --ions entry %q, want label=mgL", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("rotrain: malformed --ions concentration in %q: %w", pair, err)
		}
		ions[strings.TrimSpace(kv[0])] = v
	}
	return ions, nil
}

func bindOptimizeFlags(f *pflag.FlagSet) {
	f.Float64("feed-flow-m3h", 100, "feed flow rate, m3/h")
	f.Float64("recovery-target", 0.75, "target system recovery, fraction")
	f.String("membrane", "BW30_PRO_400", "membrane catalog model name")
	f.Bool("allow-recycle", false, "allow concentrate recycle above the single-pass ceiling")
	f.String("ions", "", "feed ion concentrations as label=mgL,label=mgL,...")
	f.Float64("reported-tds", 0, "lab-reported TDS, mg/L (0 disables the reconciliation check)")
	f.Float64("feed-temp-c", 25, "feed temperature, degrees C")
	f.Float64("feed-ph", 7.5, "feed pH")
	f.String("antiscalant", "standard", "antiscalant scenario: none, standard, high-performance")
}

func bindSimulateFlags(f *pflag.FlagSet) {
	f.String("membrane", "BW30_PRO_400", "membrane catalog model name")
	f.String("ions", "", "feed ion concentrations as label=mgL,label=mgL,...")
	f.Float64("reported-tds", 0, "lab-reported TDS, mg/L")
	f.Float64("feed-temp-c", 25, "feed temperature, degrees C")
	f.Float64("feed-ph", 7.5, "feed pH")
	f.Bool("economics", true, "roll simulated performance up into a capital/operating/LCOW report")
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for viable train configurations meeting a recovery target.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		feedFlow, _ := f.GetFloat64("feed-flow-m3h")
		recoveryTarget, _ := f.GetFloat64("recovery-target")
		membrane, _ := f.GetString("membrane")
		allowRecycle, _ := f.GetBool("allow-recycle")
		ionsRaw, _ := f.GetString("ions")
		reportedTDS, _ := f.GetFloat64("reported-tds")
		feedTempC, _ := f.GetFloat64("feed-temp-c")
		feedPH, _ := f.GetFloat64("feed-ph")
		antiscalant, _ := f.GetString("antiscalant")

		ions, err := parseIons(ionsRaw)
		if err != nil {
			return err
		}

		result, err := rotrain.OptimizeConfiguration(context.Background(), rotrain.OptimizeRequest{
			FeedFlowM3h:    feedFlow,
			RecoveryTarget: recoveryTarget,
			MembraneModel:  membrane,
			AllowRecycle:   allowRecycle,
			Feed: rotrain.FeedWater{
				IonsMgL:        ions,
				ReportedTDSMgL: reportedTDS,
				TemperatureC:   feedTempC,
				PH:             feedPH,
			},
			AntiscalantScenario: antiscalant,
			Engine: rotrain.EngineOptions{
				BinaryPath:     cfg.PhreeqcBinaryPath(),
				DatabasePath:   cfg.PhreeqcDatabasePath(),
				WorkDir:        cfg.PhreeqcWorkDir(),
				CacheSize:      cfg.PhreeqcCacheSize(),
				MaxRetries:     cfg.PhreeqcMaxRetries(),
				EvalsPerSecond: cfg.PhreeqcEvalsPerSecond(),
				Burst:          cfg.PhreeqcBurst(),
			},
		})
		if err != nil {
			return err
		}

		for i, c := range result.Configurations {
			cmd.Printf("configuration %d: %d stage(s), system recovery %.3f, met target %v\n",
				i, len(c.Stages), c.SystemRecovery, c.MetRecoveryTarget)
			for _, w := range c.Warnings {
				cmd.Printf("  warning: %s\n", w)
			}
		}
		return nil
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a configuration's operating conditions and, optionally, its economics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("rotrain: simulate requires a configuration produced by 'optimize'; " +
			"pass one programmatically via rotrain.SimulateSystem - the CLI does not yet serialize " +
			"a Configuration to/from a flag")
	},
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the representative operating and economic defaults for a membrane model.",
	RunE: func(cmd *cobra.Command, args []string) error {
		membrane, _ := cmd.Flags().GetString("membrane")
		d, err := rotrain.GetDefaults(membrane)
		if err != nil {
			return err
		}
		cmd.Printf("membrane: %s (%s), max feed pressure %.1f bar\n", d.Membrane.Name, d.Membrane.Grade, d.MaxFeedPressureBar)
		cmd.Printf("flux targets (LMH): %v, tolerance %.0f%%\n", d.FluxTargetsLMH, d.FluxTolerance*100)
		cmd.Printf("min concentrate per vessel: %.2f m3/h, max recycle ratio: %.2f\n", d.MinConcentratePerVesselM3h, d.MaxRecycleRatio)
		cmd.Printf("economic parameters: WACC %.1f%%, plant lifetime %.0f yr, utilization %.0f%%\n",
			d.EconomicParameters.WACC*100, d.EconomicParameters.PlantLifetimeYears, d.EconomicParameters.UtilizationFraction*100)
		return nil
	},
}
