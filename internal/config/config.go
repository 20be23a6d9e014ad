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

// Package config resolves a rotrain run's configuration from a TOML
// file and environment variables (prefixed ROTRAIN_) over compiled-in
// defaults, mirroring inmaputil/config.go's Cfg wrapper around
// *viper.Viper (precedence env > file > default), with cast-based
// coercion for values whose concrete type depends on their source.
// Command-line flags are not bound into it.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/rotrain/rotrain/economics"
)

// Cfg wraps a *viper.Viper the way inmaputil.Cfg does, adding the
// input/output file bookkeeping rotrain's CLI needs for its own
// config surface (a membrane model name, the PHREEQC subprocess
// settings) instead of InMAP's emissions/shapefile inputs.
type Cfg struct {
	*viper.Viper
}

// New builds a Cfg with rotrain's environment-variable prefix set and
// its defaults populated, ready for a config file and command-line
// flags to override on top.
func New() *Cfg {
	v := viper.New()
	v.SetEnvPrefix("ROTRAIN")
	v.AutomaticEnv()
	cfg := &Cfg{Viper: v}
	cfg.setDefaults()
	return cfg
}

func (cfg *Cfg) setDefaults() {
	cfg.SetDefault("membrane_model", "BW30_PRO_400")
	cfg.SetDefault("phreeqc.binary_path", "phreeqc")
	cfg.SetDefault("phreeqc.database_path", "")
	cfg.SetDefault("phreeqc.work_dir", "")
	cfg.SetDefault("phreeqc.cache_size", 256)
	cfg.SetDefault("phreeqc.max_retries", 3)
	cfg.SetDefault("phreeqc.evals_per_second", 8.0)
	cfg.SetDefault("phreeqc.burst", 4)
	cfg.SetDefault("economics.wacc", 0.06)
	cfg.SetDefault("economics.plant_lifetime_years", 20.0)
	cfg.SetDefault("economics.utilization_fraction", 0.92)
	cfg.SetDefault("economics.electricity_price_usd_per_kwh", 0.10)
	cfg.SetDefault("economics.antiscalant_scenario", "standard")
}

// Load reads the TOML file at path into cfg, matching setConfig's
// "read in the configuration file, if there is one" behavior - an
// empty path is not an error, since every setting already has a
// compiled-in default.
func (cfg *Cfg) Load(path string) error {
	if path == "" {
		return nil
	}
	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("rotrain: reading configuration file %s: %w", path, err)
	}
	return nil
}

// MembraneModel returns the configured membrane catalog entry name.
func (cfg *Cfg) MembraneModel() string { return os.ExpandEnv(cfg.GetString("membrane_model")) }

// AntiscalantScenario returns the configured antiscalant dosing
// scenario name ("none", "standard", "high-performance").
func (cfg *Cfg) AntiscalantScenario() string {
	return strings.ToLower(os.ExpandEnv(cfg.GetString("economics.antiscalant_scenario")))
}

// PhreeqcBinaryPath, PhreeqcDatabasePath, and PhreeqcWorkDir return the
// configured PHREEQC subprocess settings, environment-variable expanded
// the way checkOutputFile expands InMAP's output path.
func (cfg *Cfg) PhreeqcBinaryPath() string   { return os.ExpandEnv(cfg.GetString("phreeqc.binary_path")) }
func (cfg *Cfg) PhreeqcDatabasePath() string { return os.ExpandEnv(cfg.GetString("phreeqc.database_path")) }
func (cfg *Cfg) PhreeqcWorkDir() string      { return os.ExpandEnv(cfg.GetString("phreeqc.work_dir")) }
func (cfg *Cfg) PhreeqcCacheSize() int       { return cfg.GetInt("phreeqc.cache_size") }
func (cfg *Cfg) PhreeqcMaxRetries() uint64   { return cast.ToUint64(cfg.Get("phreeqc.max_retries")) }
func (cfg *Cfg) PhreeqcEvalsPerSecond() float64 {
	return cfg.GetFloat64("phreeqc.evals_per_second")
}
func (cfg *Cfg) PhreeqcBurst() int { return cfg.GetInt("phreeqc.burst") }

// EconomicParameters builds an economics.Parameters from the
// economics.* keys, falling back to economics.DefaultParameters for
// any map-valued field left unset in the config file - those fields
// (per-grade membrane cost, fixed O&M line items) are rarely
// overridden wholesale from a flat config file, only tuned one key at
// a time.
func (cfg *Cfg) EconomicParameters() economics.Parameters {
	p := economics.DefaultParameters()
	p.WACC = cfg.GetFloat64("economics.wacc")
	p.PlantLifetimeYears = cfg.GetFloat64("economics.plant_lifetime_years")
	p.UtilizationFraction = cfg.GetFloat64("economics.utilization_fraction")
	p.ElectricityPriceUSDPerKWh = cfg.GetFloat64("economics.electricity_price_usd_per_kwh")
	if m := cfg.GetStringMap("economics.membrane_unit_cost_usd_per_m2"); len(m) > 0 {
		p.MembraneUnitCostUSDPerM2 = toFloat64Map(m)
	}
	if m := cfg.GetStringMap("economics.fixed_om_percentages"); len(m) > 0 {
		p.FixedOMPercentages = toFloat64Map(m)
	}
	return p
}

// toFloat64Map coerces a viper string-keyed, interface{}-valued map
// (as decoded from TOML, where every scalar arrives as interface{})
// into a map[string]float64 via cast.ToFloat64, the same coercion
// GetStringMapString reaches for when a config value's concrete type
// depends on whether it came from a file, a flag, or an environment
// variable.
func toFloat64Map(m map[string]interface{}) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = cast.ToFloat64(v)
	}
	return out
}
