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

// Package rotrain is the root package (§6): it wires the water-chemistry
// validator, the PHREEQC scaling evaluator, the configuration optimizer,
// the performance simulator, and the economic model behind three
// operations - OptimizeConfiguration, SimulateSystem, and GetDefaults -
// and owns the one decision none of those packages make for themselves:
// which concrete phreeqc.Engine a request runs against.
package rotrain

import (
	"context"
	"fmt"
	"math"

	"github.com/rotrain/rotrain/chemistry"
	"github.com/rotrain/rotrain/economics"
	"github.com/rotrain/rotrain/optimize"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
	"github.com/rotrain/rotrain/science/phreeqc"
	"github.com/rotrain/rotrain/science/scaling"
	"github.com/rotrain/rotrain/simulate"
)

// The error kinds §7 names at the root package, re-exported from rerr
// so a caller never has to import the leaf package directly.
var (
	ErrInvalidComposition     = rerr.InvalidComposition
	ErrUnknownMembrane        = rerr.UnknownMembrane
	ErrNoFeasibleConfiguration = rerr.NoFeasibleConfiguration
	ErrChemistry              = rerr.Chemistry
	ErrPressureLimitExceeded  = rerr.PressureLimitExceeded
	ErrFluxOutOfRange         = rerr.FluxOutOfRange
	ErrConvergenceFailure     = rerr.ConvergenceFailure
	ErrCancelled              = rerr.Cancelled
)

// IsErrorKind reports whether err is a rotrain failure of the given
// kind, the caller-facing counterpart of rerr.Is.
func IsErrorKind(err error, kind rerr.Kind) bool {
	return rerr.Is(err, kind)
}

// EngineOptions configures the concrete PHREEQC engine the root package
// builds for every request that needs feed-chemistry evaluation.
// Leaving it at its zero value is legitimate for compositions with no
// chemistry (system sizing on flow/recovery alone); any operation that
// needs chemistry fails with ErrChemistry if BinaryPath still can't
// resolve a working phreeqc binary.
type EngineOptions struct {
	// BinaryPath, DatabasePath, WorkDir mirror phreeqc.SubprocessEngine.
	BinaryPath   string
	DatabasePath string
	WorkDir      string

	// CacheSize bounds the memoizing wrapper (science/phreeqc.CachedEngine);
	// defaults to 256 distinct evaluations.
	CacheSize int
	// MaxRetries bounds RetryingEngine's transient-I/O retry budget;
	// defaults to 3.
	MaxRetries uint64
	// EvalsPerSecond and Burst bound RateLimitedEngine; default to 8
	// evaluations/second with a burst of 4.
	EvalsPerSecond float64
	Burst          int
}

func (o EngineOptions) cacheSize() int {
	if o.CacheSize > 0 {
		return o.CacheSize
	}
	return 256
}

func (o EngineOptions) maxRetries() uint64 {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o EngineOptions) evalsPerSecond() float64 {
	if o.EvalsPerSecond > 0 {
		return o.EvalsPerSecond
	}
	return 8
}

func (o EngineOptions) burst() int {
	if o.Burst > 0 {
		return o.Burst
	}
	return 4
}

// newEngine builds the layered, production PHREEQC engine: a fresh
// SubprocessEngine per call (§5: PHREEQC sessions are never shared),
// wrapped rate-limit-outermost, then retry, then cache innermost. A
// cached hit never burns a retry-budget slot, but every call, cached
// or not, waits for a rate-limiter token; retries of one call share
// that single token.
func newEngine(opts EngineOptions) phreeqc.Engine {
	sub := &phreeqc.SubprocessEngine{
		BinaryPath:   opts.BinaryPath,
		DatabasePath: opts.DatabasePath,
		WorkDir:      opts.WorkDir,
	}
	cached := phreeqc.NewCachedEngine(sub, opts.cacheSize())
	retrying := phreeqc.NewRetryingEngine(cached, opts.maxRetries())
	return phreeqc.NewRateLimitedEngine(retrying, opts.evalsPerSecond(), opts.burst())
}

// FeedWater is the caller-facing feed-chemistry input: raw ion
// concentrations in human-scale mg/L, a lab-reported TDS for the
// charge-balance reconciliation C2 performs, and the feed's
// temperature and pH. Flow is expressed in m^3/h at this boundary
// (reference.CubicMeterPerHour / reference.M3hFromSI convert at the
// internal-SI seam), matching the human-scale units a site's water
// quality report or SCADA historian would hand over.
type FeedWater struct {
	IonsMgL        map[string]float64
	ReportedTDSMgL float64
	TemperatureC   float64
	PH             float64
}

// OptimizeRequest is OptimizeConfiguration's input contract.
type OptimizeRequest struct {
	FeedFlowM3h    float64
	RecoveryTarget float64
	MembraneModel  string

	Feed FeedWater

	FluxTargetsLMH             []float64
	FluxTolerance              float64
	MinConcentratePerVesselM3h float64
	AllowRecycle               bool
	MaxRecycleRatio            float64
	AntiscalantScenario        string

	// MaxFeedPressureOverrideBar, if set, tightens the membrane
	// catalog's rated MaxFeedPressurePa down to a site-specific limit
	// (e.g. a pump skid's relief-valve setting) - it can only lower the
	// ceiling, never raise it above the catalog rating.
	MaxFeedPressureOverrideBar float64

	Engine EngineOptions

	// PhreeqcEngine, if set, is used directly instead of building a
	// fresh layered engine from Engine - lets a caller share one
	// long-lived engine (with its own cache) across many requests, and
	// lets tests substitute a phreeqc.FakeEngine for the subprocess
	// engine newEngine would otherwise construct.
	PhreeqcEngine phreeqc.Engine
}

// OptimizeResult is OptimizeConfiguration's output: every viable
// configuration the search produced, ranked per §4.5, plus the
// registry/catalog/composition the caller may want to hand straight
// into SimulateSystem without re-resolving them.
type OptimizeResult struct {
	Configurations []optimize.Configuration
	Membrane       reference.Membrane
	Composition    *reference.IonComposition
}

// OptimizeConfiguration implements §6's first operation: validates the
// feed chemistry (C2) if supplied, resolves the membrane model against
// the bundled catalog, and runs the configuration search (C6),
// wiring a fresh production PHREEQC engine behind the sustainable-
// recovery gate whenever feed chemistry is present.
func OptimizeConfiguration(ctx context.Context, req OptimizeRequest) (OptimizeResult, error) {
	if err := validateFlowM3h(req.FeedFlowM3h); err != nil {
		return OptimizeResult{}, rerr.Wrap(rerr.InvalidComposition, err, "optimize: invalid feed flow")
	}
	if err := validateTemperatureC(req.Feed.TemperatureC); err != nil {
		return OptimizeResult{}, rerr.Wrap(rerr.InvalidComposition, err, "optimize: invalid feed temperature")
	}
	if err := validateFluxTargetsLMH(req.FluxTargetsLMH); err != nil {
		return OptimizeResult{}, rerr.Wrap(rerr.InvalidComposition, err, "optimize: invalid flux targets")
	}
	if err := validatePressureBar(req.MaxFeedPressureOverrideBar); err != nil {
		return OptimizeResult{}, rerr.Wrap(rerr.InvalidComposition, err, "optimize: invalid max feed pressure override")
	}

	reg, err := reference.LoadDefaultRegistry()
	if err != nil {
		return OptimizeResult{}, err
	}
	catalog, err := reference.LoadDefaultCatalog()
	if err != nil {
		return OptimizeResult{}, err
	}
	membrane, ok := catalog.Lookup(req.MembraneModel)
	if !ok {
		return OptimizeResult{}, rerr.New(rerr.UnknownMembrane, "no membrane model %q in the catalog (have: %v)", req.MembraneModel, catalog.Names())
	}
	if req.MaxFeedPressureOverrideBar > 0 {
		if overridePa := reference.Bar(req.MaxFeedPressureOverrideBar).Value(); overridePa < membrane.MaxFeedPressurePa {
			membrane.MaxFeedPressurePa = overridePa
		}
	}

	oreq := optimize.Request{
		FeedFlowM3h:                req.FeedFlowM3h,
		RecoveryTarget:             req.RecoveryTarget,
		Membrane:                   membrane,
		FluxTargetsLMH:             req.FluxTargetsLMH,
		FluxTolerance:              req.FluxTolerance,
		MinConcentratePerVesselM3h: req.MinConcentratePerVesselM3h,
		AllowRecycle:               req.AllowRecycle,
		MaxRecycleRatio:            req.MaxRecycleRatio,
		FeedTemperatureC:           req.Feed.TemperatureC,
		FeedPH:                     req.Feed.PH,
		Context:                    ctx,
	}

	var comp *reference.IonComposition
	if len(req.Feed.IonsMgL) > 0 {
		validated, err := chemistry.Validate(reg, req.Feed.IonsMgL, req.Feed.ReportedTDSMgL)
		if err != nil {
			return OptimizeResult{}, err
		}
		comp = validated.Composition
		oreq.Composition = comp
		oreq.AntiscalantThresholds = scalingThresholds(req.AntiscalantScenario)
		oreq.Engine = req.PhreeqcEngine
		if oreq.Engine == nil {
			oreq.Engine = newEngine(req.Engine)
		}
	}

	configs, err := optimize.Optimize(oreq)
	if err != nil {
		return OptimizeResult{}, err
	}
	return OptimizeResult{Configurations: configs, Membrane: membrane, Composition: comp}, nil
}

// SimulateRequest is SimulateSystem's input contract: a Configuration
// previously produced by OptimizeConfiguration (or hand-built by the
// caller), the feed chemistry it should run against, and the
// economic parameters to roll an LCOW up from, once performance is
// known.
type SimulateRequest struct {
	Configuration optimize.Configuration
	MembraneModel string
	Feed          FeedWater

	PumpEfficiency    float64
	HasEnergyRecovery bool
	ERDEfficiency     float64

	EconomicParameters *economics.Parameters
	ChemicalDosing     *economics.ChemicalDosing

	Engine EngineOptions

	// PhreeqcEngine, if set, is used directly instead of building a
	// fresh layered engine from Engine; see OptimizeRequest.PhreeqcEngine.
	PhreeqcEngine phreeqc.Engine
}

// SimulateResult is SimulateSystem's output: per-stage operating
// conditions and system totals (C7), plus the economic rollup (C8)
// when economic parameters were supplied.
type SimulateResult struct {
	Performance *simulate.PerformanceResult
	Economics   *economics.Result
}

// SimulateSystem implements §6's second operation: validates feed
// chemistry (C2), resolves the membrane model, runs the per-stage
// solution-diffusion simulator (C7), and - when economic parameters
// are supplied - rolls the simulated performance up into a capital/
// operating/LCOW breakdown (C8).
func SimulateSystem(ctx context.Context, req SimulateRequest) (SimulateResult, error) {
	if err := validateTemperatureC(req.Feed.TemperatureC); err != nil {
		return SimulateResult{}, rerr.Wrap(rerr.InvalidComposition, err, "simulate: invalid feed temperature")
	}

	reg, err := reference.LoadDefaultRegistry()
	if err != nil {
		return SimulateResult{}, err
	}
	catalog, err := reference.LoadDefaultCatalog()
	if err != nil {
		return SimulateResult{}, err
	}
	membrane, ok := catalog.Lookup(req.MembraneModel)
	if !ok {
		return SimulateResult{}, rerr.New(rerr.UnknownMembrane, "no membrane model %q in the catalog (have: %v)", req.MembraneModel, catalog.Names())
	}

	validated, err := chemistry.Validate(reg, req.Feed.IonsMgL, req.Feed.ReportedTDSMgL)
	if err != nil {
		return SimulateResult{}, err
	}

	engine := req.PhreeqcEngine
	if engine == nil {
		engine = newEngine(req.Engine)
	}
	sreq := simulate.Request{
		Configuration:    req.Configuration,
		Composition:      validated.Composition,
		FeedTemperatureC: req.Feed.TemperatureC,
		FeedPH:           req.Feed.PH,
		Membrane:         membrane,
		IonRegistry:      reg,
		Engine:           engine,
		PumpEfficiency:   req.PumpEfficiency,
		Context:          ctx,
	}
	if req.HasEnergyRecovery {
		sreq.EnergyRecovery = &simulate.EnergyRecoveryDevice{Efficiency: req.ERDEfficiency}
	}

	perf, err := simulate.Run(sreq)
	if err != nil {
		return SimulateResult{}, err
	}

	result := SimulateResult{Performance: perf}
	if req.EconomicParameters != nil {
		dosing := economics.DefaultChemicalDosing("standard")
		if req.ChemicalDosing != nil {
			dosing = *req.ChemicalDosing
		}
		econ, err := economics.Evaluate(req.Configuration, perf, membrane, *req.EconomicParameters, dosing, req.HasEnergyRecovery)
		if err != nil {
			return SimulateResult{}, err
		}
		result.Economics = econ
	}
	return result, nil
}

// Defaults is GetDefaults' output: the representative operating and
// economic parameters B.3 documents for a membrane model, so a caller
// can pre-fill a request form instead of guessing starting values.
type Defaults struct {
	Membrane                   reference.Membrane
	MaxFeedPressureBar         float64 // membrane.MaxFeedPressurePa, converted for a human-scale report
	FluxTargetsLMH             []float64
	FluxTolerance              float64
	MinConcentratePerVesselM3h float64
	MaxRecycleRatio            float64
	EconomicParameters         economics.Parameters
	ChemicalDosing             economics.ChemicalDosing
	AntiscalantScenarios       []string
}

// GetDefaults implements §6's third operation: returns the bundled
// membrane spec plus every representative default value the rest of
// the API falls back to when a caller omits a field, so those defaults
// are documented data, not buried zero-value magic.
func GetDefaults(membraneModel string) (Defaults, error) {
	catalog, err := reference.LoadDefaultCatalog()
	if err != nil {
		return Defaults{}, err
	}
	membrane, ok := catalog.Lookup(membraneModel)
	if !ok {
		return Defaults{}, rerr.New(rerr.UnknownMembrane, "no membrane model %q in the catalog (have: %v)", membraneModel, catalog.Names())
	}
	return Defaults{
		Membrane:                   membrane,
		MaxFeedPressureBar:         reference.BarFromPa(membrane.MaxFeedPressurePa),
		FluxTargetsLMH:             []float64{18, 15, 12},
		FluxTolerance:              0.10,
		MinConcentratePerVesselM3h: 3.6,
		MaxRecycleRatio:            0.9,
		EconomicParameters:         economics.DefaultParameters(),
		ChemicalDosing:             economics.DefaultChemicalDosing("standard"),
		AntiscalantScenarios:       []string{"none", "standard", "high-performance"},
	}, nil
}

// scalingThresholds resolves a caller-supplied antiscalant scenario
// name to C4's saturation-index threshold map, falling back to
// NoAntiscalant for an empty or unrecognized name rather than failing
// the request - an unrecognized scenario is treated as "no program
// declared", the conservative choice for a sustainable-recovery gate.
func scalingThresholds(scenario string) map[string]float64 {
	switch scenario {
	case "standard":
		return scaling.StandardAntiscalant.Thresholds()
	case "high-performance":
		return scaling.HighPerformanceAntiscalant.Thresholds()
	default:
		return scaling.NoAntiscalant.Thresholds()
	}
}

// validateFlowM3h checks a caller-supplied flow in m^3/h is dimensionally
// sane by round-tripping it through reference.CubicMeterPerHour's
// unit-checked constructor (then back via reference.M3hFromSI for the
// error message) before accepting it into a request; it exists to
// reject negative or non-finite flows at the API boundary rather than
// letting them reach the optimizer as silent garbage.
func validateFlowM3h(v float64) error {
	u := reference.CubicMeterPerHour(v)
	m3h := reference.M3hFromSI(u.Value())
	if m3h < 0 || math.IsNaN(m3h) || math.IsInf(m3h, 0) {
		return fmt.Errorf("rotrain: flow %.3f m3/h is negative or not finite", m3h)
	}
	return nil
}

// validateTemperatureC checks a caller-supplied Celsius feed
// temperature is physically possible by round-tripping it through
// reference.CelsiusToKelvin's unit-checked constructor - an absolute
// temperature below 0 K signals a bad input (a typo'd Fahrenheit value,
// a unit mismatch) long before it reaches the PHREEQC deck as a
// nonsensical thermodynamic state.
func validateTemperatureC(c float64) error {
	if c == 0 {
		return nil // zero value is accepted unchecked; no default is substituted downstream, so it is evaluated as 0 C
	}
	k := reference.CelsiusToKelvin(c)
	if k.Value() <= 0 {
		return fmt.Errorf("rotrain: temperature %.2f C is below absolute zero", c)
	}
	return nil
}

// validatePressureBar checks a caller-supplied pressure override is
// dimensionally sane by round-tripping it through reference.Bar's
// unit-checked constructor; zero is the "no override" sentinel and is
// always accepted.
func validatePressureBar(v float64) error {
	if v == 0 {
		return nil
	}
	if reference.Bar(v).Value() <= 0 {
		return fmt.Errorf("rotrain: max feed pressure override %.2f bar is not positive", v)
	}
	return nil
}

// validateFluxTargetsLMH checks every caller-supplied flux target is a
// dimensionally sane, positive velocity by round-tripping each through
// reference.LMH's unit-checked constructor.
func validateFluxTargetsLMH(targets []float64) error {
	for _, v := range targets {
		u := reference.LMH(v)
		if u.Value() <= 0 {
			return fmt.Errorf("rotrain: flux target %.2f LMH is not positive", v)
		}
	}
	return nil
}
