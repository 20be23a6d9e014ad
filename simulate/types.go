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

// Package simulate implements the hybrid performance simulator (C7):
// a per-stage solution-diffusion model with temperature correction,
// concentration polarization, and ion-specific rejection, evaluated in
// sequence over a Configuration produced by the optimize package - no
// coupled flowsheet solver, exactly as §4.6 specifies.
package simulate

import (
	"context"

	"github.com/rotrain/rotrain/optimize"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/science/phreeqc"
)

// StageOperatingRecord is one stage's entry in a PerformanceResult.
type StageOperatingRecord struct {
	FeedTDSMgL       float64
	PermeateTDSMgL   float64
	ConcentrateTDSMgL float64

	FeedComposition       *reference.IonComposition
	PermeateComposition   *reference.IonComposition
	ConcentrateComposition *reference.IonComposition

	FeedPressurePa      float64
	PumpWorkW           float64
	OsmoticPressurePa   float64
	NetDrivingPressurePa float64
	ObservedFluxLMH     float64

	RejectionByIon map[string]float64

	PH float64
	SaturationIndex map[string]float64
}

// SystemTotals is the recovery/energy/quality rollup across every
// stage, computed on the external-feed basis (§4.6's "recycle-aware
// reporting").
type SystemTotals struct {
	Recovery           float64
	SpecificEnergyKWhM3 float64
	PermeateTDSMgL     float64
	RejectionByIon     map[string]float64
	DisposalFlowM3h    float64
	DisposalTDSMgL     float64
}

// PerformanceResult bundles a Configuration with its per-stage
// operating records and system totals, per §3.
type PerformanceResult struct {
	Configuration optimize.Configuration
	Stages        []StageOperatingRecord
	System        SystemTotals
}

// Request is C7's input contract.
type Request struct {
	Configuration    optimize.Configuration
	Composition      *reference.IonComposition
	FeedTemperatureC float64
	FeedPH           float64
	Membrane         reference.Membrane

	// IonRegistry supplies molar mass, charge, and tag per ion label.
	// Defaults to reference.LoadDefaultRegistry.
	IonRegistry *reference.Registry

	// Engine runs the per-stage PHREEQC equilibration pass (C7 step 8).
	// Required - callers construct it once (typically a
	// phreeqc.SubprocessEngine wrapped with caching, retry, and rate
	// limiting) and pass it down from the root package. Run returns a
	// rerr.Chemistry failure if it is nil; simulate never substitutes a
	// fake or algebraic stand-in of its own (§9).
	Engine phreeqc.Engine

	// PumpEfficiency defaults to 0.80.
	PumpEfficiency float64
	// EnergyRecovery, if non-nil, configures an ERD on the final brine.
	EnergyRecovery *EnergyRecoveryDevice

	Context context.Context
}

// EnergyRecoveryDevice recovers a fraction of the final brine's
// hydraulic energy, subtracted from system pump work before computing
// specific energy (§4.6).
type EnergyRecoveryDevice struct {
	Efficiency float64 // eta_ERD
}

func (r Request) pumpEfficiency() float64 {
	if r.PumpEfficiency > 0 {
		return r.PumpEfficiency
	}
	return 0.80
}

func (r Request) feedPH() float64 {
	if r.FeedPH > 0 {
		return r.FeedPH
	}
	return 7.5
}

func (r Request) ctx() context.Context {
	if r.Context != nil {
		return r.Context
	}
	return context.Background()
}
