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

package simulate

import (
	"math"

	"github.com/rotrain/rotrain/optimize"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
	"github.com/rotrain/rotrain/science/phreeqc"
)

// Run evaluates a Configuration stage by stage with the C7
// solution-diffusion model, returning operating conditions, rejection,
// energy, and scaling state for the whole train. It fails fast (no
// partial result) the first time any stage's computed operating point
// violates the membrane's pressure rating or goes physically
// implausible (negative net driving pressure).
func Run(req Request) (*PerformanceResult, error) {
	if req.Engine == nil {
		return nil, rerr.New(rerr.Chemistry, "no PHREEQC engine is configured for the per-stage chemistry pass")
	}

	reg := req.IonRegistry
	if reg == nil {
		var err error
		reg, err = reference.LoadDefaultRegistry()
		if err != nil {
			return nil, err
		}
	}

	feed := req.Composition
	ph := req.feedPH()
	records := make([]StageOperatingRecord, 0, len(req.Configuration.Stages))

	for _, stage := range req.Configuration.Stages {
		rec, concentrate, nextPH, err := simulateStage(req, reg, stage, feed, ph)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		feed = concentrate
		ph = nextPH
	}

	system, err := rollUpSystem(req, records)
	if err != nil {
		return nil, err
	}

	return &PerformanceResult{
		Configuration: req.Configuration,
		Stages:        records,
		System:        system,
	}, nil
}

// simulateStage runs the 8-step algorithm of §4.6 for a single stage.
func simulateStage(req Request, reg *reference.Registry, stage optimize.StageDesign, feed *reference.IonComposition, feedPH float64) (StageOperatingRecord, *reference.IonComposition, float64, error) {
	tempK := req.FeedTemperatureC + kelvinZeroC

	// Step 1-2: inlet state and osmotic pressure.
	piFeed := osmoticPressurePa(feed, reg, tempK)

	// Step 3: temperature-corrected permeability.
	awT := arrheniusCorrect(req.Membrane.AwM_s_Pa, eaWaterPermeabilityJMol, tempK)

	// Step 4: feed pressure estimate from the stage's achieved flux.
	jms := stage.AchievedFluxLMH / 1000 / 3600
	deltaPDriving := jms / awT
	deltaPSpacer := req.Membrane.SpacerDPCoeff * nominalCrossflowVelocityMS * nominalCrossflowVelocityMS * float64(req.Membrane.ElementsPerVessel)
	feedPressurePa := piFeed + deltaPDriving + deltaPSpacer

	if feedPressurePa > req.Membrane.MaxFeedPressurePa {
		return StageOperatingRecord{}, nil, 0, rerr.New(rerr.PressureLimitExceeded,
			"stage requires %.0f Pa feed pressure, exceeding the membrane's %.0f Pa rating", feedPressurePa, req.Membrane.MaxFeedPressurePa)
	}

	// Step 5: concentration polarization.
	beta := 1.0
	if req.Membrane.MassTransferK0 > 0 {
		beta = math.Exp(jms / req.Membrane.MassTransferK0)
	}
	wall := feed.Scale(beta)
	piWall := osmoticPressurePa(wall, reg, tempK)
	netDrivingPressurePa := feedPressurePa - piWall

	if netDrivingPressurePa <= 0 {
		return StageOperatingRecord{}, nil, 0, rerr.New(rerr.FluxOutOfRange,
			"net driving pressure is non-positive (%.0f Pa) at this flux and wall concentration", netDrivingPressurePa)
	}

	// Step 6: per-ion rejection, at the wall concentration.
	permeate := reference.NewIonComposition()
	rejByIon := make(map[string]float64, feed.Len())
	for _, label := range feed.Labels() {
		ion, ok := reg.Lookup(label)
		if !ok {
			continue
		}
		cWall, _ := wall.Get(label)
		bT := arrheniusCorrect(req.Membrane.BFor(ion), eaSaltPermeabilityJMol, tempK)
		r := rejectionForIon(ion, awT, bT, netDrivingPressurePa, req.Membrane.DivalentChargeAmplification)
		rejByIon[label] = r
		permeate.Set(label, cWall*(1-r))
	}

	// Step 7: mass balance back out the concentrate composition.
	concentrate := reference.NewIonComposition()
	qf, qp, qc := stage.FeedFlowM3h, stage.PermeateFlowM3h, stage.ConcentrateFlowM3h
	for _, label := range feed.Labels() {
		cFeed, _ := feed.Get(label)
		cPerm, _ := permeate.Get(label)
		cConc := (qf*cFeed - qp*cPerm) / qc
		concentrate.Set(label, cConc)
	}

	// Step 8: PHREEQC pass on the already-concentrated composition (CF=1:
	// our own mass balance already did the concentrating; PHREEQC here
	// only equilibrates pH and saturation state at that composition).
	result, err := req.Engine.Concentrate(req.ctx(), phreeqc.Input{
		Composition: concentrate,
		PH:          feedPH,
		TempC:       req.FeedTemperatureC,
		CF:          1.0,
	})
	if err != nil {
		return StageOperatingRecord{}, nil, 0, err
	}

	pumpWorkW := (qf / 3600) * feedPressurePa / req.pumpEfficiency()

	rec := StageOperatingRecord{
		FeedTDSMgL:             feed.TDS(),
		PermeateTDSMgL:         permeate.TDS(),
		ConcentrateTDSMgL:      concentrate.TDS(),
		FeedComposition:        feed,
		PermeateComposition:    permeate,
		ConcentrateComposition: concentrate,
		FeedPressurePa:         feedPressurePa,
		PumpWorkW:              pumpWorkW,
		OsmoticPressurePa:      piFeed,
		NetDrivingPressurePa:   netDrivingPressurePa,
		ObservedFluxLMH:        stage.AchievedFluxLMH,
		RejectionByIon:         rejByIon,
		PH:                     result.PH,
		SaturationIndex:        result.SI,
	}
	return rec, concentrate, result.PH, nil
}

// rollUpSystem computes the external-feed-basis totals of §4.6's
// recycle-aware reporting requirement: disposal TDS comes from the final
// stage's concentrate (a recycle split does not change its
// concentration) and disposal flow is that concentrate flow, or the
// Recycle record's disposal portion of it when recycle is configured -
// never a recycle-blended value, mirroring the SystemFeedFlowM3h guard
// already established in the optimize package.
func rollUpSystem(req Request, records []StageOperatingRecord) (SystemTotals, error) {
	if len(records) == 0 {
		return SystemTotals{}, rerr.New(rerr.FluxOutOfRange, "configuration has no stages to simulate")
	}
	cfg := req.Configuration
	last := records[len(records)-1]

	var totalPumpWorkW, weightedPermTDS float64
	rejSum := make(map[string]float64)
	totalQp := cfg.TotalPermeateFlowM3h()

	for i, st := range cfg.Stages {
		rec := records[i]
		totalPumpWorkW += rec.PumpWorkW
		weightedPermTDS += st.PermeateFlowM3h * rec.PermeateTDSMgL
		for label, r := range rec.RejectionByIon {
			rejSum[label] += r * st.PermeateFlowM3h
		}
	}

	disposalFlow := cfg.FinalConcentrateFlowM3h()
	if cfg.Recycle != nil {
		disposalFlow = cfg.Recycle.DisposalFlowM3h
	}

	netPumpWorkW := totalPumpWorkW
	if req.EnergyRecovery != nil {
		erdRecoveredW := req.EnergyRecovery.Efficiency * (disposalFlow / 3600) * last.FeedPressurePa
		netPumpWorkW -= erdRecoveredW
	}

	secJPerM3 := 0.0
	if totalQp > 0 {
		secJPerM3 = netPumpWorkW / (totalQp / 3600)
	}

	rejByIon := make(map[string]float64, len(rejSum))
	for label, sum := range rejSum {
		if totalQp > 0 {
			rejByIon[label] = sum / totalQp
		}
	}

	permTDS := 0.0
	if totalQp > 0 {
		permTDS = weightedPermTDS / totalQp
	}

	return SystemTotals{
		Recovery:            cfg.SystemRecovery,
		SpecificEnergyKWhM3: secJPerM3 / 3.6e6,
		PermeateTDSMgL:      permTDS,
		RejectionByIon:      rejByIon,
		DisposalFlowM3h:     disposalFlow,
		DisposalTDSMgL:      last.ConcentrateTDSMgL,
	}, nil
}
