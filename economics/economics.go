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

package economics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rotrain/rotrain/optimize"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
	"github.com/rotrain/rotrain/simulate"
)

const hoursPerYear = 8760.0

// ones5 is the reduction vector Evaluate dots against each 5-item cost
// row to roll it up into a single total, the same shape whether the
// row is capital line items, opex line items, or LCOW contributions.
func ones5() *mat.VecDense { return mat.NewVecDense(5, []float64{1, 1, 1, 1, 1}) }

// CapitalRecoveryFactor computes CRF = i(1+i)^N / ((1+i)^N - 1), the
// annuity factor that converts a capital sum into its annualized
// equivalent, per §4.7.
func CapitalRecoveryFactor(wacc, lifetimeYears float64) float64 {
	if wacc <= 0 || lifetimeYears <= 0 {
		return 0
	}
	growth := math.Pow(1+wacc, lifetimeYears)
	return wacc * growth / (growth - 1)
}

// Evaluate rolls up C8's capital cost, operating cost, and LCOW for
// one configuration's simulated performance, per §4.7's three-part
// contract. hasEnergyRecovery must mirror whether perf was simulated
// with an EnergyRecoveryDevice attached - economics has no way to
// infer that from PerformanceResult alone, since simulate reports only
// the net specific energy, not which device produced it.
func Evaluate(cfg optimize.Configuration, perf *simulate.PerformanceResult, membrane reference.Membrane, params Parameters, dosing ChemicalDosing, hasEnergyRecovery bool) (*Result, error) {
	if len(cfg.Stages) != len(perf.Stages) {
		return nil, rerr.New(rerr.FluxOutOfRange, "economics: configuration has %d stages but performance result has %d", len(cfg.Stages), len(perf.Stages))
	}

	capital := capitalBreakdown(cfg, perf, membrane, params, hasEnergyRecovery)

	totalQpM3h := cfg.TotalPermeateFlowM3h()
	annualPermeateM3 := totalQpM3h * hoursPerYear * params.utilizationFraction()
	if annualPermeateM3 <= 0 {
		return nil, rerr.New(rerr.FluxOutOfRange, "economics: configuration produces no permeate, LCOW is undefined")
	}

	operating := operatingBreakdown(cfg, perf, dosing, params, capital.TotalCapitalUSD, capital.MembraneCostUSD)

	crf := CapitalRecoveryFactor(params.WACC, params.PlantLifetimeYears)
	lcow := lcowComponents(capital.TotalCapitalUSD, operating, crf, annualPermeateM3)

	return &Result{
		Capital:               capital,
		Operating:             operating,
		LCOW:                  lcow,
		CapitalRecoveryFactor: crf,
		AnnualPermeateM3:      annualPermeateM3,
	}, nil
}

func capitalBreakdown(cfg optimize.Configuration, perf *simulate.PerformanceResult, membrane reference.Membrane, params Parameters, hasEnergyRecovery bool) CapitalBreakdown {
	var pumpCost, membraneCost float64
	for i, stage := range cfg.Stages {
		rec := perf.Stages[i]
		if rec.FeedPressurePa < params.pressureClassPa() {
			feedLps := stage.FeedFlowM3h / 3.6
			pumpCost += feedLps * params.LowPressurePumpCostUSDPerLps
		} else {
			pumpKW := rec.PumpWorkW / 1000
			pumpCost += pumpKW * params.HighPressurePumpCostUSDPerKW
		}
		membraneCost += stage.MembraneAreaM2 * params.membraneUnitCost(membrane.Grade)
	}

	var erdCost float64
	if hasEnergyRecovery {
		if perf.System.DisposalFlowM3h >= params.EnergyRecoveryClassM3h {
			erdCost = perf.System.DisposalFlowM3h * params.EnergyRecoveryCostUSDPerM3h
		} else {
			erdCost = params.EnergyRecoveryTurbochargerCostUSD
		}
	}

	items := mat.NewVecDense(5, []float64{pumpCost, membraneCost, erdCost, params.CartridgeFilterCostUSD, params.CIPSystemCostUSD})
	direct := mat.Dot(items, ones5())
	indirect := direct * params.indirectCapitalFactor()

	return CapitalBreakdown{
		PumpCostUSD:            pumpCost,
		MembraneCostUSD:        membraneCost,
		EnergyRecoveryCostUSD:  erdCost,
		CartridgeFilterCostUSD: params.CartridgeFilterCostUSD,
		CIPSystemCostUSD:       params.CIPSystemCostUSD,
		DirectCapitalUSD:       direct,
		IndirectCapitalUSD:     indirect,
		TotalCapitalUSD:        direct + indirect,
	}
}

func operatingBreakdown(cfg optimize.Configuration, perf *simulate.PerformanceResult, dosing ChemicalDosing, params Parameters, totalCapitalUSD, membraneCapitalUSD float64) OperatingBreakdown {
	totalQpM3h := cfg.TotalPermeateFlowM3h()
	annualPermeateM3 := totalQpM3h * hoursPerYear * params.utilizationFraction()

	electricity := perf.System.SpecificEnergyKWhM3 * annualPermeateM3 * params.ElectricityPriceUSDPerKWh
	membraneReplacement := membraneCapitalUSD * params.membraneReplacementFraction()

	antiscalantKgPerYr := dosing.AntiscalantDoseMgL * cfg.SystemFeedFlowM3h * 1000 * hoursPerYear * params.utilizationFraction() / 1e6
	antiscalant := antiscalantKgPerYr * dosing.AntiscalantPriceUSDPerKg
	cipChemicals := params.CIPChemicalsCostUSDPerCleaning * params.CIPCleaningsPerYear

	var fixedOM float64
	for _, pct := range params.FixedOMPercentages {
		fixedOM += pct * totalCapitalUSD
	}

	items := mat.NewVecDense(5, []float64{electricity, membraneReplacement, antiscalant, cipChemicals, fixedOM})
	total := mat.Dot(items, ones5())

	return OperatingBreakdown{
		ElectricityUSDPerYr:         electricity,
		MembraneReplacementUSDPerYr: membraneReplacement,
		AntiscalantUSDPerYr:         antiscalant,
		CIPChemicalsUSDPerYr:        cipChemicals,
		FixedOMUSDPerYr:             fixedOM,
		TotalOpexUSDPerYr:           total,
	}
}

func lcowComponents(totalCapitalUSD float64, opex OperatingBreakdown, crf, annualPermeateM3 float64) LCOWComponents {
	capRecovery := crf * totalCapitalUSD / annualPermeateM3
	electricity := opex.ElectricityUSDPerYr / annualPermeateM3
	membraneReplacement := opex.MembraneReplacementUSDPerYr / annualPermeateM3
	chemical := (opex.AntiscalantUSDPerYr + opex.CIPChemicalsUSDPerYr) / annualPermeateM3
	fixedOM := opex.FixedOMUSDPerYr / annualPermeateM3

	items := mat.NewVecDense(5, []float64{capRecovery, electricity, membraneReplacement, chemical, fixedOM})
	total := mat.Dot(items, ones5())

	return LCOWComponents{
		CapitalRecoveryUSDPerM3: capRecovery,
		ElectricityUSDPerM3:     electricity,
		MembraneUSDPerM3:        membraneReplacement,
		ChemicalUSDPerM3:        chemical,
		FixedOMUSDPerM3:         fixedOM,
		TotalUSDPerM3:           total,
	}
}
