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

// Package economics implements the economic model (C8): capital cost,
// operating cost, and levelized cost of water (LCOW) rolled up from a
// Configuration and its simulate.PerformanceResult, per §4.7.
package economics

// Parameters is C8's economic-parameter record (§4.7's contract input).
// GetDefaults returns a catalog-backed instance; every field here may
// also be overridden by a caller with site-specific figures.
type Parameters struct {
	// WACC is the weighted-average cost of capital, i in the CRF formula.
	WACC float64
	// PlantLifetimeYears is N in the CRF formula.
	PlantLifetimeYears float64
	// UtilizationFraction scales nameplate annual permeate down for
	// planned/unplanned downtime (e.g. 0.92 for 92% uptime).
	UtilizationFraction float64

	ElectricityPriceUSDPerKWh float64

	// MembraneUnitCostUSDPerM2 is keyed by reference.Membrane.Grade
	// ("brackish", "seawater"); an unlisted grade falls back to the
	// "brackish" entry.
	MembraneUnitCostUSDPerM2 map[string]float64
	// MembraneReplacementFraction is the annual replacement rate,
	// default 0.20 (§4.7).
	MembraneReplacementFraction float64

	// LowPressurePumpCostUSDPerLps prices a pump below PressureClassPa.
	LowPressurePumpCostUSDPerLps float64
	// HighPressurePumpCostUSDPerKW prices a pump at or above PressureClassPa.
	HighPressurePumpCostUSDPerKW float64
	// PressureClassPa is the low/high pressure pump pricing boundary,
	// default 45 bar = 4.5e6 Pa (§4.7).
	PressureClassPa float64

	// EnergyRecoveryCostUSDPerM3h prices an isobaric pressure exchanger
	// above EnergyRecoveryClassM3h of brine flow; below it, a
	// turbocharger is priced at EnergyRecoveryTurbochargerCostUSD flat.
	EnergyRecoveryCostUSDPerM3h        float64
	EnergyRecoveryClassM3h             float64
	EnergyRecoveryTurbochargerCostUSD float64

	CartridgeFilterCostUSD float64
	CIPSystemCostUSD       float64

	// IndirectCapitalFactor multiplies direct capital to get indirect
	// capital (engineering, contingency, commissioning), default 2.5.
	IndirectCapitalFactor float64

	// FixedOMPercentages is each named fixed-O&M line item (salaries,
	// maintenance, lab, insurance) as a fraction of total capital
	// investment per year.
	FixedOMPercentages map[string]float64

	CIPChemicalsCostUSDPerCleaning float64
	CIPCleaningsPerYear            float64
}

// ChemicalDosing is the antiscalant program consumed by C8's chemical
// operating-cost line item; separate from Parameters because a caller
// typically varies it per scenario (§6's optional `chemical_dosing`).
type ChemicalDosing struct {
	AntiscalantDoseMgL       float64
	AntiscalantPriceUSDPerKg float64
}

// CapitalBreakdown is §4.7's capital cost output, one line item per
// equipment class plus the direct/indirect/total rollup.
type CapitalBreakdown struct {
	PumpCostUSD            float64
	MembraneCostUSD        float64
	EnergyRecoveryCostUSD  float64
	CartridgeFilterCostUSD float64
	CIPSystemCostUSD       float64

	DirectCapitalUSD   float64
	IndirectCapitalUSD float64
	TotalCapitalUSD    float64
}

// OperatingBreakdown is §4.7's annual operating cost output.
type OperatingBreakdown struct {
	ElectricityUSDPerYr         float64
	MembraneReplacementUSDPerYr float64
	AntiscalantUSDPerYr         float64
	CIPChemicalsUSDPerYr        float64
	FixedOMUSDPerYr             float64

	TotalOpexUSDPerYr float64
}

// LCOWComponents is §4.7's "report each term as a contribution"
// requirement: the five cost drivers behind the final $/m3 figure,
// which must sum to TotalUSDPerM3 within invariant 8's 1% tolerance.
type LCOWComponents struct {
	CapitalRecoveryUSDPerM3 float64
	ElectricityUSDPerM3     float64
	MembraneUSDPerM3        float64
	ChemicalUSDPerM3        float64
	FixedOMUSDPerM3         float64

	TotalUSDPerM3 float64
}

// Result bundles C8's full output for one configuration.
type Result struct {
	Capital               CapitalBreakdown
	Operating             OperatingBreakdown
	LCOW                  LCOWComponents
	CapitalRecoveryFactor float64
	AnnualPermeateM3      float64
}

func (p Parameters) membraneUnitCost(grade string) float64 {
	if v, ok := p.MembraneUnitCostUSDPerM2[grade]; ok {
		return v
	}
	return p.MembraneUnitCostUSDPerM2["brackish"]
}

func (p Parameters) indirectCapitalFactor() float64 {
	if p.IndirectCapitalFactor > 0 {
		return p.IndirectCapitalFactor
	}
	return 2.5
}

func (p Parameters) membraneReplacementFraction() float64 {
	if p.MembraneReplacementFraction > 0 {
		return p.MembraneReplacementFraction
	}
	return 0.20
}

func (p Parameters) pressureClassPa() float64 {
	if p.PressureClassPa > 0 {
		return p.PressureClassPa
	}
	return 45 * 1e5
}

func (p Parameters) utilizationFraction() float64 {
	if p.UtilizationFraction > 0 {
		return p.UtilizationFraction
	}
	return 0.92
}
