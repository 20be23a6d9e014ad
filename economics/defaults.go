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

// DefaultParameters returns the specification's representative
// economic-parameter record (§4.7), the same way
// scaling.AntiscalantScenario.Thresholds documents representative
// figures as configuration data rather than algorithmic invariants.
// Site-specific costing should override individual fields on the
// returned value, not rely on these numbers for a real bid.
func DefaultParameters() Parameters {
	return Parameters{
		WACC:                         0.06,
		PlantLifetimeYears:           20,
		UtilizationFraction:          0.92,
		ElectricityPriceUSDPerKWh:    0.10,
		MembraneUnitCostUSDPerM2:     map[string]float64{"brackish": 30, "seawater": 45},
		MembraneReplacementFraction:  0.20,
		LowPressurePumpCostUSDPerLps: 1200,
		HighPressurePumpCostUSDPerKW: 900,
		PressureClassPa:              45 * 1e5,
		EnergyRecoveryCostUSDPerM3h:  250,
		EnergyRecoveryClassM3h:       20,
		EnergyRecoveryTurbochargerCostUSD: 15000,
		CartridgeFilterCostUSD:       20000,
		CIPSystemCostUSD:             35000,
		IndirectCapitalFactor:        2.5,
		FixedOMPercentages: map[string]float64{
			"salaries":    0.015,
			"maintenance": 0.02,
			"lab":         0.005,
			"insurance":   0.005,
		},
		CIPChemicalsCostUSDPerCleaning: 500,
		CIPCleaningsPerYear:            4,
	}
}

// DefaultChemicalDosing returns the specification's representative
// antiscalant dosing program for the given scenario name ("none",
// "standard", "high-performance"); unrecognized names fall back to
// "standard".
func DefaultChemicalDosing(scenario string) ChemicalDosing {
	switch scenario {
	case "none":
		return ChemicalDosing{}
	case "high-performance":
		return ChemicalDosing{AntiscalantDoseMgL: 3.0, AntiscalantPriceUSDPerKg: 4.50}
	default:
		return ChemicalDosing{AntiscalantDoseMgL: 2.0, AntiscalantPriceUSDPerKg: 2.50}
	}
}
