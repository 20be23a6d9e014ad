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
	"testing"

	"github.com/rotrain/rotrain/optimize"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/simulate"
)

func testMembrane() reference.Membrane {
	return reference.Membrane{
		Name:  "TEST-400",
		Grade: "brackish",
	}
}

func testConfigAndPerf() (optimize.Configuration, *simulate.PerformanceResult) {
	cfg := optimize.Configuration{
		Stages: []optimize.StageDesign{
			{MembraneAreaM2: 1000, FeedFlowM3h: 100, PermeateFlowM3h: 55, ConcentrateFlowM3h: 45},
			{MembraneAreaM2: 500, FeedFlowM3h: 45, PermeateFlowM3h: 20, ConcentrateFlowM3h: 25},
		},
		SystemFeedFlowM3h: 100,
		SystemRecovery:    0.75,
	}
	perf := &simulate.PerformanceResult{
		Configuration: cfg,
		Stages: []simulate.StageOperatingRecord{
			{FeedPressurePa: 1.2e6, PumpWorkW: 20000},
			{FeedPressurePa: 1.8e6, PumpWorkW: 9000},
		},
		System: simulate.SystemTotals{
			Recovery:            0.75,
			SpecificEnergyKWhM3: 1.1,
			DisposalFlowM3h:     25,
		},
	}
	return cfg, perf
}

func floatsAlmostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestEvaluateProducesPositiveLCOW(t *testing.T) {
	cfg, perf := testConfigAndPerf()
	result, err := Evaluate(cfg, perf, testMembrane(), DefaultParameters(), DefaultChemicalDosing("standard"), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.LCOW.TotalUSDPerM3 <= 0 {
		t.Errorf("expected positive LCOW, got %v", result.LCOW.TotalUSDPerM3)
	}
	if result.Capital.TotalCapitalUSD <= result.Capital.DirectCapitalUSD {
		t.Error("indirect capital factor should make total capital exceed direct capital")
	}
}

func TestEvaluateEnergyRecoveryAddsCapitalCost(t *testing.T) {
	cfg, perf := testConfigAndPerf()
	params := DefaultParameters()
	without, err := Evaluate(cfg, perf, testMembrane(), params, DefaultChemicalDosing("standard"), false)
	if err != nil {
		t.Fatal(err)
	}
	with, err := Evaluate(cfg, perf, testMembrane(), params, DefaultChemicalDosing("standard"), true)
	if err != nil {
		t.Fatal(err)
	}
	if with.Capital.TotalCapitalUSD <= without.Capital.TotalCapitalUSD {
		t.Error("an energy-recovery device should add capital cost")
	}
}

func TestEvaluateRejectsStageCountMismatch(t *testing.T) {
	cfg, perf := testConfigAndPerf()
	perf.Stages = perf.Stages[:1]
	if _, err := Evaluate(cfg, perf, testMembrane(), DefaultParameters(), DefaultChemicalDosing("standard"), false); err == nil {
		t.Fatal("expected an error for mismatched stage counts")
	}
}

func TestDerivedMetricsEvaluatesExpression(t *testing.T) {
	cfg, perf := testConfigAndPerf()
	result, err := Evaluate(cfg, perf, testMembrane(), DefaultParameters(), DefaultChemicalDosing("standard"), false)
	if err != nil {
		t.Fatal(err)
	}
	metrics, err := DerivedMetrics(*result, map[string]string{
		"cost_per_kgal": "LCOW * 3.78541",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := result.LCOW.TotalUSDPerM3 * 3.78541
	if !floatsAlmostEqual(metrics["cost_per_kgal"], want, 1e-6) {
		t.Errorf("cost_per_kgal = %v, want %v", metrics["cost_per_kgal"], want)
	}
}

func TestDerivedMetricsFailsOnUnknownVariable(t *testing.T) {
	cfg, perf := testConfigAndPerf()
	result, err := Evaluate(cfg, perf, testMembrane(), DefaultParameters(), DefaultChemicalDosing("standard"), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DerivedMetrics(*result, map[string]string{"bad": "NotAField * 2"}); err == nil {
		t.Fatal("expected an error referencing an unknown field")
	}
}
