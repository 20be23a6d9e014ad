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
	"testing"

	"github.com/rotrain/rotrain/chemistry"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/science/phreeqc"
)

func floatsAlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func runTestSimulation(t *testing.T) *PerformanceResult {
	t.Helper()
	cfg := testConfiguration(t)
	result, err := Run(Request{
		Configuration:    cfg,
		Composition:      testComposition(),
		FeedTemperatureC: 25,
		FeedPH:           7.5,
		Membrane:         testMembrane(),
		IonRegistry:      testRegistry(),
		Engine:           &phreeqc.FakeEngine{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

// TestInvariant4SystemMassBalance covers §8 invariant 4: system-basis
// mass balance in the simulator output, system_feed*feed_TDS ≈
// permeate_flow*permeate_TDS + disposal_flow*disposal_TDS, within 2%.
func TestInvariant4SystemMassBalance(t *testing.T) {
	result := runTestSimulation(t)
	cfg := result.Configuration
	feedTDS := result.Stages[0].FeedTDSMgL
	lhs := cfg.SystemFeedFlowM3h * feedTDS
	rhs := cfg.TotalPermeateFlowM3h()*result.System.PermeateTDSMgL + result.System.DisposalFlowM3h*result.System.DisposalTDSMgL
	residual := math.Abs(lhs-rhs) / lhs
	if residual >= 0.02 {
		t.Errorf("system mass-balance residual %v exceeds 2%% (lhs=%v rhs=%v)", residual, lhs, rhs)
	}
}

// TestInvariant5PermeateDepletedConcentrateEnriched covers §8 invariant
// 5: for every ion present in the feed, c_permeate <= c_feed and
// c_concentrate >= c_feed, at every stage.
func TestInvariant5PermeateDepletedConcentrateEnriched(t *testing.T) {
	result := runTestSimulation(t)
	for i, s := range result.Stages {
		for _, label := range s.FeedComposition.Labels() {
			feed, _ := s.FeedComposition.Get(label)
			perm, _ := s.PermeateComposition.Get(label)
			conc, _ := s.ConcentrateComposition.Get(label)
			if perm > feed {
				t.Errorf("stage %d: permeate %s %v exceeds feed %v", i, label, perm, feed)
			}
			if conc < feed {
				t.Errorf("stage %d: concentrate %s %v is below feed %v", i, label, conc, feed)
			}
		}
	}
}

// TestInvariant6ChargeBalanceResidualWithinBound covers §8 invariant 6:
// the charge-balance residual of every produced composition (feed,
// permeate, concentrate) is within 5% once run back through
// chemistry.Validate's reconciliation.
func TestInvariant6ChargeBalanceResidualWithinBound(t *testing.T) {
	reg := testRegistry()
	result := runTestSimulation(t)
	check := func(label string, comp *reference.IonComposition) {
		raw := make(map[string]float64)
		for _, l := range comp.Labels() {
			v, _ := comp.Get(l)
			raw[l] = v
		}
		validated, err := chemistry.Validate(reg, raw, 0)
		if err != nil {
			t.Errorf("%s: charge-balance validation failed: %v", label, err)
			return
		}
		if validated.ResidualFraction >= 0.05 {
			t.Errorf("%s: charge-balance residual %v exceeds 5%%", label, validated.ResidualFraction)
		}
	}
	for i, s := range result.Stages {
		check("stage feed", s.FeedComposition)
		check("stage permeate", s.PermeateComposition)
		check("stage concentrate", s.ConcentrateComposition)
		_ = i
	}
}

// TestInvariant7PerIonRejectionInUnitRange covers §8 invariant 7:
// per-ion rejection R_i in [0, 1] for every ion, at every stage.
func TestInvariant7PerIonRejectionInUnitRange(t *testing.T) {
	result := runTestSimulation(t)
	for i, s := range result.Stages {
		for label, r := range s.RejectionByIon {
			if r < 0 || r > 1 {
				t.Errorf("stage %d: rejection for %s = %v, want in [0,1]", i, label, r)
			}
		}
	}
	for label, r := range result.System.RejectionByIon {
		if r < 0 || r > 1 {
			t.Errorf("system rejection for %s = %v, want in [0,1]", label, r)
		}
	}
}

// TestLawConcentrateRoundTrip covers §8's "concentrate round-trip" law:
// concentrating a feed to CF and diluting by the mass-balance inverse
// (scaling by 1/CF) recovers the original TDS within 1%.
func TestLawConcentrateRoundTrip(t *testing.T) {
	feed := testComposition()
	const cf = 1.6
	concentrated := feed.Scale(cf)
	roundTripped := concentrated.Scale(1 / cf)
	residual := math.Abs(roundTripped.TDS()-feed.TDS()) / feed.TDS()
	if residual >= 0.01 {
		t.Errorf("round-trip TDS residual %v exceeds 1%% (original %v, round-tripped %v)", residual, feed.TDS(), roundTripped.TDS())
	}
}
