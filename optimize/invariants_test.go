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

package optimize

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestInvariant1SystemRecoveryMatchesDisposalBasis covers §8 invariant
// 1: system_recovery = 1 - disposal_flow/system_feed_flow, within 0.1%,
// for both a plain single-pass configuration and a recycle one (where
// disposal is the post-split fraction of final-stage concentrate).
func TestInvariant1SystemRecoveryMatchesDisposalBasis(t *testing.T) {
	configs, err := Optimize(Request{
		FeedFlowM3h:    100,
		RecoveryTarget: 0.75,
		Membrane:       testMembrane(),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range configs {
		if !c.MetRecoveryTarget {
			continue
		}
		disposal := c.FinalConcentrateFlowM3h()
		if c.Recycle != nil {
			disposal = c.Recycle.DisposalFlowM3h
		}
		want := 1 - disposal/c.SystemFeedFlowM3h
		if !almostEqual(c.SystemRecovery, want, 0.001) {
			t.Errorf("SystemRecovery = %v, want %v (1 - disposal/system_feed)", c.SystemRecovery, want)
		}
	}
}

// TestInvariant2PerStageMassBalance covers §8 invariant 2:
// |feed - permeate - concentrate| / feed < 0.001 for every stage.
func TestInvariant2PerStageMassBalance(t *testing.T) {
	configs, err := Optimize(Request{
		FeedFlowM3h:    100,
		RecoveryTarget: 0.75,
		Membrane:       testMembrane(),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range configs {
		for i, s := range c.Stages {
			residual := math.Abs(s.FeedFlowM3h-s.PermeateFlowM3h-s.ConcentrateFlowM3h) / s.FeedFlowM3h
			if residual >= 0.001 {
				t.Errorf("stage %d mass-balance residual %v exceeds 0.1%%", i, residual)
			}
		}
	}
}

// TestInvariant3RecycleFeedIdentity covers §8 invariant 3: for every
// recycle configuration, system_feed_flow + recycle_flow =
// stage_1_feed_flow, within 0.1% - the same basis the historical bug
// class in §9 got wrong.
func TestInvariant3RecycleFeedIdentity(t *testing.T) {
	configs, err := Optimize(Request{
		FeedFlowM3h:     100,
		RecoveryTarget:  0.87,
		Membrane:        testMembrane(),
		AllowRecycle:    true,
		MaxRecycleRatio: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range configs {
		if c.Recycle == nil {
			continue
		}
		found = true
		want := c.SystemFeedFlowM3h + c.Recycle.RecycleFlowM3h
		if !almostEqual(c.Stages[0].FeedFlowM3h, want, 0.001*want) {
			t.Errorf("stage-1 feed %v, want system_feed + recycle_flow = %v", c.Stages[0].FeedFlowM3h, want)
		}
	}
	if !found {
		t.Fatal("expected at least one recycle configuration at 87% target recovery")
	}
}

// TestBoundaryTrivialRecoveryTarget covers §8's boundary behavior:
// R_t = 0.01 at any flow returns a single-stage, single-vessel trivial
// configuration.
func TestBoundaryTrivialRecoveryTarget(t *testing.T) {
	configs, err := Optimize(Request{
		FeedFlowM3h:    100,
		RecoveryTarget: 0.01,
		Membrane:       testMembrane(),
	})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range configs {
		if c.MetRecoveryTarget && len(c.Stages) == 1 && c.Stages[0].Vessels == 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected a single-stage, single-vessel configuration to satisfy a 1% recovery target")
	}
}

// TestBoundaryExtremeRecoveryWithoutRecycleFails covers §8's boundary
// behavior: R_t = 0.99 with allow_recycle=false returns
// NoFeasibleConfiguration on a realistic brackish feed.
func TestBoundaryExtremeRecoveryWithoutRecycleFails(t *testing.T) {
	configs, err := Optimize(Request{
		FeedFlowM3h:    100,
		RecoveryTarget: 0.99,
		Membrane:       testMembrane(),
		AllowRecycle:   false,
	})
	if err == nil {
		for _, c := range configs {
			if c.MetRecoveryTarget {
				t.Fatalf("expected no single-pass configuration to reach 99%% recovery, got %+v", c)
			}
		}
	}
}
