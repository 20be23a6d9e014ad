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
	"fmt"
	"math"
)

// perStageRecoveryFraction is the per-stage recovery s that, applied
// identically to each of k stages cascading in series, compounds to
// the array's overall recoveryTarget: 1 - (1-s)^k = recoveryTarget.
// Splitting recovery evenly this way (rather than allocating a fixed
// total permeate by flux-target weight) keeps the concentrate-to-feed
// ratio constant from stage to stage, which is what keeps the
// concentrate-per-vessel fouling floor from being violated
// disproportionately in the last stage, where the least feed remains.
func perStageRecoveryFraction(recoveryTarget float64, k int) float64 {
	return 1 - math.Pow(1-recoveryTarget, 1/float64(k))
}

// evaluateSplitK sizes all k stages for one feed flow and recovery
// target: each stage recovers perStageRecoveryFraction of whatever
// feed it receives (fresh feed for stage 1, the previous stage's
// concentrate for stage k>1), and the vessel count within each stage
// is chosen by stagePlan to deliver that permeate within the flux-
// tolerance ladder and the fouling-minimum concentrate constraint.
// Because every stage's own recovery fraction is fixed up front, a
// successful sizing of all k stages hits recoveryTarget exactly (up
// to floating-point rounding); it returns ok=false the moment any
// stage cannot be sized.
func evaluateSplitK(req Request, feedM3h, recoveryTarget float64, k int) (Configuration, bool) {
	targets := req.fluxTargetsLMH()
	s := perStageRecoveryFraction(recoveryTarget, k)

	stages := make([]StageDesign, 0, k)
	var warnings []string
	feed := feedM3h
	for i := 0; i < k; i++ {
		target := fluxTargetForStage(targets, i)
		idealQp := s * feed
		plan, ok := stagePlan(feed, idealQp, target, req.Membrane.ElementsPerVessel, req.Membrane.ElementAreaM2, req.minConcentratePerVesselM3h(), req.fluxTolerance())
		if !ok {
			return Configuration{}, false
		}
		if plan.Vessels > vesselCountExplosionLimit {
			warnings = append(warnings, fmt.Sprintf("stage %d sized to %d vessels, exceeding the %d-vessel explosion threshold", i+1, plan.Vessels, vesselCountExplosionLimit))
		}
		stages = append(stages, plan)
		feed = plan.ConcentrateFlowM3h
	}

	var achievedPermeate float64
	for _, st := range stages {
		achievedPermeate += st.PermeateFlowM3h
	}

	cfg := Configuration{
		Stages:            stages,
		SystemFeedFlowM3h: feedM3h,
		SystemRecovery:    achievedPermeate / feedM3h,
		MetRecoveryTarget: achievedPermeate/feedM3h >= recoveryTarget-0.001,
		Warnings:          warnings,
	}
	return cfg, true
}

// stageCount enumerates K in {1, 2, 3}, as §4.5 requires, producing at
// most one configuration for each: the even per-stage recovery split of
// evaluateSplitK. Other vessel splits with the same K are not
// enumerated or returned.
func stageCount(req Request) []Configuration {
	var out []Configuration
	for k := 1; k <= 3; k++ {
		cfg, ok := evaluateSplitK(req, req.FeedFlowM3h, req.RecoveryTarget, k)
		if ok {
			out = append(out, cfg)
		}
	}
	return out
}
