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

import "math"

// enumerationStrategy names which of §4.5's three scale-aware vessel
// search strategies applies to a stage's ideal (continuous) vessel
// count.
type enumerationStrategy int

const (
	exhaustive enumerationStrategy = iota
	geometricProgression
	binarySearch
)

func strategyFor(idealVessels float64) enumerationStrategy {
	switch {
	case idealVessels <= 100:
		return exhaustive
	case idealVessels <= 1000:
		return geometricProgression
	default:
		return binarySearch
	}
}

// candidateVesselCounts returns the integer vessel counts worth
// evaluating around idealVessels, shaped by the scale-aware strategy
// that applies at this magnitude. Exhaustive search checks every
// integer in a tight window; geometric progression samples a handful
// of multiplicative steps; binary search narrows toward the ideal from
// a wide bracket, since a per-vessel linear scan becomes wasteful once
// the ideal count reaches the thousands.
func candidateVesselCounts(idealVessels float64) []int {
	if idealVessels < 1 {
		idealVessels = 1
	}
	switch strategyFor(idealVessels) {
	case exhaustive:
		lo := int(math.Floor(idealVessels * 0.5))
		hi := int(math.Ceil(idealVessels*1.5)) + 1
		if lo < 1 {
			lo = 1
		}
		out := make([]int, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			out = append(out, n)
		}
		return out
	case geometricProgression:
		steps := []float64{0.85, 0.9, 0.95, 1.0, 1.05, 1.1, 1.15, 1.2}
		seen := map[int]bool{}
		var out []int
		for _, s := range steps {
			n := int(math.Round(idealVessels * s))
			if n < 1 {
				n = 1
			}
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		return out
	default: // binarySearch
		lo, hi := int(math.Floor(idealVessels*0.5)), int(math.Ceil(idealVessels*1.5))
		if lo < 1 {
			lo = 1
		}
		var out []int
		for lo <= hi {
			mid := (lo + hi) / 2
			out = append(out, mid)
			if float64(mid) < idealVessels {
				lo = mid + 1
			} else {
				hi = mid - 1
			}
		}
		return out
	}
}

// fluxToleranceLadder is the sequence of progressively looser flux
// tolerances the search tries before giving up on a stage, per §4.5's
// "relaxed stage-wise only as a last resort" rule. It never loosens
// past the point where the low end of the band would fall below
// fluxFloor of the target.
func fluxToleranceLadder(defaultTol float64) []float64 {
	ladder := []float64{defaultTol}
	for tol := defaultTol + 0.05; tol <= 1-fluxFloor; tol += 0.05 {
		ladder = append(ladder, tol)
	}
	return ladder
}

// stagePlan is the result of sizing one stage: the vessel count chosen
// and the resulting StageDesign, or ok=false if no candidate vessel
// count could deliver idealPermeateM3h within any tolerance on the
// ladder while respecting the fouling-minimum concentrate constraint.
// A stage whose ideal vessel count is below one is sized to a single
// vessel, whose flux may then fall below the tolerance band.
func stagePlan(feedM3h, idealPermeateM3h, targetFluxLMH float64, elementsPerVessel int, elementAreaM2, minConcPerVesselM3h, defaultTol float64) (StageDesign, bool) {
	areaPerVessel := float64(elementsPerVessel) * elementAreaM2
	idealAreaM2 := idealPermeateM3h * 1000 / targetFluxLMH
	idealVessels := idealAreaM2 / areaPerVessel

	if idealVessels < 1 {
		concentrate := feedM3h - idealPermeateM3h
		if concentrate < minConcPerVesselM3h {
			return StageDesign{}, false
		}
		return StageDesign{
			Vessels: 1, ElementsPerVessel: elementsPerVessel, MembraneAreaM2: areaPerVessel,
			TargetFluxLMH: targetFluxLMH, AchievedFluxLMH: idealPermeateM3h * 1000 / areaPerVessel,
			FeedFlowM3h: feedM3h, PermeateFlowM3h: idealPermeateM3h, ConcentrateFlowM3h: concentrate,
			Recovery: idealPermeateM3h / feedM3h,
		}, true
	}

	if idealVessels > float64(vesselCountExplosionLimit)*3 {
		// Not recoverable by any tolerance relaxation - the ideal itself
		// is absurd for this membrane/flux combination.
		return StageDesign{}, false
	}

	candidates := candidateVesselCounts(idealVessels)
	for _, tol := range fluxToleranceLadder(defaultTol) {
		var best StageDesign
		haveBest := false
		bestDelta := math.Inf(1)
		for _, n := range candidates {
			if n < 1 {
				continue
			}
			area := float64(n) * areaPerVessel
			achievedFlux := idealPermeateM3h * 1000 / area
			lowBound, highBound := targetFluxLMH*(1-tol), targetFluxLMH*(1+tol)
			if achievedFlux < lowBound || achievedFlux > highBound {
				continue
			}
			concentrate := feedM3h - idealPermeateM3h
			if concentrate < 0 || concentrate/float64(n) < minConcPerVesselM3h {
				continue
			}
			delta := math.Abs(achievedFlux - targetFluxLMH)
			if delta < bestDelta {
				bestDelta = delta
				best = StageDesign{
					Vessels:            n,
					ElementsPerVessel:  elementsPerVessel,
					MembraneAreaM2:     area,
					TargetFluxLMH:      targetFluxLMH,
					AchievedFluxLMH:    achievedFlux,
					FeedFlowM3h:        feedM3h,
					PermeateFlowM3h:    idealPermeateM3h,
					ConcentrateFlowM3h: concentrate,
					Recovery:           idealPermeateM3h / feedM3h,
				}
				haveBest = true
			}
		}
		if haveBest {
			return best, true
		}
	}
	return StageDesign{}, false
}
