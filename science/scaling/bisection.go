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

package scaling

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rotrain/rotrain/internal/deadline"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
	"github.com/rotrain/rotrain/science/phreeqc"
)

const (
	bisectionLow  = 0.10
	bisectionHigh = 0.99
	bisectionRes  = 0.01
)

// SustainableRecovery implements C4: bisection on recovery R in
// [0.1, 0.99], probing the chemistry evaluator at each midpoint and
// recursing into the lower half whenever any mineral's saturation
// index exceeds its scenario threshold, stopping at a resolution of
// 0.01 in R.
func SustainableRecovery(ctx context.Context, eng phreeqc.Engine, comp *reference.IonComposition, ph, tempC float64, thresholds map[string]float64) (float64, error) {
	lo, hi := bisectionLow, bisectionHigh

	feasible, err := probeFeasible(ctx, eng, comp, ph, tempC, hi, thresholds)
	if err != nil {
		return 0, err
	}
	if feasible {
		return hi, nil
	}
	feasible, err = probeFeasible(ctx, eng, comp, ph, tempC, lo, thresholds)
	if err != nil {
		return 0, err
	}
	if !feasible {
		return 0, rerr.New(rerr.NoFeasibleConfiguration, "no recovery in [%.2f, %.2f] keeps saturation indices within the antiscalant scenario's thresholds", bisectionLow, bisectionHigh)
	}

	for hi-lo > bisectionRes {
		if err := deadline.Check(ctx, "sustainable-recovery bisection"); err != nil {
			return 0, err
		}
		mid := (lo + hi) / 2
		feasible, err := probeFeasible(ctx, eng, comp, ph, tempC, mid, thresholds)
		if err != nil {
			return 0, err
		}
		if feasible {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// probeFeasible concentrates comp to the concentration factor
// implied by recovery r and reports whether every mineral's
// saturation index stays at or below its threshold.
func probeFeasible(ctx context.Context, eng phreeqc.Engine, comp *reference.IonComposition, ph, tempC, r float64, thresholds map[string]float64) (bool, error) {
	cf := 1 / (1 - r)
	result, err := eng.Concentrate(ctx, phreeqc.Input{Composition: comp, PH: ph, TempC: tempC, CF: cf})
	if err != nil {
		return false, err
	}
	return MaxExceedance(result.SI, thresholds) <= 0, nil
}

// MaxExceedance returns max_i (SI_i - threshold_i) across the
// minerals present in both maps, using gonum/floats to reduce the
// per-mineral exceedance vector to its maximum.
func MaxExceedance(si, thresholds map[string]float64) float64 {
	exceedances := make([]float64, 0, len(phreeqc.Minerals))
	for _, m := range phreeqc.Minerals {
		s, ok := si[m]
		if !ok {
			continue
		}
		t, ok := thresholds[m]
		if !ok {
			t = 0
		}
		exceedances = append(exceedances, s-t)
	}
	if len(exceedances) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(exceedances)
}
