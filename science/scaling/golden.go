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

	"github.com/rotrain/rotrain/internal/deadline"
	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/science/phreeqc"
)

const (
	phLow        = 5.5
	phHigh       = 9.0
	phResolution = 0.02
	goldenRatio  = 0.6180339887498949
)

// PHRecoveryResult is C5's maximize_sustainable_recovery output.
type PHRecoveryResult struct {
	PH          float64
	MaxRecovery float64
}

// MaximizeSustainableRecovery implements C5's first operation: a
// golden-section search over feed pH in [5.5, 9.0] that maximizes the
// sustainable recovery computed by C4 at each probe pH. The probe pH is
// handed directly to the chemistry evaluator, which re-equilibrates
// the carbonate system (dissolved CO2/HCO3-) at that pH - no client-
// side titration chemistry is duplicated here.
func MaximizeSustainableRecovery(ctx context.Context, eng phreeqc.Engine, comp *reference.IonComposition, tempC float64, thresholds map[string]float64) (PHRecoveryResult, error) {
	f := func(ph float64) (float64, error) {
		r, err := SustainableRecovery(ctx, eng, comp, ph, tempC, thresholds)
		if err != nil {
			return 0, err
		}
		return r, nil
	}

	a, b := phLow, phHigh
	c := b - goldenRatio*(b-a)
	d := a + goldenRatio*(b-a)
	fc, err := f(c)
	if err != nil {
		return PHRecoveryResult{}, err
	}
	fd, err := f(d)
	if err != nil {
		return PHRecoveryResult{}, err
	}

	for math.Abs(b-a) > phResolution {
		if err := deadline.Check(ctx, "pH golden-section search"); err != nil {
			return PHRecoveryResult{}, err
		}
		if fc > fd {
			b = d
			d = c
			fd = fc
			c = b - goldenRatio*(b-a)
			fc, err = f(c)
		} else {
			a = c
			c = d
			fc = fd
			d = a + goldenRatio*(b-a)
			fd, err = f(d)
		}
		if err != nil {
			return PHRecoveryResult{}, err
		}
	}

	bestPH, bestR := c, fc
	if fd > fc {
		bestPH, bestR = d, fd
	}
	return PHRecoveryResult{PH: bestPH, MaxRecovery: bestR}, nil
}
