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

package phreeqc

import (
	"context"
	"math"

	"github.com/rotrain/rotrain/rerr"
)

// FakeEngine stands in for a real PHREEQC subprocess in tests, the way
// cloud.NewFakeClient stands in for a real cluster runner in the teacher
// repo: it never shells out, and it reproduces the qualitative behavior
// (SI rising with concentration factor, pH drifting toward
// equilibrium) with simple closed-form approximations good enough to
// exercise C4/C5/C6/C7's control flow deterministically.
//
// FakeEngine is not a "simplified PHREEQC" for production use - it is
// compiled into this package but referenced only from test files,
// matching cloud/fakerunner.go's test-only role.
type FakeEngine struct {
	// PKsp holds a solubility product (as -log10 Ksp, i.e. pKsp) per
	// mineral; SI is then approximated as log10(ion product) + pKsp
	// using a crude ion-product proxy from TDS and CF. Defaults to a
	// representative set for the fixed mineral list if nil.
	PKsp map[string]float64

	// FailAbove, if non-zero, makes Concentrate return a
	// rerr.Chemistry failure once CF exceeds this value, to exercise
	// C3's "no algebraic fallback" contract in tests that need a
	// non-convergent run.
	FailAbove float64

	// Calls counts invocations, for tests asserting on call counts
	// (e.g. the bisection call-count property in §8).
	Calls int
}

func defaultPKsp() map[string]float64 {
	return map[string]float64{
		"calcite":          8.48,
		"gypsum":           4.58,
		"anhydrite":        4.36,
		"barite":           9.97,
		"celestite":        6.63,
		"fluorite":         10.6,
		"amorphous_silica": 2.7,
	}
}

func (f *FakeEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, rerr.Wrap(rerr.Cancelled, err, "phreeqc fake: cancelled")
	}
	f.Calls++
	if f.FailAbove > 0 && in.CF > f.FailAbove {
		return Result{}, rerr.New(rerr.Chemistry, "phreeqc fake: simulated non-convergence above CF=%.2f", f.FailAbove)
	}

	pksp := f.PKsp
	if pksp == nil {
		pksp = defaultPKsp()
	}

	conc := in.Composition.Scale(in.CF)
	tds := conc.TDS()

	// pH rises slightly with log(CF), capped at 9.0, whatever side of
	// neutral it starts on; this is a monotonic, bounded proxy, not a
	// real carbonate-equilibrium model.
	ph := in.PH + 0.05*math.Log(in.CF)
	if ph > 9.0 {
		ph = 9.0
	}

	ca, _ := conc.Get("ca2+")
	so4, _ := conc.Get("so4-2")
	ba, _ := conc.Get("ba2+")
	sr, _ := conc.Get("sr2+")
	hco3, _ := conc.Get("hco3-")
	f_, _ := conc.Get("f-")
	sio2, _ := conc.Get("sio2")

	si := map[string]float64{
		"calcite":          ionProductSI(ca, hco3, pksp["calcite"]) + 0.1*(ph-7.5),
		"gypsum":           ionProductSI(ca, so4, pksp["gypsum"]),
		"anhydrite":        ionProductSI(ca, so4, pksp["anhydrite"]) - 0.3,
		"barite":           ionProductSI(ba, so4, pksp["barite"]),
		"celestite":        ionProductSI(sr, so4, pksp["celestite"]),
		"fluorite":         ionProductSI(f_, f_, pksp["fluorite"]),
		"amorphous_silica": math.Log10(math.Max(sio2, 1e-6)/1e-6) - pksp["amorphous_silica"] - 0.2*(ph-7.5),
	}

	return Result{
		Concentrated: conc,
		PH:           ph,
		CO2MgL:       math.Max(0, 5-0.5*math.Log(in.CF)) * (tds / 1000),
		SI:           si,
	}, nil
}

// ionProductSI is a crude proxy for log10(IAP/Ksp) from two mg/L
// concentrations: log10 of their product (treated as molar-equivalent
// via a fixed scale) plus pKsp. It is monotonically increasing in both
// concentrations, which is all the fixed-point/bisection callers need.
func ionProductSI(aMgL, bMgL, pKsp float64) float64 {
	const molarScale = 1e-5 // mg/L -> rough molar units for a deterministic proxy
	a := math.Max(aMgL*molarScale, 1e-9)
	b := math.Max(bMgL*molarScale, 1e-9)
	return math.Log10(a*b) + pKsp
}
