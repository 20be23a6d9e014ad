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

// Package chemistry implements the water-chemistry validator (component
// C2): parsing a raw ion map into a normalized, charge-balanced
// IonComposition reconciled against a reported TDS.
package chemistry

import (
	"math"

	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
)

const (
	balanceTolerance    = 0.02 // trigger auto-balance above this fraction
	balanceFailTol      = 0.10 // fail if residual still exceeds this after balancing
	tdsReconcileFailTol = 0.10 // fail if reported TDS differs from sum(c) by more
)

// Result is the output of Validate: a normalized composition, the
// reconciled TDS, and the charge-balance residual after any
// auto-balancing (fraction, always <= balanceFailTol on success).
type Result struct {
	Composition       *reference.IonComposition
	ReconciledTDSMgL  float64
	ResidualFraction  float64
	BalancedIonLabel  string // empty if no adjustment was needed
}

// Validate normalizes raw (mg/L, possibly varied-notation keys), enforces
// non-negativity and registry membership, auto-balances the charge
// residual by adjusting the dominant counter-ion, and reconciles the
// result against reportedTDS. Per C2's contract it returns
// *rerr.Error{Kind: rerr.InvalidComposition} for any of: a negative
// concentration, an ion unknown to the registry, a charge residual that
// still exceeds 10% after auto-balancing, or a reported TDS that differs
// from the concentration sum by more than 10%.
func Validate(reg *reference.Registry, raw map[string]float64, reportedTDSMgL float64) (Result, error) {
	comp := reference.NewIonComposition()
	ions := make(map[string]reference.Ion, len(raw))

	for label, mgL := range raw {
		if mgL < 0 {
			return Result{}, rerr.New(rerr.InvalidComposition, "ion %s has negative concentration %v mg/L", label, mgL)
		}
		ion, ok := reg.Lookup(label)
		if !ok {
			return Result{}, rerr.New(rerr.InvalidComposition, "ion %s is not in the ion reference registry", label)
		}
		key := reference.Normalize(label)
		comp.Set(key, mgL)
		ions[key] = ion
	}

	sumEq, sumAbsEq := chargeSums(comp, ions)
	residual := 0.0
	if sumAbsEq > 0 {
		residual = math.Abs(sumEq) / sumAbsEq
	}

	balancedLabel := ""
	if residual > balanceTolerance {
		label, err := balanceDominantCounterIon(comp, ions, sumEq)
		if err != nil {
			return Result{}, err
		}
		balancedLabel = label
		sumEq, sumAbsEq = chargeSums(comp, ions)
		if sumAbsEq > 0 {
			residual = math.Abs(sumEq) / sumAbsEq
		} else {
			residual = 0
		}
		if residual > balanceFailTol {
			return Result{}, rerr.New(rerr.InvalidComposition,
				"charge-balance residual %.1f%% still exceeds %.0f%% after auto-balancing %s",
				residual*100, balanceFailTol*100, balancedLabel)
		}
	}

	sumC := comp.TDS()
	if reportedTDSMgL > 0 {
		diff := math.Abs(reportedTDSMgL-sumC) / reportedTDSMgL
		if diff > tdsReconcileFailTol {
			return Result{}, rerr.New(rerr.InvalidComposition,
				"reported TDS %.0f mg/L differs from ion sum %.0f mg/L by %.1f%%, exceeding %.0f%%",
				reportedTDSMgL, sumC, diff*100, tdsReconcileFailTol*100)
		}
	}

	return Result{
		Composition:      comp,
		ReconciledTDSMgL: sumC,
		ResidualFraction: residual,
		BalancedIonLabel: balancedLabel,
	}, nil
}

// chargeSums returns (signed sum of equivalents, sum of |equivalents|).
func chargeSums(comp *reference.IonComposition, ions map[string]reference.Ion) (sum, sumAbs float64) {
	for _, label := range comp.Labels() {
		mgL, _ := comp.Get(label)
		eq := ions[label].Equivalents(mgL)
		sum += eq
		sumAbs += math.Abs(eq)
	}
	return sum, sumAbs
}

// balanceDominantCounterIon adjusts the largest-magnitude ion of charge
// opposite to the signed residual so that the composition's total
// equivalents become zero, per C2 step 3. It returns the label adjusted.
func balanceDominantCounterIon(comp *reference.IonComposition, ions map[string]reference.Ion, sumEq float64) (string, error) {
	wantSign := 1.0
	if sumEq > 0 {
		wantSign = -1.0
	}

	var bestLabel string
	var bestMagnitude float64
	for _, label := range comp.Labels() {
		ion := ions[label]
		if ion.Charge == 0 || math.Signbit(ion.Charge) != math.Signbit(wantSign) {
			continue
		}
		mgL, _ := comp.Get(label)
		eq := math.Abs(ion.Equivalents(mgL))
		if eq > bestMagnitude {
			bestMagnitude = eq
			bestLabel = label
		}
	}
	if bestLabel == "" {
		return "", rerr.New(rerr.InvalidComposition, "no counter-ion of the required sign is present to absorb a charge imbalance")
	}

	ion := ions[bestLabel]
	mgL, _ := comp.Get(bestLabel)
	oldEq := ion.Equivalents(mgL)
	newEq := oldEq - sumEq
	newMgL := newEq * ion.MolarMass / ion.Charge
	if newMgL < 0 {
		return "", rerr.New(rerr.InvalidComposition, "auto-balancing %s would require a negative concentration", bestLabel)
	}
	comp.Set(bestLabel, newMgL)
	return bestLabel, nil
}
