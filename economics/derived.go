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
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// defaultFunctions are the expression-language helpers every derived
// metric may call, mirroring inmap.Outputter's govaluate default
// function set ("exp", "log") at the bid-report boundary.
func defaultFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"exp": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("economics: exp takes 1 argument, got %d", len(args))
			}
			return math.Exp(args[0].(float64)), nil
		},
		"log": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("economics: log takes 1 argument, got %d", len(args))
			}
			return math.Log(args[0].(float64)), nil
		},
	}
}

// variables flattens a Result into the name set a derived-metric
// expression may reference.
func (r Result) variables() map[string]interface{} {
	return map[string]interface{}{
		"CapitalTotal":       r.Capital.TotalCapitalUSD,
		"CapitalDirect":      r.Capital.DirectCapitalUSD,
		"CapitalIndirect":    r.Capital.IndirectCapitalUSD,
		"OpexTotal":          r.Operating.TotalOpexUSDPerYr,
		"OpexElectricity":    r.Operating.ElectricityUSDPerYr,
		"OpexMembrane":       r.Operating.MembraneReplacementUSDPerYr,
		"OpexChemicals":      r.Operating.AntiscalantUSDPerYr + r.Operating.CIPChemicalsUSDPerYr,
		"OpexFixedOM":        r.Operating.FixedOMUSDPerYr,
		"LCOW":               r.LCOW.TotalUSDPerM3,
		"LCOWCapitalRecovery": r.LCOW.CapitalRecoveryUSDPerM3,
		"CRF":                r.CapitalRecoveryFactor,
		"AnnualPermeateM3":   r.AnnualPermeateM3,
	}
}

// DerivedMetrics evaluates a caller-supplied set of named expressions
// over a Result's fields - e.g. `{"cost_per_kgal": "LCOW * 3.78541"}` -
// mirroring sr.Reader.Output's use of
// govaluate.NewEvaluableExpressionWithFunctions over model output
// variables. An unknown field name or a malformed expression fails
// that single named metric rather than the whole batch, the same
// "evaluate expressions independently" stance the teacher's Outputter
// takes over per-variable output expressions.
func DerivedMetrics(r Result, exprs map[string]string) (map[string]float64, error) {
	vars := r.variables()
	funcs := defaultFunctions()
	out := make(map[string]float64, len(exprs))
	for name, expr := range exprs {
		evaluated, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("economics: derived metric %q: %w", name, err)
		}
		result, err := evaluated.Evaluate(vars)
		if err != nil {
			return nil, fmt.Errorf("economics: derived metric %q: %w", name, err)
		}
		v, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("economics: derived metric %q did not evaluate to a number", name)
		}
		out[name] = v
	}
	return out, nil
}
