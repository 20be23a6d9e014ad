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

// Package scaling implements the sustainable-recovery calculator (C4)
// and the pH-recovery optimizer (C5): bisection and golden-section
// searches layered over the PHREEQC chemistry evaluator in
// science/phreeqc.
package scaling

import "github.com/rotrain/rotrain/science/phreeqc"

// AntiscalantScenario names one of the three dosing scenarios the
// specification's §4.3 threshold table defines.
type AntiscalantScenario int

const (
	NoAntiscalant AntiscalantScenario = iota
	StandardAntiscalant
	HighPerformanceAntiscalant
)

func (s AntiscalantScenario) String() string {
	switch s {
	case NoAntiscalant:
		return "none"
	case StandardAntiscalant:
		return "standard"
	case HighPerformanceAntiscalant:
		return "high-performance"
	default:
		return "unknown"
	}
}

// Thresholds returns the per-mineral saturation-index ceiling for the
// scenario, keyed by the same mineral names as phreeqc.Minerals. These
// are the specification's representative numbers, documented as
// configuration data rather than algorithmic invariants - callers that
// have site-specific antiscalant performance data should build their
// own map instead of calling this function.
func (s AntiscalantScenario) Thresholds() map[string]float64 {
	switch s {
	case StandardAntiscalant:
		return map[string]float64{
			"calcite":          1.0,
			"gypsum":           1.2,
			"anhydrite":        1.2,
			"barite":           2.0,
			"celestite":        1.5,
			"fluorite":         1.2,
			"amorphous_silica": 1.0,
		}
	case HighPerformanceAntiscalant:
		return map[string]float64{
			"calcite":          1.5,
			"gypsum":           1.8,
			"anhydrite":        1.8,
			"barite":           2.5,
			"celestite":        1.8,
			"fluorite":         1.5,
			"amorphous_silica": 1.3,
		}
	default:
		t := make(map[string]float64, len(phreeqc.Minerals))
		for _, m := range phreeqc.Minerals {
			t[m] = 0
		}
		return t
	}
}
