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

// Package phreeqc implements the scaling/chemistry evaluator (component
// C3): concentrating a validated feed by a recovery factor using a
// PHREEQC REACTION simulation and extracting equilibrium pH and
// saturation indices. PHREEQC is the sole chemistry engine; per the
// specification's design notes there is no algebraic fallback anywhere
// in this package - a failed run is an *rerr.Error{Kind: rerr.Chemistry},
// never an approximation.
package phreeqc

import (
	"context"

	"github.com/rotrain/rotrain/reference"
)

// Minerals is the fixed target mineral set scored by every evaluation.
var Minerals = []string{
	"calcite", "gypsum", "anhydrite", "barite", "celestite", "fluorite", "amorphous_silica",
}

// Result bundles the output of one PHREEQC evaluation: the concentrated
// ion map, equilibrium pH, remaining dissolved CO2 (mg/L as CO2), and a
// saturation index per mineral in Minerals.
type Result struct {
	Concentrated *reference.IonComposition
	PH           float64
	CO2MgL       float64
	SI           map[string]float64 // keyed by Minerals entries
}

// Input is the state handed to Engine.Concentrate: a validated
// composition, the feed's pH and temperature, and the target
// concentration factor CF = 1/(1-R).
type Input struct {
	Composition *reference.IonComposition
	PH          float64
	TempC       float64
	CF          float64
}

// Engine runs a PHREEQC solution+REACTION pass. Implementations are
// per-request - PHREEQC sessions are never shared across requests, per
// §5 of the specification. The production implementations are
// SubprocessEngine (local binary) and RemoteEngine (net/rpc worker);
// FakeEngine exists solely for tests, exactly as
// cloud.fakerunner stands in for a real cluster runner in the teacher
// repo's test suite.
type Engine interface {
	Concentrate(ctx context.Context, in Input) (Result, error)
}
