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
	"context"

	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/science/phreeqc"
)

// Request is C6's input contract (§4.5): everything the search needs
// to enumerate stage arrays for one feed flow and recovery target.
type Request struct {
	FeedFlowM3h   float64
	RecoveryTarget float64
	Membrane      reference.Membrane

	// FluxTargetsLMH defaults to [18, 15, 12] if nil; the last entry
	// repeats for any stage beyond the vector's length.
	FluxTargetsLMH []float64
	// FluxTolerance defaults to 0.10.
	FluxTolerance float64
	// MinConcentratePerVesselM3h defaults to 3.6 (inside the
	// 3.5-4.0 m3/h fouling-limit range for 8-inch vessels).
	MinConcentratePerVesselM3h float64

	AllowRecycle    bool
	MaxRecycleRatio float64 // defaults to 0.9

	// Feed chemistry for the sustainable-recovery reality check.
	// Optional: when Composition is nil, no sustainable-recovery check
	// is performed and every configuration's HasSustainableCheck is
	// false.
	Composition         *reference.IonComposition
	FeedTemperatureC    float64
	FeedPH              float64
	AntiscalantThresholds map[string]float64

	// Engine runs the sustainable-recovery gate's PHREEQC probes.
	// Required whenever Composition is set - callers construct it once
	// (a phreeqc.SubprocessEngine, typically wrapped with caching,
	// retry, and rate-limiting) and pass it down from the root package;
	// optimize never substitutes a fake or algebraic engine of its own.
	Engine phreeqc.Engine

	Context context.Context
}

func (r Request) fluxTargetsLMH() []float64 {
	if len(r.FluxTargetsLMH) > 0 {
		return r.FluxTargetsLMH
	}
	return []float64{18, 15, 12}
}

func (r Request) fluxTolerance() float64 {
	if r.FluxTolerance > 0 {
		return r.FluxTolerance
	}
	return 0.10
}

func (r Request) minConcentratePerVesselM3h() float64 {
	if r.MinConcentratePerVesselM3h > 0 {
		return r.MinConcentratePerVesselM3h
	}
	return 3.6
}

func (r Request) maxRecycleRatio() float64 {
	if r.MaxRecycleRatio > 0 {
		return r.MaxRecycleRatio
	}
	return 0.9
}

func (r Request) ctx() context.Context {
	if r.Context != nil {
		return r.Context
	}
	return context.Background()
}

// fluxTargetForStage returns the target flux for 0-indexed stage k,
// repeating the vector's last entry for stages beyond its length.
func fluxTargetForStage(targets []float64, k int) float64 {
	if k < len(targets) {
		return targets[k]
	}
	return targets[len(targets)-1]
}

// fluxFloor is the hard lower bound flux tolerance may never relax
// below, even when loosening is required to reach the recovery target.
const fluxFloor = 0.70

// vesselCountExplosionLimit triggers VesselCountExplosion if exceeded
// in a single stage.
const vesselCountExplosionLimit = 500
