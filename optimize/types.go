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

// Package optimize implements the configuration optimizer (C6):
// enumerating vessel counts per stage under flux and concentrate-flow
// constraints, solving the concentrate-recycle fixed point for
// recovery targets above the single-pass ceiling, and ranking every
// viable array against a sustainable-recovery reality check from
// science/scaling.
package optimize

// StageDesign is one stage of a Configuration: vessel count, area, and
// the flows/flux the search computed for it.
type StageDesign struct {
	Vessels            int
	ElementsPerVessel  int
	MembraneAreaM2     float64
	TargetFluxLMH      float64
	AchievedFluxLMH    float64
	FeedFlowM3h        float64
	PermeateFlowM3h    float64
	ConcentrateFlowM3h float64
	Recovery           float64 // permeate / feed, this stage only
}

// RecycleRecord describes the concentrate-recycle mixer when recovery
// above the single-pass ceiling requires routing final-stage
// concentrate back to the fresh feed.
type RecycleRecord struct {
	RecycleFlowM3h  float64
	RecycleRatio    float64 // fraction of final-stage concentrate recycled
	DisposalFlowM3h float64
	DisposalTDSMgL  float64
}

// Configuration is C6's output unit: an ordered stage array plus the
// system-level bookkeeping that keeps the recycle mixer's blended
// basis distinct from the external feed basis (§3, §9's historical bug
// class).
type Configuration struct {
	Stages []StageDesign

	// SystemFeedFlowM3h is always the external/fresh feed - never the
	// stage-1 (possibly recycle-blended) feed. Every downstream
	// consumer computing system recovery must use this field, not
	// Stages[0].FeedFlowM3h.
	SystemFeedFlowM3h float64
	// SystemRecovery is external permeate / SystemFeedFlowM3h.
	SystemRecovery float64

	Recycle *RecycleRecord // nil when no recycle is needed

	SustainableRMax     float64 // 0 if feed chemistry was not supplied
	HasSustainableCheck bool
	ExceedsSustainableR bool

	MetRecoveryTarget bool

	// Warnings attaches non-fatal conditions to an otherwise successful
	// configuration (§7's "warnings are attached... not raised"): a
	// vessel-count-explosion in one stage, or a caller-supplied flux
	// target that conflicts with the sustainable-recovery gate. A
	// configuration carrying warnings is still returned unchanged.
	Warnings []string
}

// TotalPermeateFlowM3h sums every stage's permeate flow - the external
// permeate delivered by the train, independent of how it is staged.
func (c Configuration) TotalPermeateFlowM3h() float64 {
	var total float64
	for _, s := range c.Stages {
		total += s.PermeateFlowM3h
	}
	return total
}

// FinalConcentrateFlowM3h returns the last stage's concentrate flow -
// the pre-split brine stream that the recycle mixer (if any) divides
// between disposal and recycle.
func (c Configuration) FinalConcentrateFlowM3h() float64 {
	if len(c.Stages) == 0 {
		return 0
	}
	return c.Stages[len(c.Stages)-1].ConcentrateFlowM3h
}
