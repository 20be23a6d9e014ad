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

// Package reference is the ion and membrane reference lookup (component
// C1). It holds no behavior beyond normalization and lookup; the values
// themselves come from the bundled TOML catalogs in reference/data and
// are treated as data, not design, per the specification's scope.
package reference

import (
	"strings"
)

// Tag dispatches per-ion behavioral differences in the solution-diffusion
// model (C7) without runtime polymorphism, per the specification's
// design notes.
type Tag int

const (
	// TagCharged ions get the divalent charge-amplification correction.
	TagCharged Tag = iota
	// TagNeutral ions (e.g. boric acid, silica) use catalog rejection
	// directly.
	TagNeutral
	// TagWeakAcid ions dissociate with pH and are handled like TagNeutral
	// for rejection purposes but participate in pH titration (C5).
	TagWeakAcid
)

// Ion is a reference record for a single dissolved species: molecular
// weight, signed charge, Stokes radius, and bulk diffusivity, plus a
// default salt-permeability scaling factor used when a membrane's
// catalog entry does not list the ion explicitly.
type Ion struct {
	Label         string
	MolarMass     float64 // g/mol
	Charge        float64 // signed valence z
	StokesRadiusM float64 // m
	DiffusivityM2 float64 // m^2/s
	Tag           Tag
	DefaultBScale float64 // dimensionless, relative to a reference monovalent ion
}

// Equivalents returns the signed equivalents per liter for a
// concentration expressed in mg/L: eq = c * z / MW.
func (ion Ion) Equivalents(mgL float64) float64 {
	return mgL * ion.Charge / ion.MolarMass
}

// MolesPerLiter returns the molar concentration for a concentration
// expressed in mg/L.
func (ion Ion) MolesPerLiter(mgL float64) float64 {
	return mgL / 1000 / ion.MolarMass
}

// Registry is a read-only, normalized lookup table of Ions. Once built it
// may be shared across concurrent requests without locking, per the
// concurrency model in §5.
type Registry struct {
	ions map[string]Ion
}

// NewRegistry builds a Registry from a slice of Ions, normalizing each
// label as the canonical lookup key.
func NewRegistry(ions []Ion) *Registry {
	r := &Registry{ions: make(map[string]Ion, len(ions))}
	for _, ion := range ions {
		r.ions[Normalize(ion.Label)] = ion
	}
	return r
}

// Lookup returns the Ion registered under label, after normalization.
func (r *Registry) Lookup(label string) (Ion, bool) {
	ion, ok := r.ions[Normalize(label)]
	return ion, ok
}

// Len returns the number of ions in the registry.
func (r *Registry) Len() int { return len(r.ions) }

// Normalize canonicalizes an ion label for registry lookup: lowercased,
// with underscores removed, so that "Na_+", "na+", and "Na+" all resolve
// to the same entry. Per C2 step 1.
func Normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
