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

package reference

// Membrane is a named element specification: water and per-ion salt
// permeability, geometry, and operating limits. A Membrane is looked up
// by name and is immutable for the duration of an operation.
type Membrane struct {
	Name string

	// Grade distinguishes cost-model treatment ("brackish" or
	// "seawater") in the economic model (C8).
	Grade string

	ElementAreaM2 float64 // active area per element, m^2

	// AwM_s_Pa is the water permeability A_w at 25C, m/s/Pa.
	AwM_s_Pa float64

	// BIon is the per-ion salt permeability B_i, m/s, at 25C. Ions not
	// listed here fall back to Ion.DefaultBScale times BDefault.
	BIon     map[string]float64
	BDefault float64

	MaxFeedPressurePa float64
	MaxTempC          float64

	SpacerHeightM  float64 // feed channel height, m
	SpacerDPCoeff  float64 // pressure-drop coefficient, Pa per (m/s)^2 per element
	MassTransferK0 float64 // Sherwood-correlation mass-transfer coefficient prefactor, m/s

	NominalFluxLMHMin float64
	NominalFluxLMHMax float64

	ElementsPerVessel int

	// DivalentChargeAmplification is the calibration constant applied to
	// divalent-ion rejection beyond the scalar solution-diffusion
	// prediction (C7 step 6). Per the specification's first open
	// question, this value is not derived from a formula; it lives in
	// the catalog.
	DivalentChargeAmplification float64
}

// BFor returns the salt permeability to use for the named ion with this
// membrane: the catalog value if present, otherwise the ion's default
// scale times the membrane's default B.
func (m Membrane) BFor(ion Ion) float64 {
	if b, ok := m.BIon[Normalize(ion.Label)]; ok {
		return b
	}
	return m.BDefault * ion.DefaultBScale
}

// Catalog is a read-only, name-keyed lookup table of Membranes.
type Catalog struct {
	membranes map[string]Membrane
}

// NewCatalog builds a Catalog from a slice of Membranes.
func NewCatalog(membranes []Membrane) *Catalog {
	c := &Catalog{membranes: make(map[string]Membrane, len(membranes))}
	for _, m := range membranes {
		c.membranes[m.Name] = m
	}
	return c
}

// Lookup returns the Membrane registered under name.
func (c *Catalog) Lookup(name string) (Membrane, bool) {
	m, ok := c.membranes[name]
	return m, ok
}

// Names returns every membrane model name in the catalog.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.membranes))
	for n := range c.membranes {
		out = append(out, n)
	}
	return out
}
