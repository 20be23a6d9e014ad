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

// IonComposition is an ordered mapping from normalized ion label to
// concentration in mg/L. The order is insertion order, preserved so that
// two compositions built from the same input iterate identically -
// relied on by chemistry.Validate's charge-balance adjustment and by any
// code printing a composition for a report.
//
// Once constructed (by chemistry.Validate or Clone) a composition is
// expected to be treated as immutable; Set is provided for the
// construction phase and for the "concentrated derivative" C3 produces,
// never for in-place mutation of a composition already handed to another
// component.
type IonComposition struct {
	order []string
	mgL   map[string]float64
}

// NewIonComposition returns an empty composition.
func NewIonComposition() *IonComposition {
	return &IonComposition{mgL: make(map[string]float64)}
}

// Set records the concentration (mg/L) of label, appending it to the
// iteration order the first time it is seen.
func (c *IonComposition) Set(label string, mgL float64) {
	key := Normalize(label)
	if _, ok := c.mgL[key]; !ok {
		c.order = append(c.order, key)
	}
	c.mgL[key] = mgL
}

// Get returns the concentration (mg/L) of label, or (0, false) if absent.
func (c *IonComposition) Get(label string) (float64, bool) {
	v, ok := c.mgL[Normalize(label)]
	return v, ok
}

// Labels returns the normalized ion labels in insertion order.
func (c *IonComposition) Labels() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of ions present.
func (c *IonComposition) Len() int { return len(c.order) }

// TDS returns the sum of all concentrations (mg/L), i.e. the composition's
// implied total dissolved solids.
func (c *IonComposition) TDS() float64 {
	var sum float64
	for _, k := range c.order {
		sum += c.mgL[k]
	}
	return sum
}

// Clone returns an independent deep copy.
func (c *IonComposition) Clone() *IonComposition {
	out := &IonComposition{
		order: append([]string(nil), c.order...),
		mgL:   make(map[string]float64, len(c.mgL)),
	}
	for k, v := range c.mgL {
		out.mgL[k] = v
	}
	return out
}

// Scale returns a new composition with every concentration multiplied by
// factor - the building block for C3's concentration-factor pass and for
// the round-trip law in §8 ("dilute by the mass-balance inverse").
func (c *IonComposition) Scale(factor float64) *IonComposition {
	out := c.Clone()
	for _, k := range out.order {
		out.mgL[k] *= factor
	}
	return out
}
