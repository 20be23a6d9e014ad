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

import "github.com/ctessum/unit"

// Dimension-checked constructors for the human-scale units catalogs and
// reports are expressed in, following the same pattern as
// github.com/ctessum/unit/badunit. Internal arithmetic in science/*,
// optimize, and simulate stays in plain SI float64 (m^3/s, Pa, K) for
// loop performance; these helpers exist at the boundary where a human
// or a config file hands rotrain a quantity in bar, LMH, or m^3/h.

// CubicMeterPerHour creates a volumetric flow unit.Unit from a value in
// m^3/h.
func CubicMeterPerHour(v float64) *unit.Unit {
	return unit.New(v/3600, unit.Meter3PerSecond)
}

// Bar creates a pressure unit.Unit from a value in bar.
func Bar(v float64) *unit.Unit {
	return unit.New(v*1e5, unit.Pascal)
}

// LMH creates a flux unit.Unit (as a velocity) from a value in liters
// per square meter per hour.
func LMH(v float64) *unit.Unit {
	return unit.New(v/1000/3600, unit.MeterPerSecond)
}

// CelsiusToKelvin converts a Celsius temperature to an absolute
// temperature unit.Unit.
func CelsiusToKelvin(c float64) *unit.Unit {
	return unit.New(c+273.15, unit.Kelvin)
}

// M3hFromSI converts a plain SI m^3/s float back to m^3/h for reporting.
func M3hFromSI(m3s float64) float64 { return m3s * 3600 }

// BarFromPa converts a plain SI Pa float back to bar for reporting.
func BarFromPa(pa float64) float64 { return pa / 1e5 }

// LMHFromSI converts a plain SI m/s flux back to LMH for reporting.
func LMHFromSI(mps float64) float64 { return mps * 1000 * 3600 }
