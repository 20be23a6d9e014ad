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

package chemistry

import (
	"testing"

	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
)

func testRegistry(t *testing.T) *reference.Registry {
	t.Helper()
	reg, err := reference.LoadDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestValidateBalancedComposition(t *testing.T) {
	reg := testRegistry(t)
	raw := map[string]float64{"Na+": 1200, "Cl-": 1800}
	res, err := Validate(reg, raw, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if res.BalancedIonLabel != "" {
		t.Errorf("expected no balancing needed, got adjustment to %s", res.BalancedIonLabel)
	}
	if res.ReconciledTDSMgL != 3000 {
		t.Errorf("ReconciledTDSMgL = %v, want 3000", res.ReconciledTDSMgL)
	}
}

func TestValidateAutoBalances(t *testing.T) {
	reg := testRegistry(t)
	// Excess chloride relative to sodium leaves a net-negative residual;
	// the dominant ion of opposite (positive) sign absorbs it.
	raw := map[string]float64{"Na+": 1000, "Cl-": 2000}
	res, err := Validate(reg, raw, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.BalancedIonLabel != "na+" {
		t.Errorf("BalancedIonLabel = %q, want na+", res.BalancedIonLabel)
	}
	if res.ResidualFraction > 0.001 {
		t.Errorf("residual after balancing = %v, want ~0", res.ResidualFraction)
	}
}

func TestValidateRejectsNegative(t *testing.T) {
	reg := testRegistry(t)
	_, err := Validate(reg, map[string]float64{"Na+": -1}, 0)
	if !rerr.Is(err, rerr.InvalidComposition) {
		t.Fatalf("expected InvalidComposition, got %v", err)
	}
}

func TestValidateRejectsUnknownIon(t *testing.T) {
	reg := testRegistry(t)
	_, err := Validate(reg, map[string]float64{"Zz+": 5}, 0)
	if !rerr.Is(err, rerr.InvalidComposition) {
		t.Fatalf("expected InvalidComposition, got %v", err)
	}
}

func TestValidateRejectsUnreconcilableTDS(t *testing.T) {
	reg := testRegistry(t)
	_, err := Validate(reg, map[string]float64{"Na+": 1200, "Cl-": 1800}, 10000)
	if !rerr.Is(err, rerr.InvalidComposition) {
		t.Fatalf("expected InvalidComposition for bad TDS, got %v", err)
	}
}

func TestValidateCaRichScalingFeed(t *testing.T) {
	reg := testRegistry(t)
	raw := map[string]float64{"Ca2+": 400, "SO4-2": 1000, "HCO3-": 300}
	res, err := Validate(reg, raw, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Composition.Len() != 3 {
		t.Errorf("composition has %d ions, want 3", res.Composition.Len())
	}
}
