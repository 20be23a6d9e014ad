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

package phreeqc

import (
	"context"
	"testing"

	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
)

func testComposition() *reference.IonComposition {
	c := reference.NewIonComposition()
	c.Set("na+", 1000)
	c.Set("cl-", 1540)
	c.Set("ca2+", 200)
	c.Set("so4-2", 480)
	c.Set("hco3-", 150)
	return c
}

func TestFakeEngineScalesCompositionByCF(t *testing.T) {
	f := &FakeEngine{}
	in := Input{Composition: testComposition(), PH: 7.5, TempC: 25, CF: 2.0}
	res, err := f.Concentrate(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := res.Concentrated.Get("na+")
	if got != 2000 {
		t.Errorf("concentrated Na+ = %v, want 2000", got)
	}
}

func TestFakeEngineSIIncreasesWithCF(t *testing.T) {
	f := &FakeEngine{}
	comp := testComposition()
	low, err := f.Concentrate(context.Background(), Input{Composition: comp, PH: 7.5, TempC: 25, CF: 1.2})
	if err != nil {
		t.Fatal(err)
	}
	high, err := f.Concentrate(context.Background(), Input{Composition: comp, PH: 7.5, TempC: 25, CF: 3.0})
	if err != nil {
		t.Fatal(err)
	}
	if high.SI["gypsum"] <= low.SI["gypsum"] {
		t.Errorf("gypsum SI did not increase with CF: low=%v high=%v", low.SI["gypsum"], high.SI["gypsum"])
	}
	if high.SI["calcite"] <= low.SI["calcite"] {
		t.Errorf("calcite SI did not increase with CF: low=%v high=%v", low.SI["calcite"], high.SI["calcite"])
	}
}

func TestFakeEngineFailsAboveConfiguredCF(t *testing.T) {
	f := &FakeEngine{FailAbove: 2.0}
	_, err := f.Concentrate(context.Background(), Input{Composition: testComposition(), PH: 7.5, TempC: 25, CF: 2.5})
	if !rerr.Is(err, rerr.Chemistry) {
		t.Fatalf("expected rerr.Chemistry, got %v", err)
	}
}

func TestFakeEngineHonorsCancellation(t *testing.T) {
	f := &FakeEngine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Concentrate(ctx, Input{Composition: testComposition(), PH: 7.5, TempC: 25, CF: 1.5})
	if !rerr.Is(err, rerr.Cancelled) {
		t.Fatalf("expected rerr.Cancelled, got %v", err)
	}
}

func TestCachedEngineDeduplicatesRepeatedProbes(t *testing.T) {
	inner := &FakeEngine{}
	cached := NewCachedEngine(inner, 64)
	comp := testComposition()
	for i := 0; i < 5; i++ {
		if _, err := cached.Concentrate(context.Background(), Input{Composition: comp, PH: 7.5, TempC: 25, CF: 1.8}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.Calls != 1 {
		t.Errorf("inner engine called %d times for 5 identical probes, want 1", inner.Calls)
	}
	if _, err := cached.Concentrate(context.Background(), Input{Composition: comp, PH: 7.5, TempC: 25, CF: 2.2}); err != nil {
		t.Fatal(err)
	}
	if inner.Calls != 2 {
		t.Errorf("inner engine called %d times after a distinct probe, want 2", inner.Calls)
	}
}

func TestRateLimitedEngineDelegates(t *testing.T) {
	inner := &FakeEngine{}
	limited := NewRateLimitedEngine(inner, 1000, 10)
	_, err := limited.Concentrate(context.Background(), Input{Composition: testComposition(), PH: 7.5, TempC: 25, CF: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if inner.Calls != 1 {
		t.Errorf("inner engine called %d times, want 1", inner.Calls)
	}
}

func TestRetryingEnginePassesThroughNonTransientFailures(t *testing.T) {
	inner := &FakeEngine{FailAbove: 1.0}
	retrying := NewRetryingEngine(inner, 3)
	_, err := retrying.Concentrate(context.Background(), Input{Composition: testComposition(), PH: 7.5, TempC: 25, CF: 2.0})
	if !rerr.Is(err, rerr.Chemistry) {
		t.Fatalf("expected rerr.Chemistry to propagate without retry-masking, got %v", err)
	}
	if inner.Calls != 1 {
		t.Errorf("non-transient failure was retried %d times, want exactly 1 attempt", inner.Calls)
	}
}
