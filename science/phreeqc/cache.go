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
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
)

// CachedEngine memoizes Concentrate calls keyed on (composition, CF, pH,
// T), exactly the way sr.Reader.Source memoizes repeated
// concentration lookups with a requestcache.Cache. The sustainable-
// recovery bisection (C4) and the pH golden-section search (C5) both
// probe the same handful of (CF, pH) pairs repeatedly across
// iterations, so this wrapper turns O(log 1/ε) PHREEQC subprocess
// spawns into far fewer in the common case where probes repeat.
type CachedEngine struct {
	inner Engine

	once  sync.Once
	cache *requestcache.Cache
}

// NewCachedEngine wraps inner with a memoizing layer of the given size
// (number of distinct evaluations retained in memory).
func NewCachedEngine(inner Engine, size int) *CachedEngine {
	return &CachedEngine{inner: inner, cache: requestcache.NewCache(
		func(ctx context.Context, request interface{}) (interface{}, error) {
			in := request.(Input)
			return inner.Concentrate(ctx, in)
		},
		runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(size),
	)}
}

func (c *CachedEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	key := cacheKey(in)
	req := c.cache.NewRequest(ctx, in, key)
	result, err := req.Result()
	if err != nil {
		return Result{}, err
	}
	return result.(Result), nil
}

// cacheKey builds a stable string key from the evaluation's composition
// and scalar inputs. Ion order is fixed by IonComposition's insertion
// order, so two compositions built the same way collide in the cache;
// compositions built in a different order are treated as distinct,
// which only costs an extra PHREEQC call, never correctness.
func cacheKey(in Input) string {
	key := fmt.Sprintf("cf=%.6f|ph=%.4f|t=%.3f", in.CF, in.PH, in.TempC)
	for _, label := range in.Composition.Labels() {
		mgL, _ := in.Composition.Get(label)
		key += fmt.Sprintf("|%s=%.6f", label, mgL)
	}
	return key
}
