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
	"math"

	"github.com/rotrain/rotrain/internal/deadline"
	"github.com/rotrain/rotrain/rerr"
)

const (
	// arrayPerPassRecovery is the per-pass recovery the 3-stage array
	// is sized to deliver on its recycle-blended feed while the recycle
	// fixed point runs; the recycle ratio then lifts system recovery
	// from this per-pass figure to the target. Recycle is only tried
	// once no no-recycle split meets the target (see Optimize).
	arrayPerPassRecovery = 0.80

	recycleRelaxation    = 0.5
	recycleMaxIterations = 50
	recycleConvergence   = 0.001 // 0.1% per §4.5
)

// solveRecycle implements §4.5's recycle fixed point for K=3: bisects
// the recycle fraction r in (0, maxRecycleRatio] to find the value
// whose resulting system recovery meets req.RecoveryTarget, running an
// inner fixed-point iteration (under-relaxation 0.5, 50-iteration
// budget, 0.1% convergence) to self-consistently solve the final-stage
// concentrate flow for each candidate r, since the effective
// (blended) feed depends on the concentrate flow that the array
// produces from that very feed.
func solveRecycle(req Request) (Configuration, bool, error) {
	rMax := req.maxRecycleRatio()

	feasibleAt := func(r float64) (Configuration, float64, bool, error) {
		cfg, qConcN, ok, err := fixedPointAtR(req, r)
		if err != nil {
			return Configuration{}, 0, false, err
		}
		if !ok {
			return Configuration{}, 0, false, nil
		}
		disposal := qConcN * (1 - r)
		systemRecovery := (req.FeedFlowM3h - disposal) / req.FeedFlowM3h
		return cfg, systemRecovery, true, nil
	}

	// The system recovery achieved is monotonically increasing in r
	// (more recycle -> less disposal -> higher recovery), so a
	// bisection on r converges to the smallest recycle ratio meeting
	// the target, minimizing energy spent re-processing brine.
	lo, hi := 1e-6, rMax
	cfgHi, recHi, okHi, err := feasibleAt(hi)
	if err != nil {
		return Configuration{}, false, err
	}
	if !okHi {
		return Configuration{}, false, nil
	}
	if recHi < req.RecoveryTarget {
		return Configuration{}, false, nil
	}
	cfgLo, recLo, okLo, err := feasibleAt(lo)
	if err != nil {
		return Configuration{}, false, err
	}
	if okLo && recLo >= req.RecoveryTarget {
		return finishRecycleConfig(req, cfgLo, lo), true, nil
	}

	best := cfgHi
	bestR := hi
	for i := 0; i < 40 && hi-lo > 0.001; i++ {
		if err := deadline.Check(req.ctx(), "recycle-ratio bisection"); err != nil {
			return Configuration{}, false, err
		}
		mid := (lo + hi) / 2
		cfg, rec, ok, err := feasibleAt(mid)
		if err != nil {
			return Configuration{}, false, err
		}
		if ok && rec >= req.RecoveryTarget {
			best = cfg
			bestR = mid
			hi = mid
		} else {
			lo = mid
		}
	}
	return finishRecycleConfig(req, best, bestR), true, nil
}

// fixedPointAtR runs the inner fixed-point loop for a fixed recycle
// ratio r: guess Q_conc_N, compute the blended effective feed,
// size the 3-stage array on it, update the guess with under-relaxation,
// and repeat until converged or the iteration budget is spent.
func fixedPointAtR(req Request, r float64) (Configuration, float64, bool, error) {
	qConcGuess := req.FeedFlowM3h * (1 - arrayPerPassRecovery)
	var cfg Configuration
	var ok bool
	for i := 0; i < recycleMaxIterations; i++ {
		if err := deadline.Check(req.ctx(), "recycle fixed-point iteration"); err != nil {
			return Configuration{}, 0, false, err
		}
		effectiveFeed := req.FeedFlowM3h + r*qConcGuess
		cfg, ok = evaluateSplitK(req, effectiveFeed, arrayPerPassRecovery, 3)
		if !ok {
			return Configuration{}, 0, false, nil
		}
		qConcActual := cfg.FinalConcentrateFlowM3h()
		delta := qConcActual - qConcGuess
		qConcNext := qConcGuess + recycleRelaxation*delta
		if qConcGuess != 0 && math.Abs(delta)/qConcGuess < recycleConvergence {
			return cfg, qConcNext, true, nil
		}
		qConcGuess = qConcNext
	}
	return cfg, qConcGuess, ok, nil
}

func finishRecycleConfig(req Request, cfg Configuration, r float64) Configuration {
	qConcN := cfg.FinalConcentrateFlowM3h()
	recycleFlow := r * qConcN
	disposalFlow := qConcN * (1 - r)

	cfg.SystemFeedFlowM3h = req.FeedFlowM3h
	cfg.SystemRecovery = (req.FeedFlowM3h - disposalFlow) / req.FeedFlowM3h
	cfg.MetRecoveryTarget = cfg.SystemRecovery >= req.RecoveryTarget-0.001
	cfg.Recycle = &RecycleRecord{
		RecycleFlowM3h:  recycleFlow,
		RecycleRatio:    r,
		DisposalFlowM3h: disposalFlow,
	}
	return cfg
}

// recycleError builds the NoFeasibleConfiguration failure for when even
// maximum recycle cannot reach the recovery target.
func recycleError(req Request) error {
	return rerr.New(rerr.NoFeasibleConfiguration,
		"no 3-stage configuration, including maximum recycle (ratio %.2f), reaches the recovery target of %.1f%%",
		req.maxRecycleRatio(), req.RecoveryTarget*100)
}
