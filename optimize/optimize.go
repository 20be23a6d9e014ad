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
	"fmt"
	"math"
	"sort"

	"github.com/rotrain/rotrain/rerr"
	"github.com/rotrain/rotrain/science/scaling"
)

// Optimize implements C6's contract: size one configuration per stage
// count 1-3 (the even-split sizing of stageCount, not every viable
// vessel split), falling back to the
// concentrate-recycle fixed point at K=3 when no no-recycle split
// reaches the recovery target and req.AllowRecycle is set, annotating
// every result with a sustainable-recovery reality check when feed
// chemistry was supplied.
func Optimize(req Request) ([]Configuration, error) {
	configs := stageCount(req)

	metTarget := false
	for _, c := range configs {
		if c.MetRecoveryTarget {
			metTarget = true
			break
		}
	}

	if !metTarget && req.AllowRecycle {
		cfg, ok, err := solveRecycle(req)
		if err != nil {
			return nil, err
		}
		if ok {
			configs = append(configs, cfg)
			metTarget = true
		}
	}

	if len(configs) == 0 {
		return nil, rerr.New(rerr.NoFeasibleConfiguration, "no configuration for any stage count 1-3 could be sized within flux tolerance and fouling limits")
	}
	if !metTarget {
		if req.AllowRecycle {
			return nil, recycleError(req)
		}
		return nil, rerr.New(rerr.NoFeasibleConfiguration,
			"no configuration reached the %.1f%% recovery target and recycle is not enabled", req.RecoveryTarget*100)
	}

	if req.Composition != nil {
		if err := annotateSustainableRecovery(req, configs); err != nil {
			return nil, err
		}
	}

	sortConfigurations(req, configs)
	return configs, nil
}

// annotateSustainableRecovery attaches C4's sustainable-recovery
// ceiling to every configuration as an advisory flag; a configuration
// above that ceiling is still returned (§4.5: "still returned but
// flagged"), never dropped.
//
// Composition being set but Engine being nil is a caller error, not an
// invitation to approximate: PHREEQC is the sole chemistry engine (§9),
// so this fails with rerr.Chemistry rather than substituting a fake or
// algebraic stand-in.
func annotateSustainableRecovery(req Request, configs []Configuration) error {
	if req.Engine == nil {
		return rerr.New(rerr.Chemistry, "feed composition was supplied but no PHREEQC engine is configured for the sustainable-recovery gate")
	}
	eng := req.Engine
	thresholds := req.AntiscalantThresholds
	if thresholds == nil {
		thresholds = scaling.NoAntiscalant.Thresholds()
	}
	ph := req.FeedPH
	if ph == 0 {
		ph = 7.5
	}

	rMax, err := scaling.SustainableRecovery(req.ctx(), eng, req.Composition, ph, req.FeedTemperatureC, thresholds)
	if err != nil {
		return err
	}
	for i := range configs {
		configs[i].SustainableRMax = rMax
		configs[i].HasSustainableCheck = true
		configs[i].ExceedsSustainableR = configs[i].SystemRecovery > rMax
		if configs[i].ExceedsSustainableR {
			// Second open question (§9): a caller-supplied flux target
			// that lands a configuration above the sustainable-recovery
			// ceiling is not rejected - it is returned unchanged with a
			// warning describing the conflict.
			configs[i].Warnings = append(configs[i].Warnings, fmt.Sprintf(
				"system recovery %.3f exceeds the sustainable-recovery ceiling %.3f computed from feed chemistry", configs[i].SystemRecovery, rMax))
		}
	}
	return nil
}

// sortConfigurations orders by stage count ascending, then by
// proximity of achieved to target recovery, per §4.5.
func sortConfigurations(req Request, configs []Configuration) {
	sort.SliceStable(configs, func(i, j int) bool {
		ki, kj := len(configs[i].Stages), len(configs[j].Stages)
		if ki != kj {
			return ki < kj
		}
		di := math.Abs(configs[i].SystemRecovery - req.RecoveryTarget)
		dj := math.Abs(configs[j].SystemRecovery - req.RecoveryTarget)
		return di < dj
	})
}
