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
	"errors"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rotrain/rotrain/rerr"
)

// isTransientIOError reports whether err is a subprocess-launch failure
// worth retrying: an *exec.Error anywhere in its chain (the executable
// could not be resolved or started). Every other error, including
// PHREEQC itself refusing to converge and scratch-file I/O errors,
// propagates immediately with no retry and no algebraic fallback (§4.2).
func isTransientIOError(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

// RetryingEngine retries a transient subprocess I/O failure (the
// process failing to start, not a non-convergent PHREEQC run) using an
// exponential backoff, mirroring sr.SR.Run's use of
// backoff.RetryNotify around job submission.
type RetryingEngine struct {
	inner      Engine
	maxRetries uint64
	log        *logrus.Logger
}

// NewRetryingEngine wraps inner, retrying up to maxRetries times on a
// transient I/O failure only.
func NewRetryingEngine(inner Engine, maxRetries uint64) *RetryingEngine {
	return &RetryingEngine{inner: inner, maxRetries: maxRetries, log: logrus.StandardLogger()}
}

func (e *RetryingEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	var result Result
	op := func() error {
		var err error
		result, err = e.inner.Concentrate(ctx, in)
		if err != nil && isTransientIOError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxRetries)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		e.log.Warnf("phreeqc: retrying after transient failure in %v: %v", d, err)
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// RateLimitedEngine limits the rate at which evaluations start through
// this engine with a token bucket, since each is an external OS process
// and an unbounded optimize-then-simulate flow can otherwise fork dozens
// of them in quick succession (§5). It does not bound how many run at
// once, and each RateLimitedEngine value has its own limiter.
type RateLimitedEngine struct {
	inner   Engine
	limiter *rate.Limiter
}

// NewRateLimitedEngine wraps inner so that no more than burst
// concentrate evaluations start within any window implied by
// evalsPerSecond.
func NewRateLimitedEngine(inner Engine, evalsPerSecond float64, burst int) *RateLimitedEngine {
	return &RateLimitedEngine{inner: inner, limiter: rate.NewLimiter(rate.Limit(evalsPerSecond), burst)}
}

func (e *RateLimitedEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{}, rerr.Wrap(rerr.Cancelled, err, "phreeqc: rate limiter wait cancelled")
	}
	return e.inner.Concentrate(ctx, in)
}
