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
	"net"
	"net/http"
	"net/rpc"

	"github.com/rotrain/rotrain/reference"
	"github.com/rotrain/rotrain/rerr"
)

// compositionToWire and compositionFromWire convert between
// *reference.IonComposition and the parallel-slice form net/rpc's gob
// wire encoding carries, since IonComposition's internal fields are
// unexported and therefore invisible to gob.
func compositionToWire(c *reference.IonComposition) (labels []string, mgL []float64) {
	labels = c.Labels()
	mgL = make([]float64, len(labels))
	for i, l := range labels {
		mgL[i], _ = c.Get(l)
	}
	return labels, mgL
}

func compositionFromWire(labels []string, mgL []float64) *reference.IonComposition {
	c := reference.NewIonComposition()
	for i, l := range labels {
		c.Set(l, mgL[i])
	}
	return c
}

// RemoteWorker exposes a SubprocessEngine over net/rpc, the same
// mechanism the teacher repo uses to distribute simulation work to a
// cluster of workers (sr.Cluster / sr.Worker in sr/rpc.go and
// sr/distributed.go) rather than a code-generated RPC framework: this
// codebase has no protoc-generated stubs to build on, and net/rpc is
// the idiom the teacher itself reaches for when it needs to hand work
// to a separate process.
type RemoteWorker struct {
	Engine *SubprocessEngine
}

// ConcentrateArgs and ConcentrateReply are the net/rpc wire types;
// RemoteWorker.Concentrate is exported to satisfy net/rpc's calling
// convention (method(Args, *Reply) error).
type ConcentrateArgs struct {
	CompositionLabels []string
	CompositionMgL    []float64
	PH                float64
	TempC             float64
	CF                float64
}

type ConcentrateReply struct {
	ConcentratedLabels []string
	ConcentratedMgL    []float64
	PH                 float64
	CO2MgL             float64
	SI                 map[string]float64
}

// Concentrate is the RPC-exported entry point called by RemoteEngine.
func (w *RemoteWorker) Concentrate(args ConcentrateArgs, reply *ConcentrateReply) error {
	comp := compositionFromWire(args.CompositionLabels, args.CompositionMgL)
	result, err := w.Engine.Concentrate(context.Background(), Input{
		Composition: comp,
		PH:          args.PH,
		TempC:       args.TempC,
		CF:          args.CF,
	})
	if err != nil {
		return err
	}
	reply.ConcentratedLabels, reply.ConcentratedMgL = compositionToWire(result.Concentrated)
	reply.PH = result.PH
	reply.CO2MgL = result.CO2MgL
	reply.SI = result.SI
	return nil
}

// ServeRemoteWorker registers worker under the net/rpc default server
// and serves it over HTTP on addr, blocking until the listener fails.
// It is the direct counterpart of sr.Cluster's worker-side setup in
// sr/distributed.go.
func ServeRemoteWorker(addr string, worker *RemoteWorker) error {
	server := rpc.NewServer()
	if err := server.RegisterName("RemoteWorker", worker); err != nil {
		return fmt.Errorf("phreeqc: registering RPC worker: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("phreeqc: listening on %s: %w", addr, err)
	}
	return http.Serve(listener, mux)
}

// RemoteEngine dispatches Concentrate calls to a RemoteWorker over
// net/rpc, for installations that want to run PHREEQC on separate
// machines from the optimizer/simulator core - the same separation of
// concerns as sr.Cluster.NewWorker dialing out to an SSH-spawned slave.
type RemoteEngine struct {
	client *rpc.Client
}

// DialRemoteEngine connects to a RemoteWorker listening at addr.
func DialRemoteEngine(addr string) (*RemoteEngine, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("phreeqc: dialing remote worker at %s: %w", addr, err)
	}
	return &RemoteEngine{client: client}, nil
}

func (e *RemoteEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	labels, mgL := compositionToWire(in.Composition)
	args := ConcentrateArgs{
		CompositionLabels: labels,
		CompositionMgL:    mgL,
		PH:                in.PH,
		TempC:             in.TempC,
		CF:                in.CF,
	}
	var reply ConcentrateReply

	done := make(chan error, 1)
	call := e.client.Go("RemoteWorker.Concentrate", args, &reply, nil)
	go func() { done <- (<-call.Done).Error }()

	select {
	case <-ctx.Done():
		return Result{}, rerr.Wrap(rerr.Cancelled, ctx.Err(), "phreeqc: remote evaluation cancelled")
	case err := <-done:
		if err != nil {
			return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: remote worker call failed")
		}
	}

	return Result{
		Concentrated: compositionFromWire(reply.ConcentratedLabels, reply.ConcentratedMgL),
		PH:           reply.PH,
		CO2MgL:       reply.CO2MgL,
		SI:           reply.SI,
	}, nil
}

// Close releases the underlying RPC connection.
func (e *RemoteEngine) Close() error {
	return e.client.Close()
}
