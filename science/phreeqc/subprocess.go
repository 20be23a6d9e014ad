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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rotrain/rotrain/rerr"
)

// SubprocessEngine runs a real iphreeqc (or phreeqc classic) binary per
// evaluation. It never reuses a process across calls - a fresh input
// deck, a fresh subprocess, a fresh output parse, every time, matching
// the specification's §5 "PHREEQC sessions are never shared" rule.
type SubprocessEngine struct {
	// BinaryPath is the path to the phreeqc executable. Defaults to
	// "phreeqc" (resolved on PATH) if empty.
	BinaryPath string
	// DatabasePath is the .dat thermodynamic database passed to PHREEQC.
	DatabasePath string
	// WorkDir is used for scratch input/output files; defaults to os.TempDir().
	WorkDir string
	// Log receives one entry per subprocess invocation. Defaults to
	// logrus.StandardLogger() if nil, mirroring the teacher's boundary-layer
	// logging convention (core numeric code stays log-free; the external
	// subprocess wrapper logs).
	Log *logrus.Logger
}

func (e *SubprocessEngine) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e *SubprocessEngine) binary() string {
	if e.BinaryPath != "" {
		return e.BinaryPath
	}
	return "phreeqc"
}

func (e *SubprocessEngine) workDir() string {
	if e.WorkDir != "" {
		return e.WorkDir
	}
	return os.TempDir()
}

// Concentrate implements Engine by writing a PHREEQC input deck, running
// the binary against it, and parsing the SELECTED_OUTPUT punch file it
// produces.
func (e *SubprocessEngine) Concentrate(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, rerr.Wrap(rerr.Cancelled, err, "phreeqc: evaluation cancelled before start")
	}

	deck := buildInputDeck(in)

	dir := e.workDir()
	inFile, err := os.CreateTemp(dir, "rotrain-phreeqc-*.pqi")
	if err != nil {
		return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: creating scratch input file")
	}
	defer os.Remove(inFile.Name())
	outPath := inFile.Name() + ".out"
	punchPath := inFile.Name() + ".sel"
	defer os.Remove(outPath)
	defer os.Remove(punchPath)

	if _, err := inFile.WriteString(deck); err != nil {
		inFile.Close()
		return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: writing scratch input file")
	}
	inFile.Close()

	args := []string{inFile.Name(), outPath}
	if e.DatabasePath != "" {
		args = append(args, e.DatabasePath)
	}

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Dir = filepath.Dir(inFile.Name())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log := e.logger().WithFields(logrus.Fields{
		"cf":    in.CF,
		"ph":    in.PH,
		"tempC": in.TempC,
	})
	log.Debug("phreeqc: starting subprocess")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, rerr.Wrap(rerr.Cancelled, ctx.Err(), "phreeqc: evaluation cancelled")
		}
		log.WithError(err).WithField("stderr", stderr.String()).Warn("phreeqc: subprocess failed")
		return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: subprocess exited with error: %s", stderr.String())
	}

	punch, err := os.ReadFile(punchPath)
	if err != nil {
		return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: selected-output file was not produced, run did not converge")
	}
	res, err := parseSelectedOutput(string(punch), in)
	if err != nil {
		return Result{}, rerr.Wrap(rerr.Chemistry, err, "phreeqc: parsing selected output")
	}
	log.Debug("phreeqc: subprocess completed")
	return res, nil
}

// buildInputDeck assembles a SOLUTION block from the feed composition and
// a REACTION block that removes pure water to reach the target
// concentration factor, per C3's algorithm: removed mol water = initial
// water mol * (1 - 1/CF).
func buildInputDeck(in Input) string {
	var b strings.Builder
	b.WriteString("SOLUTION 1\n")
	b.WriteString(fmt.Sprintf("    temp %.2f\n", in.TempC))
	b.WriteString(fmt.Sprintf("    pH %.3f\n", in.PH))
	b.WriteString("    units mg/l\n")
	for _, label := range in.Composition.Labels() {
		mgL, _ := in.Composition.Get(label)
		b.WriteString(fmt.Sprintf("    %s %.6f\n", phreeqcSpeciesName(label), mgL))
	}
	b.WriteString("END\n")

	if in.CF > 1 {
		// Removing a fraction of the solvent water concentrates every
		// solute by CF without altering the database's equilibrium
		// chemistry - this is the approach the contract in §4.2 specifies.
		const initialWaterMol = 55.5087 // mol H2O per kg of dilute solution
		removedMol := initialWaterMol * (1 - 1/in.CF)
		b.WriteString("REACTION 1\n")
		b.WriteString("    H2O -1\n")
		b.WriteString(fmt.Sprintf("    %.6f moles\n", removedMol))
		b.WriteString("END\n")
	}

	b.WriteString("SELECTED_OUTPUT\n")
	b.WriteString("    -file rotrain.sel\n")
	b.WriteString("    -pH true\n")
	b.WriteString("    -totals C\n")
	for _, m := range Minerals {
		b.WriteString(fmt.Sprintf("    -saturation_indices %s\n", m))
	}
	b.WriteString("USER_PUNCH\n")
	b.WriteString("END\n")
	return b.String()
}

// phreeqcSpeciesName maps a normalized ion label (e.g. "so4-2") to the
// species name PHREEQC's default database expects (e.g. "S(6)" style
// totals are avoided in favor of PHREEQC's master-species shorthand).
func phreeqcSpeciesName(label string) string {
	switch label {
	case "hco3-":
		return "Alkalinity as HCO3"
	case "co3-2":
		return "Alkalinity as CO3"
	default:
		return strings.ToUpper(label[:1]) + label[1:]
	}
}

// parseSelectedOutput extracts pH, total CO2, and per-mineral saturation
// indices from a PHREEQC SELECTED_OUTPUT punch file (tab-separated,
// header row first). The concentrated composition is reconstructed by
// scaling the input composition by CF, since PHREEQC's own totals report
// in molality rather than the caller's mg/L basis.
func parseSelectedOutput(punch string, in Input) (Result, error) {
	lines := strings.Split(strings.TrimSpace(punch), "\n")
	if len(lines) < 2 {
		return Result{}, fmt.Errorf("empty selected-output punch file")
	}
	header := strings.Split(lines[0], "\t")
	last := strings.Split(lines[len(lines)-1], "\t")
	if len(header) != len(last) {
		return Result{}, fmt.Errorf("selected-output header/row column count mismatch (%d vs %d)", len(header), len(last))
	}

	col := make(map[string]string, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = strings.TrimSpace(last[i])
	}

	ph, err := strconv.ParseFloat(col["pH"], 64)
	if err != nil {
		return Result{}, fmt.Errorf("parsing pH column: %w", err)
	}
	co2, _ := strconv.ParseFloat(col["C(4)"], 64)

	si := make(map[string]float64, len(Minerals))
	for _, m := range Minerals {
		v, err := strconv.ParseFloat(col["si_"+m], 64)
		if err != nil {
			return Result{}, fmt.Errorf("parsing saturation index for %s: %w", m, err)
		}
		si[m] = v
	}

	return Result{
		Concentrated: in.Composition.Scale(in.CF),
		PH:           ph,
		CO2MgL:       co2 * 44010, // mol/kgw C(4) total -> mg/L as CO2, approx at dilute density
		SI:           si,
	}, nil
}
