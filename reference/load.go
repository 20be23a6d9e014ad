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

import (
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed data/ions.toml data/membranes.toml
var dataFS embed.FS

type ionFile struct {
	Ion []struct {
		Label          string  `toml:"label"`
		MolarMass      float64 `toml:"molar_mass"`
		Charge         float64 `toml:"charge"`
		StokesRadiusM  float64 `toml:"stokes_radius_m"`
		DiffusivityM2  float64 `toml:"diffusivity_m2"`
		Tag            string  `toml:"tag"`
		DefaultBScale  float64 `toml:"default_b_scale"`
	} `toml:"ion"`
}

type membraneFile struct {
	Membrane []struct {
		Name                         string             `toml:"name"`
		Grade                        string             `toml:"grade"`
		ElementAreaM2                float64            `toml:"element_area_m2"`
		AwM_s_Pa                     float64            `toml:"a_w_m_s_pa"`
		BDefault                     float64            `toml:"b_default"`
		BIon                         map[string]float64 `toml:"b_ion"`
		MaxFeedPressurePa            float64            `toml:"max_feed_pressure_pa"`
		MaxTempC                     float64            `toml:"max_temp_c"`
		SpacerHeightM                float64            `toml:"spacer_height_m"`
		SpacerDPCoeff                float64            `toml:"spacer_dp_coeff"`
		MassTransferK0               float64            `toml:"mass_transfer_k0"`
		NominalFluxLMHMin            float64            `toml:"nominal_flux_lmh_min"`
		NominalFluxLMHMax            float64            `toml:"nominal_flux_lmh_max"`
		ElementsPerVessel            int                `toml:"elements_per_vessel"`
		DivalentChargeAmplification float64            `toml:"divalent_charge_amplification"`
	} `toml:"membrane"`
}

func tagFromString(s string) Tag {
	switch s {
	case "neutral":
		return TagNeutral
	case "weak_acid":
		return TagWeakAcid
	default:
		return TagCharged
	}
}

// LoadDefaultRegistry parses the bundled ion reference catalog.
func LoadDefaultRegistry() (*Registry, error) {
	b, err := dataFS.ReadFile("data/ions.toml")
	if err != nil {
		return nil, fmt.Errorf("reference: reading ion catalog: %w", err)
	}
	var f ionFile
	if _, err := toml.Decode(string(b), &f); err != nil {
		return nil, fmt.Errorf("reference: decoding ion catalog: %w", err)
	}
	ions := make([]Ion, 0, len(f.Ion))
	for _, rec := range f.Ion {
		ions = append(ions, Ion{
			Label:         rec.Label,
			MolarMass:     rec.MolarMass,
			Charge:        rec.Charge,
			StokesRadiusM: rec.StokesRadiusM,
			DiffusivityM2: rec.DiffusivityM2,
			Tag:           tagFromString(rec.Tag),
			DefaultBScale: rec.DefaultBScale,
		})
	}
	return NewRegistry(ions), nil
}

// LoadDefaultCatalog parses the bundled membrane catalog.
func LoadDefaultCatalog() (*Catalog, error) {
	b, err := dataFS.ReadFile("data/membranes.toml")
	if err != nil {
		return nil, fmt.Errorf("reference: reading membrane catalog: %w", err)
	}
	var f membraneFile
	if _, err := toml.Decode(string(b), &f); err != nil {
		return nil, fmt.Errorf("reference: decoding membrane catalog: %w", err)
	}
	membranes := make([]Membrane, 0, len(f.Membrane))
	for _, rec := range f.Membrane {
		membranes = append(membranes, Membrane{
			Name:                         rec.Name,
			Grade:                        rec.Grade,
			ElementAreaM2:                rec.ElementAreaM2,
			AwM_s_Pa:                     rec.AwM_s_Pa,
			BIon:                         rec.BIon,
			BDefault:                     rec.BDefault,
			MaxFeedPressurePa:            rec.MaxFeedPressurePa,
			MaxTempC:                     rec.MaxTempC,
			SpacerHeightM:                rec.SpacerHeightM,
			SpacerDPCoeff:                rec.SpacerDPCoeff,
			MassTransferK0:               rec.MassTransferK0,
			NominalFluxLMHMin:            rec.NominalFluxLMHMin,
			NominalFluxLMHMax:            rec.NominalFluxLMHMax,
			ElementsPerVessel:            rec.ElementsPerVessel,
			DivalentChargeAmplification: rec.DivalentChargeAmplification,
		})
	}
	return NewCatalog(membranes), nil
}
