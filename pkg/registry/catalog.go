package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hepascope/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// MetricSpec declares how one canonical metric is recognized and normalized:
// the synonyms that resolve to it, the unit the platform stores it in, unit
// spellings equivalent to the canonical unit, and linear conversion factors
// for accepted foreign units.
type MetricSpec struct {
	Display       string             `yaml:"display" json:"display"`
	CanonicalUnit string             `yaml:"canonical_unit" json:"canonical_unit"`
	Synonyms      []string           `yaml:"synonyms" json:"synonyms"`
	UnitAliases   []string           `yaml:"unit_aliases" json:"unit_aliases"`
	Conversions   map[string]float64 `yaml:"conversions" json:"conversions"`
}

type Catalog struct {
	Metrics map[models.CanonicalMetric]MetricSpec `yaml:"metrics" json:"metrics"`
}

// Load reads a catalog override from disk. An empty path means the built-in
// catalog, same contract as the terminology loaders elsewhere in the
// platform. The returned registry is never nil: every failure path falls
// back to the built-in catalog alongside the error, so callers that
// warn-and-continue still hold a usable vocabulary.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Default(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Default(), err
	}
	if len(cat.Metrics) == 0 {
		return Default(), fmt.Errorf("metric catalog empty")
	}
	return New(cat), nil
}

// Default returns the registry built from the fixed clinical vocabulary.
func Default() *Registry {
	return New(DefaultCatalog())
}

// Clinical chemistry molar conversion factors. Bilirubin has a molar mass of
// 584.66 g/mol (17.1 µmol/L per mg/dL); creatinine 113.12 g/mol (88.4 µmol/L
// per mg/dL).
const (
	bilirubinUmolPerMgdl  = 17.1
	creatinineUmolPerMgdl = 88.4
)

func DefaultCatalog() Catalog {
	return Catalog{Metrics: map[models.CanonicalMetric]MetricSpec{
		models.MetricALT: {
			Display:       "Alanine Aminotransferase",
			CanonicalUnit: "U/L",
			Synonyms:      []string{"alt", "sgpt", "alanine aminotransferase", "alanine transaminase", "alt (sgpt)"},
			UnitAliases:   []string{"iu/l"},
		},
		models.MetricAST: {
			Display:       "Aspartate Aminotransferase",
			CanonicalUnit: "U/L",
			Synonyms:      []string{"ast", "sgot", "aspartate aminotransferase", "aspartate transaminase", "ast (sgot)"},
			UnitAliases:   []string{"iu/l"},
		},
		models.MetricALP: {
			Display:       "Alkaline Phosphatase",
			CanonicalUnit: "U/L",
			Synonyms:      []string{"alp", "alk phos", "alkaline phosphatase"},
			UnitAliases:   []string{"iu/l"},
		},
		models.MetricGGT: {
			Display:       "Gamma-Glutamyl Transferase",
			CanonicalUnit: "U/L",
			Synonyms:      []string{"ggt", "ggtp", "gamma gt", "gamma-gt", "γ-gt", "gamma glutamyl transferase", "gamma-glutamyl transferase"},
			UnitAliases:   []string{"iu/l"},
		},
		models.MetricBilirubin: {
			Display:       "Total Bilirubin",
			CanonicalUnit: "mg/dL",
			Synonyms:      []string{"bilirubin", "total bilirubin", "bilirubin total", "bilirubin (total)", "t. bilirubin", "tbil"},
			Conversions: map[string]float64{
				"umol/l": 1 / bilirubinUmolPerMgdl,
			},
		},
		models.MetricAlbumin: {
			Display:       "Albumin",
			CanonicalUnit: "g/dL",
			Synonyms:      []string{"albumin", "serum albumin", "alb"},
			Conversions: map[string]float64{
				"g/l": 0.1,
			},
		},
		models.MetricTotalProtein: {
			Display:       "Total Protein",
			CanonicalUnit: "g/dL",
			Synonyms:      []string{"total protein", "totalprotein", "protein total", "protein (total)", "serum protein"},
			Conversions: map[string]float64{
				"g/l": 0.1,
			},
		},
		models.MetricCreatinine: {
			Display:       "Creatinine",
			CanonicalUnit: "mg/dL",
			Synonyms:      []string{"creatinine", "serum creatinine", "scr", "creat"},
			Conversions: map[string]float64{
				"umol/l": 1 / creatinineUmolPerMgdl,
			},
		},
		models.MetricINR: {
			Display:       "International Normalized Ratio",
			CanonicalUnit: "ratio",
			Synonyms:      []string{"inr", "pt inr", "pt/inr", "international normalized ratio", "prothrombin time inr"},
		},
		models.MetricSodium: {
			Display:       "Sodium",
			CanonicalUnit: "mmol/L",
			Synonyms:      []string{"sodium", "na", "na+", "serum sodium"},
			UnitAliases:   []string{"meq/l"},
		},
		models.MetricPotassium: {
			Display:       "Potassium",
			CanonicalUnit: "mmol/L",
			Synonyms:      []string{"potassium", "k", "k+", "serum potassium"},
			UnitAliases:   []string{"meq/l"},
		},
		models.MetricPlatelets: {
			Display:       "Platelet Count",
			CanonicalUnit: "10^9/L",
			Synonyms:      []string{"platelets", "platelet", "platelet count", "plt", "thrombocytes"},
			UnitAliases:   []string{"x10^3/ul", "10^3/ul", "x10^9/l", "10*9/l", "10e9/l", "thousand/ul", "k/ul"},
			Conversions: map[string]float64{
				"/ul": 0.001,
			},
		},
	}}
}
