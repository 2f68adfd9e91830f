package reference

import "github.com/hepascope/platform/pkg/common/models"

// Classification statuses.
const (
	StatusNormal     = "normal"
	StatusBorderline = "borderline"
	StatusAbnormal   = "abnormal"
)

// ranges holds the clinical reference intervals, each in the metric's
// canonical unit. Absence of an entry is a valid state: no classification is
// produced for that metric.
var ranges = map[models.CanonicalMetric]models.ReferenceRange{
	models.MetricALT:          {Low: 7, High: 56, Unit: "U/L"},
	models.MetricAST:          {Low: 10, High: 40, Unit: "U/L"},
	models.MetricALP:          {Low: 44, High: 147, Unit: "U/L"},
	models.MetricGGT:          {Low: 9, High: 48, Unit: "U/L"},
	models.MetricBilirubin:    {Low: 0.1, High: 1.2, Unit: "mg/dL"},
	models.MetricAlbumin:      {Low: 3.5, High: 5.0, Unit: "g/dL"},
	models.MetricTotalProtein: {Low: 6.0, High: 8.3, Unit: "g/dL"},
	models.MetricCreatinine:   {Low: 0.7, High: 1.3, Unit: "mg/dL"},
	models.MetricINR:          {Low: 0.8, High: 1.1, Unit: "ratio"},
	models.MetricSodium:       {Low: 135, High: 145, Unit: "mmol/L"},
	models.MetricPotassium:    {Low: 3.5, High: 5.0, Unit: "mmol/L"},
	models.MetricPlatelets:    {Low: 150, High: 450, Unit: "10^9/L"},
}

// RangeFor returns the reference range for a metric, if one is defined.
func RangeFor(metric models.CanonicalMetric) (models.ReferenceRange, bool) {
	r, ok := ranges[metric]
	return r, ok
}

// Classify maps a canonical-unit value to a clinical status. The 20% margin
// around the hard boundary separates "out of range" from "materially out of
// range"; callers must not collapse borderline into either neighbor. The
// second return is false when no range is defined for the metric, in which
// case no classification exists — treating that as normal is a caller
// decision, never a default here.
func Classify(metric models.CanonicalMetric, value float64) (string, bool) {
	r, ok := ranges[metric]
	if !ok {
		return "", false
	}
	switch {
	case value < r.Low*0.8 || value > r.High*1.2:
		return StatusAbnormal, true
	case value < r.Low || value > r.High:
		return StatusBorderline, true
	default:
		return StatusNormal, true
	}
}
