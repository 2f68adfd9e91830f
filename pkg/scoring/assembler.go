package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/hepascope/platform/pkg/common/models"
)

// Metric sets required by the clinical score formulas this platform feeds.
// The formulas themselves are external collaborators; this package only
// primes their inputs.
var scoreRequirements = map[string][]models.CanonicalMetric{
	"meld": {
		models.MetricBilirubin,
		models.MetricCreatinine,
		models.MetricINR,
		models.MetricSodium,
	},
	"child-pugh": {
		models.MetricBilirubin,
		models.MetricAlbumin,
		models.MetricINR,
	},
	"fib-4": {
		models.MetricALT,
		models.MetricAST,
		models.MetricPlatelets,
	},
	"apri": {
		models.MetricAST,
		models.MetricPlatelets,
	},
}

var ErrUnknownScore = fmt.Errorf("unknown score")

// LatestResolver is the read dependency for most-recent values.
type LatestResolver interface {
	GetLatest(ctx context.Context, userID string, metric models.CanonicalMetric) (*models.SeriesPoint, error)
}

// Assembler gathers the latest value of each metric a score formula needs.
type Assembler struct {
	series LatestResolver
}

func NewAssembler(series LatestResolver) *Assembler {
	return &Assembler{series: series}
}

// Assemble resolves each required metric's latest value independently.
// Metrics never recorded for the user are simply absent from the result;
// partial maps are valid and the scoring collaborator handles the gaps.
func (a *Assembler) Assemble(ctx context.Context, userID string, required []models.CanonicalMetric) (map[models.CanonicalMetric]float64, error) {
	inputs := make(map[models.CanonicalMetric]float64, len(required))
	for _, metric := range required {
		point, err := a.series.GetLatest(ctx, userID, metric)
		if err != nil {
			return nil, fmt.Errorf("resolving latest %s: %w", metric, err)
		}
		if point == nil {
			continue
		}
		inputs[metric] = point.Value
	}
	return inputs, nil
}

// AssembleFor looks up a named score's requirement list and assembles it.
func (a *Assembler) AssembleFor(ctx context.Context, userID, score string) (map[models.CanonicalMetric]float64, error) {
	required, ok := scoreRequirements[strings.ToLower(strings.TrimSpace(score))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScore, score)
	}
	return a.Assemble(ctx, userID, required)
}

// Scores lists the score names this assembler knows.
func Scores() []string {
	out := make([]string, 0, len(scoreRequirements))
	for name := range scoreRequirements {
		out = append(out, name)
	}
	return out
}
