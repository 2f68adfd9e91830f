package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/hepascope/platform/pkg/common/models"
)

type stubResolver struct {
	latest map[models.CanonicalMetric]float64
	failOn models.CanonicalMetric
}

func (s *stubResolver) GetLatest(ctx context.Context, userID string, metric models.CanonicalMetric) (*models.SeriesPoint, error) {
	if metric == s.failOn && s.failOn != "" {
		return nil, fmt.Errorf("store unavailable")
	}
	value, ok := s.latest[metric]
	if !ok {
		return nil, nil
	}
	return &models.SeriesPoint{Value: value}, nil
}

func TestAssembleForMELD(t *testing.T) {
	asm := NewAssembler(&stubResolver{latest: map[models.CanonicalMetric]float64{
		models.MetricBilirubin:  2.1,
		models.MetricCreatinine: 1.4,
		models.MetricINR:        1.6,
		models.MetricSodium:     133,
	}})

	inputs, err := asm.AssembleFor(context.Background(), "u1", "MELD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inputs) != 4 {
		t.Fatalf("expected 4 inputs, got %d", len(inputs))
	}
	if inputs[models.MetricINR] != 1.6 || inputs[models.MetricSodium] != 133 {
		t.Fatalf("unexpected inputs %+v", inputs)
	}
}

func TestAssemblePartialMapIsValid(t *testing.T) {
	// User has never had an INR recorded.
	asm := NewAssembler(&stubResolver{latest: map[models.CanonicalMetric]float64{
		models.MetricBilirubin: 0.9,
		models.MetricAlbumin:   4.1,
	}})

	inputs, err := asm.AssembleFor(context.Background(), "u1", "child-pugh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected partial map of 2, got %d", len(inputs))
	}
	if _, present := inputs[models.MetricINR]; present {
		t.Fatal("never-recorded metric must be absent, not zero")
	}
}

func TestAssembleForUnknownScore(t *testing.T) {
	asm := NewAssembler(&stubResolver{})
	if _, err := asm.AssembleFor(context.Background(), "u1", "bard"); !errors.Is(err, ErrUnknownScore) {
		t.Fatalf("expected ErrUnknownScore, got %v", err)
	}
}

func TestAssemblePropagatesResolverErrors(t *testing.T) {
	asm := NewAssembler(&stubResolver{
		latest: map[models.CanonicalMetric]float64{models.MetricAST: 80},
		failOn: models.MetricPlatelets,
	})
	if _, err := asm.AssembleFor(context.Background(), "u1", "apri"); err == nil {
		t.Fatal("expected resolver failure to propagate")
	}
}

func TestScoresListsKnownFormulas(t *testing.T) {
	names := Scores()
	sort.Strings(names)
	want := []string{"apri", "child-pugh", "fib-4", "meld"}
	if len(names) != len(want) {
		t.Fatalf("unexpected score list %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected score list %v", names)
		}
	}
}
