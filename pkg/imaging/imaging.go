package imaging

import (
	"encoding/json"
	"strings"

	"github.com/hepascope/platform/pkg/common/models"
)

// Study is the imaging evidence derived from one report's raw extraction.
// It is a read-time view, never persisted on its own.
type Study struct {
	Modality string                `json:"modality,omitempty"`
	Organs   []models.ImagingOrgan `json:"organs,omitempty"`
	Findings []string              `json:"findings,omitempty"`
}

// Empty reports whether the study carries no usable imaging evidence.
func (s *Study) Empty() bool {
	return s == nil || (s.Modality == "" && len(s.Organs) == 0 && len(s.Findings) == 0)
}

var modalities = []string{"ultrasound", "ct", "mri"}

// MatchesModality reports whether a report-type string names an imaging
// modality, by case-insensitive substring match.
func MatchesModality(reportType string) bool {
	lowered := strings.ToLower(reportType)
	for _, m := range modalities {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

type envelope struct {
	Imaging json.RawMessage `json:"imaging"`
}

type rawStudy struct {
	Modality string            `json:"modality"`
	Organs   []json.RawMessage `json:"organs"`
	Findings []string          `json:"findings"`
}

// Parse derives the imaging study embedded in a raw extraction payload. It
// is lenient throughout: a missing, null, or malformed imaging section
// yields (nil, false), and individual organ entries that fail to decode are
// skipped rather than failing the section.
func Parse(raw json.RawMessage) (*Study, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if len(env.Imaging) == 0 || string(env.Imaging) == "null" {
		return nil, false
	}

	var rs rawStudy
	if err := json.Unmarshal(env.Imaging, &rs); err != nil {
		return nil, false
	}

	study := &Study{
		Modality: strings.TrimSpace(rs.Modality),
		Findings: rs.Findings,
	}
	for _, entry := range rs.Organs {
		var organ models.ImagingOrgan
		if err := json.Unmarshal(entry, &organ); err != nil {
			continue
		}
		if strings.TrimSpace(organ.Name) == "" {
			continue
		}
		study.Organs = append(study.Organs, organ)
	}

	if study.Empty() {
		return nil, false
	}
	return study, true
}

// FindOrgan returns the first organ whose name contains the given substring
// (case-insensitive) and that carries a measured size.
func (s *Study) FindOrgan(name string) (models.ImagingOrgan, bool) {
	if s == nil {
		return models.ImagingOrgan{}, false
	}
	needle := strings.ToLower(name)
	for _, organ := range s.Organs {
		if strings.Contains(strings.ToLower(organ.Name), needle) && organ.Size != nil {
			return organ, true
		}
	}
	return models.ImagingOrgan{}, false
}
