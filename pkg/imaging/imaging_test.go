package imaging

import (
	"encoding/json"
	"testing"
)

func ultrasoundPayload() json.RawMessage {
	return json.RawMessage(`{
		"reportType": "Abdominal Ultrasound",
		"reportDate": "2024-01-10",
		"imaging": {
			"modality": "Ultrasound",
			"organs": [
				{"name": "Liver", "size": {"value": 16.2, "unit": "cm"}, "notes": "mildly enlarged"},
				{"name": "Spleen", "size": null},
				{"name": "", "size": {"value": 1, "unit": "cm"}},
				"garbage-entry"
			],
			"findings": ["coarse echotexture"]
		}
	}`)
}

func TestParseImagingStudy(t *testing.T) {
	study, ok := Parse(ultrasoundPayload())
	if !ok {
		t.Fatal("expected imaging study to parse")
	}
	if study.Modality != "Ultrasound" {
		t.Fatalf("unexpected modality %q", study.Modality)
	}
	if len(study.Organs) != 2 {
		t.Fatalf("expected malformed and unnamed organs skipped, got %d", len(study.Organs))
	}
	if len(study.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(study.Findings))
	}
}

func TestParseAbsentOrMalformedImaging(t *testing.T) {
	if _, ok := Parse(json.RawMessage(`{"metrics": {}}`)); ok {
		t.Fatal("expected no study without an imaging section")
	}
	if _, ok := Parse(json.RawMessage(`{"imaging": null}`)); ok {
		t.Fatal("expected no study for a null imaging section")
	}
	if _, ok := Parse(json.RawMessage(`{"imaging": "not-an-object"}`)); ok {
		t.Fatal("expected no study for a malformed imaging section")
	}
	if _, ok := Parse(json.RawMessage(`{"imaging": {}}`)); ok {
		t.Fatal("expected no study when imaging yields nothing usable")
	}
	if _, ok := Parse(nil); ok {
		t.Fatal("expected no study for an empty payload")
	}
}

func TestFindOrganRequiresSize(t *testing.T) {
	study, ok := Parse(ultrasoundPayload())
	if !ok {
		t.Fatal("expected imaging study to parse")
	}

	organ, ok := study.FindOrgan("liver")
	if !ok {
		t.Fatal("expected liver organ with size")
	}
	if organ.Size.Value != 16.2 || organ.Size.Unit != "cm" {
		t.Fatalf("unexpected size %+v", organ.Size)
	}

	// Spleen is present but sizeless, so it must not match.
	if _, ok := study.FindOrgan("spleen"); ok {
		t.Fatal("expected no match for a sizeless organ")
	}
}

func TestMatchesModality(t *testing.T) {
	for _, reportType := range []string{"Abdominal Ultrasound", "CT Abdomen", "mri liver protocol"} {
		if !MatchesModality(reportType) {
			t.Fatalf("expected %q to match an imaging modality", reportType)
		}
	}
	if MatchesModality("Liver Function Test") {
		t.Fatal("expected lab report type not to match")
	}
}
