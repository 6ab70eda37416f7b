package clinical

import "encoding/json"

// MergeFailedIndicator marks a degraded result.
const MergeFailedIndicator = "Merging failed"

// DegradedOutput carries the raw generation texts when the draft or critique could not be parsed.
type DegradedOutput struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	ScribeRaw string `json:"scribe_raw"`
	AuditRaw  string `json:"audit_raw"`
}

// PipelineResult is either fully structured (StructuredNote and Audit set) or degraded
// (Degraded set). The two shapes are never mixed.
type PipelineResult struct {
	StructuredNote *Draft
	Audit          *Critique
	Degraded       *DegradedOutput
	Markers        MarkerSet
}

func NewStructuredResult(note *Draft, audit *Critique, markers MarkerSet) *PipelineResult {
	return &PipelineResult{
		StructuredNote: note,
		Audit:          audit,
		Markers:        markers,
	}
}

func NewDegradedResult(scribeRaw, auditRaw, reason string, markers MarkerSet) *PipelineResult {
	return &PipelineResult{
		Degraded: &DegradedOutput{
			Error:     MergeFailedIndicator,
			Reason:    reason,
			ScribeRaw: scribeRaw,
			AuditRaw:  auditRaw,
		},
		Markers: markers,
	}
}

func (r *PipelineResult) IsDegraded() bool {
	return r.Degraded != nil
}

// RiskLevel returns the audited risk level, or "" for degraded results.
func (r *PipelineResult) RiskLevel() RiskLevel {
	if r.Audit == nil {
		return ""
	}
	return r.Audit.RiskLevel
}

type structuredJSON struct {
	StructuredNote *Draft    `json:"structured_note"`
	Audit          *Critique `json:"audit"`
	Markers        MarkerSet `json:"markers"`
}

type degradedJSON struct {
	DegradedOutput
	Markers MarkerSet `json:"markers"`
}

func (r PipelineResult) MarshalJSON() ([]byte, error) {
	markers := r.Markers
	markers.PrimaryThemes = nonNil(markers.PrimaryThemes)

	if r.Degraded != nil {
		return json.Marshal(degradedJSON{DegradedOutput: *r.Degraded, Markers: markers})
	}
	return json.Marshal(structuredJSON{
		StructuredNote: r.StructuredNote,
		Audit:          r.Audit,
		Markers:        markers,
	})
}

func (r *PipelineResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Error != nil {
		var d degradedJSON
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		*r = PipelineResult{Degraded: &d.DegradedOutput, Markers: d.Markers}
		return nil
	}

	var s structuredJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = PipelineResult{StructuredNote: s.StructuredNote, Audit: s.Audit, Markers: s.Markers}
	return nil
}
