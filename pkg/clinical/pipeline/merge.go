package pipeline

import (
	"errors"

	"clinical-intelligence-be/pkg/clinical"
)

// Merge builds the final result from the raw draft and critique outputs. Both must
// parse for a structured result; otherwise the result is degraded and carries both raw
// texts verbatim. Merge never fails.
func Merge(draftRaw, critiqueRaw string, markers clinical.MarkerSet) *clinical.PipelineResult {
	return merge(draftRaw, critiqueRaw, markers, nil)
}

// merge folds an earlier stage failure (timeout, review unavailable) into the same
// degraded path used for parse failures.
func merge(draftRaw, critiqueRaw string, markers clinical.MarkerSet, stageErr error) *clinical.PipelineResult {
	if stageErr != nil {
		return clinical.NewDegradedResult(draftRaw, critiqueRaw, stageErr.Error(), markers)
	}

	note, draftErr := clinical.ParseDraft(draftRaw)
	audit, auditErr := clinical.ParseCritique(critiqueRaw)
	if err := errors.Join(draftErr, auditErr); err != nil {
		return clinical.NewDegradedResult(draftRaw, critiqueRaw, err.Error(), markers)
	}
	return clinical.NewStructuredResult(note, audit, markers)
}
