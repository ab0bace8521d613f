package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"collab-events/internal/domain"

	"github.com/wI2L/jsondiff"
)

const (
	initialDiffSummary = "Initial version created"
	noChangesSummary   = "No field changes"
)

// summarizeDiff renders the JSON difference between two snapshots as
// `field: old -> new` clauses joined by "; ". Times are compared as UTC
// instants so a zone offset alone is not a change.
func summarizeDiff(before, after domain.EventFields) (string, error) {
	before, after = inUTC(before), inUTC(after)
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return "", fmt.Errorf("failed to marshal previous snapshot: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return "", fmt.Errorf("failed to marshal new snapshot: %w", err)
	}

	patch, err := jsondiff.CompareJSON(beforeJSON, afterJSON)
	if err != nil {
		return "", fmt.Errorf("failed to compare snapshots: %w", err)
	}
	if len(patch) == 0 {
		return noChangesSummary, nil
	}

	var old map[string]json.RawMessage
	if err := json.Unmarshal(beforeJSON, &old); err != nil {
		return "", fmt.Errorf("failed to decode previous snapshot: %w", err)
	}

	parts := make([]string, 0, len(patch))
	for _, op := range patch {
		field := strings.TrimPrefix(string(op.Path), "/")
		from := "null"
		if raw, ok := old[field]; ok {
			from = string(raw)
		}
		to := "null"
		if op.Type != jsondiff.OperationRemove {
			b, err := json.Marshal(op.Value)
			if err != nil {
				return "", fmt.Errorf("failed to encode %s: %w", field, err)
			}
			to = string(b)
		}
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", field, from, to))
	}
	return strings.Join(parts, "; "), nil
}

func inUTC(f domain.EventFields) domain.EventFields {
	if f.StartTime != nil {
		t := f.StartTime.UTC()
		f.StartTime = &t
	}
	if f.EndTime != nil {
		t := f.EndTime.UTC()
		f.EndTime = &t
	}
	return f
}
