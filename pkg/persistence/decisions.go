package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"director/pkg/proto"
)

// DecisionRecord is one row of the append-only decision audit log. Every
// validated decision is recorded with both the proposed and final action so
// the log shows what the guardrails changed and why.
//
//nolint:govet // struct alignment optimization not critical for this type.
type DecisionRecord struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	Utterance       string           `json:"utterance"`
	ApprovalClass   string           `json:"approval_class"`
	ProposedAction  proto.ActionType `json:"proposed_action"`
	Action          proto.ActionType `json:"action"`
	ResponseText    string           `json:"response_text,omitempty"`
	ToolCalls       []proto.ToolCall `json:"tool_calls,omitempty"`
	Confidence      float64          `json:"confidence"`
	Downgraded      bool             `json:"downgraded"`
	DowngradeReason string           `json:"downgrade_reason,omitempty"`
	Stripped        []string         `json:"stripped,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RecordDecision appends a decision to the audit log.
func (s *Store) RecordDecision(rec *DecisionRecord) error {
	toolCallsJSON, err := marshalNullable(rec.ToolCalls)
	if err != nil {
		return fmt.Errorf("failed to marshal tool calls: %w", err)
	}
	strippedJSON, err := marshalNullable(rec.Stripped)
	if err != nil {
		return fmt.Errorf("failed to marshal stripped tools: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO decisions (
			id, session_id, utterance, approval_class,
			proposed_action, action, response_text, tool_calls_json,
			confidence, downgraded, downgrade_reason, stripped_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.SessionID, rec.Utterance, rec.ApprovalClass,
		string(rec.ProposedAction), string(rec.Action), rec.ResponseText, toolCallsJSON,
		rec.Confidence, boolToInt(rec.Downgraded), rec.DowngradeReason, strippedJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// GetDecisions returns the audit log for a session in chronological order.
func (s *Store) GetDecisions(sessionID string) ([]*DecisionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, utterance, approval_class,
		       proposed_action, action, response_text, tool_calls_json,
		       confidence, downgraded, downgrade_reason, stripped_json,
		       created_at
		FROM decisions
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*DecisionRecord
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return records, nil
}

// CountDowngrades returns how many decisions in a session were downgraded by
// guardrail validation.
func (s *Store) CountDowngrades(sessionID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM decisions WHERE session_id = ? AND downgraded = 1
	`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count downgrades: %w", err)
	}
	return count, nil
}

func scanDecision(rows *sql.Rows) (*DecisionRecord, error) {
	var rec DecisionRecord
	var proposedAction, action, createdAt string
	var responseText, downgradeReason, toolCallsJSON, strippedJSON sql.NullString
	var downgraded int

	err := rows.Scan(
		&rec.ID, &rec.SessionID, &rec.Utterance, &rec.ApprovalClass,
		&proposedAction, &action, &responseText, &toolCallsJSON,
		&rec.Confidence, &downgraded, &downgradeReason, &strippedJSON,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan decision: %w", err)
	}

	rec.ProposedAction = proto.ActionType(proposedAction)
	rec.Action = proto.ActionType(action)
	rec.ResponseText = responseText.String
	rec.DowngradeReason = downgradeReason.String
	rec.Downgraded = downgraded != 0
	rec.CreatedAt = parseTimestamp(createdAt)

	if toolCallsJSON.Valid && toolCallsJSON.String != "" {
		if err := json.Unmarshal([]byte(toolCallsJSON.String), &rec.ToolCalls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
		}
	}
	if strippedJSON.Valid && strippedJSON.String != "" {
		if err := json.Unmarshal([]byte(strippedJSON.String), &rec.Stripped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stripped tools: %w", err)
		}
	}

	return &rec, nil
}

// marshalNullable marshals a slice to JSON, returning NULL for empty slices
// so the audit rows stay readable.
func marshalNullable[T any](items []T) (any, error) {
	if len(items) == 0 {
		return nil, nil //nolint:nilnil // nil drives a SQL NULL, not an error
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err //nolint:wrapcheck // caller adds context
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
