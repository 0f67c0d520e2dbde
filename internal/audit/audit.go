package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// #region entry

// Entry is one append-only audit row recording a turn's proposed and final
// transition, including which safety-net rule (if any) forced an override.
type Entry struct {
	ConversationID string
	TurnID         string
	StageBefore    string
	Intent         string
	Verdict        string
	StageAfter     string
	OverrideRule   string // empty when the proposed transition was accepted
	Reason         string
	CreatedAt      time.Time
}

// #endregion entry

// #region log-turn
// LogTurn writes an audit entry to the audit_log table.
func LogTurn(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO audit_log (conversation_id, turn_id, stage_before, intent, verdict, stage_after, override_rule, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ConversationID,
		entry.TurnID,
		entry.StageBefore,
		entry.Intent,
		entry.Verdict,
		entry.StageAfter,
		nullIfEmpty(entry.OverrideRule),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// #endregion log-turn

// #region list-turns
// ListTurns returns the audit trail for a conversation in turn order.
func ListTurns(db *sql.DB, conversationID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT conversation_id, turn_id, stage_before, intent, verdict, stage_after, override_rule, reason, created_at
		 FROM audit_log WHERE conversation_id = ? ORDER BY id ASC`, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var rule, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ConversationID, &e.TurnID, &e.StageBefore, &e.Intent,
			&e.Verdict, &e.StageAfter, &rule, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.OverrideRule = rule.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-turns

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
