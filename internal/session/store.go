package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	conversation_id  TEXT PRIMARY KEY,
	current_stage    TEXT NOT NULL,
	evidence_json    TEXT NOT NULL,
	turns_in_stage   INTEGER NOT NULL DEFAULT 0,
	stale_turns      INTEGER NOT NULL DEFAULT 0,
	history_json     TEXT NOT NULL DEFAULT '[]',
	recent_outputs   TEXT NOT NULL DEFAULT '[]',
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id  TEXT NOT NULL,
	turn_id          TEXT NOT NULL,
	stage_before     TEXT NOT NULL,
	intent           TEXT NOT NULL,
	verdict          TEXT NOT NULL,
	stage_after      TEXT NOT NULL,
	override_rule    TEXT,
	reason           TEXT,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_conversation
ON audit_log(conversation_id, id);
`

// #endregion schema

// #region store-struct
// Store persists conversation state and the append-only audit log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. audit).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region load
// Load reads the session for a conversation, or returns a new default state
// when none exists. Persisted rows are validated here, at the load boundary,
// so downstream components can trust the schema.
func (s *Store) Load(conversationID string) (*State, error) {
	var (
		stageStr    string
		evidenceRaw string
		historyRaw  string
		outputsRaw  string
		updatedStr  string
	)
	st := &State{ConversationID: conversationID}

	err := s.db.QueryRow(
		`SELECT current_stage, evidence_json, turns_in_stage, stale_turns, history_json, recent_outputs, updated_at
		 FROM sessions WHERE conversation_id = ?`, conversationID,
	).Scan(&stageStr, &evidenceRaw, &st.TurnsInStage, &st.StaleTurns, &historyRaw, &outputsRaw, &updatedStr)
	if err == sql.ErrNoRows {
		return NewState(conversationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", conversationID, err)
	}

	stage := protocol.Stage(stageStr)
	if !protocol.Valid(stage) {
		return nil, fmt.Errorf("load session %s: invalid stage %q", conversationID, stageStr)
	}
	st.CurrentStage = stage

	if err := json.Unmarshal([]byte(evidenceRaw), &st.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(historyRaw), &st.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(outputsRaw), &st.RecentOutputs); err != nil {
		return nil, fmt.Errorf("unmarshal recent outputs: %w", err)
	}
	st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)

	return st, nil
}

// #endregion load

// #region save
// Save upserts the session row. Called exactly once per turn, after the
// safety net has produced the final stage.
func (s *Store) Save(st *State) error {
	if !protocol.Valid(st.CurrentStage) {
		return fmt.Errorf("save session %s: invalid stage %q", st.ConversationID, st.CurrentStage)
	}

	evidenceJSON, err := json.Marshal(st.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	historyJSON, err := json.Marshal(st.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	outputsJSON, err := json.Marshal(st.RecentOutputs)
	if err != nil {
		return fmt.Errorf("marshal recent outputs: %w", err)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (conversation_id, current_stage, evidence_json, turns_in_stage, stale_turns, history_json, recent_outputs, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
		   current_stage = excluded.current_stage,
		   evidence_json = excluded.evidence_json,
		   turns_in_stage = excluded.turns_in_stage,
		   stale_turns = excluded.stale_turns,
		   history_json = excluded.history_json,
		   recent_outputs = excluded.recent_outputs,
		   updated_at = excluded.updated_at`,
		st.ConversationID, string(st.CurrentStage), string(evidenceJSON),
		st.TurnsInStage, st.StaleTurns, string(historyJSON), string(outputsJSON),
		st.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", st.ConversationID, err)
	}
	return nil
}

// #endregion save

// #region list
// ListConversations returns the IDs of the most recently updated sessions.
func (s *Store) ListConversations(limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT conversation_id FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion list
