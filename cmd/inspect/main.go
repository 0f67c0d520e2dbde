package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/stagegate/internal/audit"
	"github.com/danielpatrickdp/stagegate/internal/session"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to stagegate.db")
	conversation := flag.String("conversation", "", "show one conversation's audit trail")
	last := flag.Int("last", 20, "list N most recent conversations")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/stagegate.db [--conversation id] [--last N] [--json]")
		os.Exit(2)
	}

	store, err := session.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *conversation != "" {
		err = runTrailMode(store, *conversation, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ConversationID string `json:"conversation_id"`
	Stage          string `json:"stage"`
	TurnsInStage   int    `json:"turns_in_stage"`
	Messages       int    `json:"messages"`
	UpdatedAt      string `json:"updated_at"`
}

func runListMode(store *session.Store, last int, jsonOut bool) error {
	ids, err := store.ListConversations(last)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no conversations found")
		return nil
	}

	rows := make([]listRow, 0, len(ids))
	for _, id := range ids {
		st, err := store.Load(id)
		if err != nil {
			return err
		}
		rows = append(rows, listRow{
			ConversationID: id,
			Stage:          string(st.CurrentStage),
			TurnsInStage:   st.TurnsInStage,
			Messages:       len(st.History),
			UpdatedAt:      st.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-11s  %5s  %8s  %s\n", "Conversation", "Stage", "Turns", "Messages", "Updated")
	for _, r := range rows {
		fmt.Printf("%-36s  %-11s  %5d  %8d  %s\n",
			r.ConversationID, r.Stage, r.TurnsInStage, r.Messages, r.UpdatedAt)
	}
	return nil
}

// #endregion list-mode

// #region trail-mode

type trailRow struct {
	TurnID       string `json:"turn_id"`
	StageBefore  string `json:"stage_before"`
	Intent       string `json:"intent"`
	Verdict      string `json:"verdict"`
	StageAfter   string `json:"stage_after"`
	OverrideRule string `json:"override_rule,omitempty"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func runTrailMode(store *session.Store, conversationID string, jsonOut bool) error {
	entries, err := audit.ListTurns(store.DB(), conversationID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no audit entries found")
		return nil
	}

	rows := make([]trailRow, len(entries))
	for i, e := range entries {
		rows[i] = trailRow{
			TurnID:       shortID(e.TurnID),
			StageBefore:  e.StageBefore,
			Intent:       e.Intent,
			Verdict:      e.Verdict,
			StageAfter:   e.StageAfter,
			OverrideRule: e.OverrideRule,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-8s  %-11s  %-14s  %-8s  %-11s  %-18s  %s\n",
		"Turn", "Before", "Intent", "Verdict", "After", "Override", "Time")
	for _, r := range rows {
		override := r.OverrideRule
		if override == "" {
			override = "—"
		}
		fmt.Printf("%-8s  %-11s  %-14s  %-8s  %-11s  %-18s  %s\n",
			r.TurnID, r.StageBefore, r.Intent, r.Verdict, r.StageAfter, override, r.CreatedAt)
		if r.Reason != "" {
			fmt.Printf("          reason: %s\n", r.Reason)
		}
	}
	return nil
}

// #endregion trail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
