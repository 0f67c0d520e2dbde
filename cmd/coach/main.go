package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/oracle"
	"github.com/danielpatrickdp/stagegate/internal/orchestrator"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to coach config.toml")
	dbPath := flag.String("db", "", "path to stagegate.db (overrides config)")
	conversation := flag.String("conversation", "", "conversation ID to resume (default: new)")
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if v := os.Getenv("STAGEGATE_DB"); v != "" && *dbPath == "" {
		cfg.DBPath = v
	}

	store, err := session.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	var (
		intentJudge intent.Judge
		eventJudge  gate.Judge
	)
	oracleStatus := "disabled (deterministic layers only)"
	if cfg.OracleEnabled && cfg.Oracle.APIKey != "" {
		client := oracle.NewClient(cfg.Oracle)
		intentJudge = client
		eventJudge = client
		oracleStatus = cfg.Oracle.URL
	}

	orch := orchestrator.NewOrchestrator(store, intentJudge, eventJudge, cfg.Locale)

	convID := *conversation
	if convID == "" {
		convID = uuid.NewString()
	}

	fmt.Println("Stagegate coach ready.")
	fmt.Printf("  DB: %s | Oracle: %s | Conversation: %s\n", cfg.DBPath, oracleStatus, convID)
	fmt.Println("Type your answer ('/reset' to start over, 'quit' to exit):")

	greeting, err := orch.Greeting(convID)
	if err != nil {
		log.Fatalf("failed to load conversation: %v", err)
	}
	fmt.Printf("\n%s\n\n", greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}
		if input == "/reset" {
			res, err := orch.Reset(context.Background(), convID)
			if err != nil {
				log.Printf("reset error: %v", err)
				continue
			}
			fmt.Printf("\n%s\n\n", res.Text)
			continue
		}

		res, err := orch.ProcessTurn(context.Background(), convID, input)
		if err != nil {
			log.Printf("turn error: %v", err)
			continue
		}

		fmt.Printf("\n%s\n\n", res.Text)
		status := fmt.Sprintf("[%s] stage=%s intent=%s verdict=%s", res.TurnID[:8], res.Stage, res.Intent, res.Verdict)
		if res.OverrideRule != "" {
			status += " override=" + res.OverrideRule
		}
		fmt.Println(status)

		if res.Done {
			fmt.Println("Session complete.")
			break
		}
	}
}

// #endregion main
