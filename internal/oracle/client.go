package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

// #region config

// Config holds the connection settings for the LLM oracle endpoint. The
// endpoint must speak the OpenAI-compatible chat completions protocol with
// json_schema response formats.
type Config struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
	Retries int
}

// DefaultConfig returns the built-in defaults overlaid with the ORACLE_URL,
// ORACLE_API_KEY and ORACLE_MODEL environment variables.
func DefaultConfig() Config {
	cfg := Config{
		URL:     "https://api.groq.com/openai/v1/chat/completions",
		Model:   "llama-3.3-70b-versatile",
		Timeout: 10 * time.Second,
		Retries: 2,
	}
	if v := os.Getenv("ORACLE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		cfg.Model = v
	}
	return cfg
}

// #endregion config

// #region client

// Client calls the oracle endpoint with schema-constrained output. It
// implements both judge contracts: intent classification and event-criteria
// judging. All failures are returned to the caller; fail-closed policy lives
// in the classifier and gate, not here.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates an oracle client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// #endregion client

// #region wire

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float32             `json:"temperature"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *wireSchema `json:"json_schema,omitempty"`
}

type wireSchema struct {
	Name   string            `json:"name"`
	Schema jsonschema.Schema `json:"schema"`
	Strict bool              `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

// #endregion wire

// #region prompt

// promptSchema sends one schema-constrained prompt and unmarshals the reply
// into out. The schema is reflected from out's type with inline definitions,
// which is the subset the endpoint supports.
func promptSchema[T any](ctx context.Context, c *Client, system, user string, out *T) error {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.ReflectFromType(reflect.TypeOf(*out))

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &wireSchema{
				Name:   reflect.TypeOf(*out).Name(),
				Schema: *schema,
				Strict: true,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshalling oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending oracle request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var reply chatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("decoding oracle envelope: %w", err)
	}
	if len(reply.Choices) == 0 {
		return fmt.Errorf("oracle returned no choices")
	}

	content := reply.Choices[0].Message.Content
	// Some models wrap the JSON in a code fence despite the schema contract.
	if parts := strings.Split(content, "```"); len(parts) > 1 {
		content = parts[1]
		content = strings.TrimPrefix(content, "json")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("unmarshalling oracle content: %w", err)
	}
	return nil
}

// #endregion prompt

// #region intent-judge

type intentReply struct {
	Intent     string  `json:"intent" jsonschema:"description=One value from the closed intent set"`
	Confidence float32 `json:"confidence" jsonschema:"description=Classifier confidence between 0 and 1"`
}

const intentSystemPrompt = `You classify a single user utterance from a ` +
	`stage-gated coaching conversation into exactly one intent. Answer with ` +
	`JSON only. The valid intents are: consent_yes, consent_no, answer_ok, ` +
	`answer_partial, clarify, offtrack, advice_request, stop, meta_discussion. ` +
	`Pick the single best fit; use clarify when genuinely unsure.`

// ClassifyIntent asks the oracle for the utterance's intent, retrying
// transient failures per the configured retry budget. A reply outside the
// intent set goes through marker parsing once before being rejected.
func (c *Client) ClassifyIntent(ctx context.Context, utterance string, stage protocol.Stage, language string) (intent.Intent, float32, error) {
	user := fmt.Sprintf("stage: %s\nlanguage: %s\nutterance: %s", stage, language, utterance)

	reply, err := CallWithFallback(ctx, c.cfg.Timeout, c.cfg.Retries, intentReply{}, func(ctx context.Context) (intentReply, error) {
		var r intentReply
		err := promptSchema(ctx, c, intentSystemPrompt, user, &r)
		return r, err
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", intent.ErrClassification, err)
	}

	it := intent.Intent(strings.TrimSpace(strings.ToLower(reply.Intent)))
	if !intent.Valid(it) {
		recovered, ok := intent.ParseMarker(reply.Intent)
		if !ok {
			return "", 0, fmt.Errorf("%w: intent %q outside closed set", intent.ErrClassification, reply.Intent)
		}
		log.Printf("[ORACLE] recovered intent %s from free-text reply %q", recovered, reply.Intent)
		it = recovered
	}

	conf := reply.Confidence
	if conf < 0 || conf > 1 {
		conf = 0.5
	}
	return it, conf, nil
}

// #endregion intent-judge

// #region event-judge

const eventSystemPrompt = `You judge whether a described event satisfies four ` +
	`criteria for a coaching conversation: it is recent (roughly within two ` +
	`weeks), the speaker was personally involved, it carries an emotional ` +
	`signature, and another person was present or involved. Judge only what ` +
	`the text supports; when a criterion is not clearly met, mark it false. ` +
	`Answer with JSON only.`

// JudgeEvent asks the oracle to check the event criteria for an utterance,
// retrying transient failures. The all-false fallback keeps the gate
// conservative when the oracle stays unreachable.
func (c *Client) JudgeEvent(ctx context.Context, utterance string) (gate.EventCriteria, error) {
	criteria, err := CallWithFallback(ctx, c.cfg.Timeout, c.cfg.Retries, gate.EventCriteria{}, func(ctx context.Context) (gate.EventCriteria, error) {
		var crit gate.EventCriteria
		err := promptSchema(ctx, c, eventSystemPrompt, "event description: "+utterance, &crit)
		return crit, err
	})
	if err != nil {
		return gate.EventCriteria{}, fmt.Errorf("judging event criteria: %w", err)
	}
	return criteria, nil
}

// #endregion event-judge
