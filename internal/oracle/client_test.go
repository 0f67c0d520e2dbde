package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

func fakeEndpoint(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if _, ok := req["response_format"]; !ok {
			t.Error("request missing response_format")
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(url string) *Client {
	return NewClient(Config{URL: url, Model: "test-model", Timeout: time.Second, Retries: 0})
}

func TestClassifyIntent(t *testing.T) {
	srv := fakeEndpoint(t, `{"intent":"answer_ok","confidence":0.9}`)
	defer srv.Close()

	it, conf, err := testClient(srv.URL).ClassifyIntent(context.Background(), "it was my boss", protocol.StageEvent, "en")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if it != intent.AnswerOk {
		t.Fatalf("intent = %s", it)
	}
	if conf != 0.9 {
		t.Fatalf("confidence = %v", conf)
	}
}

func TestClassifyIntentRecoversFromProse(t *testing.T) {
	srv := fakeEndpoint(t, `{"intent":"The best fit here is answer_partial.","confidence":0.7}`)
	defer srv.Close()

	it, _, err := testClient(srv.URL).ClassifyIntent(context.Background(), "well, sort of", protocol.StageEmotion, "en")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if it != intent.AnswerPartial {
		t.Fatalf("intent = %s, want answer_partial via marker recovery", it)
	}
}

func TestClassifyIntentRejectsUnknown(t *testing.T) {
	srv := fakeEndpoint(t, `{"intent":"enthusiastic","confidence":0.9}`)
	defer srv.Close()

	_, _, err := testClient(srv.URL).ClassifyIntent(context.Background(), "yes!", protocol.StageTopic, "en")
	if err == nil {
		t.Fatal("expected error for intent outside the closed set")
	}
}

func TestClassifyIntentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).ClassifyIntent(context.Background(), "hello", protocol.StageTopic, "en")
	if err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestJudgeEvent(t *testing.T) {
	srv := fakeEndpoint(t, `{"recent":true,"personal":true,"emotional":true,"other_person":false}`)
	defer srv.Close()

	crit, err := testClient(srv.URL).JudgeEvent(context.Background(), "I argued with my boss yesterday")
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if !crit.Recent || !crit.Personal || !crit.Emotional || crit.OtherPerson {
		t.Fatalf("criteria = %+v", crit)
	}
}

func TestJudgeEventFencedContent(t *testing.T) {
	srv := fakeEndpoint(t, "```json\n{\"recent\":true,\"personal\":true,\"emotional\":true,\"other_person\":true}\n```")
	defer srv.Close()

	crit, err := testClient(srv.URL).JudgeEvent(context.Background(), "I argued with my boss yesterday")
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if !crit.All() {
		t.Fatalf("criteria = %+v", crit)
	}
}
