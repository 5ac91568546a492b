package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-relay-server/src/configs"
	"voice-relay-server/src/core/auth"
	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/handoff"
	"voice-relay-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

type mapResolver map[string]string

func (m mapResolver) ResolveCallID(_ context.Context, taskID string) (string, error) {
	if callSid, ok := m[taskID]; ok {
		return callSid, nil
	}
	return "", handoff.ErrUnknownConversation
}

func newRouter(t *testing.T, authEnabled bool) (*gin.Engine, *conversation.MemoryStore, *configs.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, _, err := configs.LoadConfig(t.TempDir() + "/none.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Server.Auth.Enabled = authEnabled
	cfg.Server.Auth.JWTSecret = "monitor-secret"

	store := conversation.NewMemoryStore()
	conv := store.GetOrCreate("CA1", "+15550100")
	conv.Append(conversation.Turn{Speaker: conversation.SpeakerCustomer, Text: "hi"})
	conv.Append(conversation.Turn{Speaker: conversation.SpeakerAgent, Text: "hello"})

	svc := NewMonitorService(cfg, utils.NewWriterLogger(io.Discard, utils.DEBUG), store, mapResolver{"WTknown": "CA1", "WTorphan": "CA999"})
	r := gin.New()
	svc.Start(context.Background(), r, r.Group("/api"))
	return r, store, cfg
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, cfg := newRouter(t, true)
	w := get(r, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" || body["service"] != cfg.Server.Service {
		t.Fatalf("body=%v", body)
	}
}

func TestMonitorList(t *testing.T) {
	r, store, _ := newRouter(t, false)
	store.GetOrCreate("CA2", "")
	w := get(r, "/monitor", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var list []conversation.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].CallSid != "CA1" || len(list[0].Transcript) != 2 {
		t.Fatalf("list=%+v", list)
	}
	if list[1].CallerPhone != conversation.UnknownCaller {
		t.Fatalf("caller=%q", list[1].CallerPhone)
	}
}

func TestMonitorList_Paged(t *testing.T) {
	r, store, _ := newRouter(t, false)
	store.GetOrCreate("CA2", "+2")
	store.GetOrCreate("CA3", "+3")

	w := get(r, "/monitor?page=2&page_size=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("X-Total-Count"); got != "3" {
		t.Fatalf("X-Total-Count=%q", got)
	}
	var list []conversation.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Fatalf("page len=%d, want 1", len(list))
	}

	w = get(r, "/monitor?page=9", "")
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list) != 0 {
		t.Fatalf("out of range page: status=%d len=%d", w.Code, len(list))
	}
}

func TestTranscriptLookup(t *testing.T) {
	r, _, _ := newRouter(t, false)
	tests := []struct {
		identifier string
		want       int
	}{
		{"CA1", http.StatusOK},
		{"WTknown", http.StatusOK},
		{"WTunknown", http.StatusNotFound},
		{"WTorphan", http.StatusNotFound},
		{"CA404", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			w := get(r, "/api/transcript/"+tt.identifier, "")
			if w.Code != tt.want {
				t.Fatalf("status=%d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var resp TranscriptResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if !resp.Success || resp.CallSid != "CA1" || resp.CallerPhone != "+15550100" || len(resp.Transcript) != 2 {
					t.Fatalf("resp=%+v", resp)
				}
				return
			}
			var resp map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["success"] != false || resp["error"] != "Conversation not found" {
				t.Fatalf("resp=%v", resp)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	r, _, cfg := newRouter(t, true)
	if w := get(r, "/monitor", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}
	if w := get(r, "/api/transcript/CA1", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}
	token, err := auth.NewAuthToken(cfg.Server.Auth.JWTSecret).GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := get(r, "/monitor", token); w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
}
