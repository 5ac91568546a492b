package chat

import (
	"context"
	"errors"
	"io"
	"testing"

	"voice-relay-server/src/core/types"
	"voice-relay-server/src/core/utils"
)

type stubCompleter struct {
	reply string
	err   error
	seen  [][]types.Message
}

func (s *stubCompleter) Complete(_ context.Context, messages []types.Message) (string, error) {
	s.seen = append(s.seen, messages)
	return s.reply, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		reply      string
		escalate   bool
		wantReason string
	}{
		{"Our hours are 9 to 5.", false, ""},
		{"ESCALATE: billing issue", true, "billing issue"},
		{"ESCALATE:   Customer requested human agent  ", true, "Customer requested human agent"},
		{"Sure thing. ESCALATE: complex billing issue", true, "complex billing issue"},
		{"ESCALATE:", true, ""},
		{"escalate: lowercase is not a marker", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			d := Classify(tt.reply)
			if d.IsEscalation != tt.escalate || d.Reason != tt.wantReason {
				t.Fatalf("Classify(%q) = %+v", tt.reply, d)
			}
			if d.ReplyText != tt.reply {
				t.Fatalf("ReplyText=%q", d.ReplyText)
			}
		})
	}
}

func TestEngine_TurnGrowsHistory(t *testing.T) {
	logger := utils.NewWriterLogger(io.Discard, utils.DEBUG)
	stub := &stubCompleter{reply: "We open at 9."}
	e := NewEngine(stub, "be helpful", logger)
	dm := e.Initialize()
	if dm.Length() != 1 {
		t.Fatalf("initial history len=%d, want 1", dm.Length())
	}

	d, err := e.Turn(context.Background(), dm, "when do you open?")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if d.IsEscalation || d.ReplyText != "We open at 9." {
		t.Fatalf("decision=%+v", d)
	}
	history := dm.GetLLMDialogue()
	if len(history) != 3 {
		t.Fatalf("history len=%d, want 3", len(history))
	}
	if history[0].Role != types.RoleSystem || history[1].Role != types.RoleUser || history[2].Role != types.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", history)
	}
	if len(stub.seen[0]) != 2 {
		t.Fatalf("model saw %d messages, want 2", len(stub.seen[0]))
	}
}

func TestEngine_TurnFailure(t *testing.T) {
	logger := utils.NewWriterLogger(io.Discard, utils.INFO)
	cause := errors.New("timeout")
	stub := &stubCompleter{err: cause}
	e := NewEngine(stub, "sys", logger)
	dm := e.Initialize()

	_, err := e.Turn(context.Background(), dm, "hello")
	var failure *DialogueFailure
	if !errors.As(err, &failure) || !errors.Is(err, cause) {
		t.Fatalf("err=%v, want DialogueFailure wrapping cause", err)
	}
	if pending, ok := dm.PendingUserMessage(); !ok || pending != "hello" {
		t.Fatalf("pending=%q ok=%v", pending, ok)
	}

	// 重试同一内容不重复追加
	_, _ = e.Turn(context.Background(), dm, "hello")
	if dm.Length() != 2 {
		t.Fatalf("history len=%d, want 2", dm.Length())
	}

	stub.err = nil
	stub.reply = "ESCALATE: needs a person"
	d, err := e.Turn(context.Background(), dm, "something else")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !d.IsEscalation || d.Reason != "needs a person" {
		t.Fatalf("decision=%+v", d)
	}
	if dm.Length() != 4 {
		t.Fatalf("history len=%d, want 4", dm.Length())
	}
}

func TestDialogueManager_SetSystemMessageReplaces(t *testing.T) {
	dm := NewDialogueManager(nil)
	dm.Put(Message{Role: types.RoleUser, Content: "hi"})
	dm.SetSystemMessage("first")
	dm.SetSystemMessage("second")
	h := dm.GetLLMDialogue()
	if len(h) != 2 || h[0].Content != "second" {
		t.Fatalf("history=%+v", h)
	}
	if pending, ok := dm.PendingUserMessage(); !ok || pending != "hi" {
		t.Fatalf("pending=%q ok=%v", pending, ok)
	}
}
