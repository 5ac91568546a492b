package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_GetOrCreatePreservesIdentity(t *testing.T) {
	s := NewMemoryStore()
	a := s.GetOrCreate("CA1", "+15550100")
	a.Append(Turn{Speaker: SpeakerCustomer, Text: "hi"})

	b := s.GetOrCreate("CA1", "+19990000")
	if a != b {
		t.Fatalf("GetOrCreate returned a different conversation for an existing id")
	}
	if b.CallerAddress != "+15550100" {
		t.Fatalf("caller overwritten: %q", b.CallerAddress)
	}
	if b.Len() != 1 {
		t.Fatalf("transcript reset: len=%d", b.Len())
	}
}

func TestMemoryStore_UnknownCaller(t *testing.T) {
	s := NewMemoryStore()
	c := s.GetOrCreate("CA2", "")
	if c.CallerAddress != UnknownCaller {
		t.Fatalf("caller=%q, want %q", c.CallerAddress, UnknownCaller)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get(missing) reported found")
	}
}

func TestMemoryStore_ConcurrentGetOrCreate(t *testing.T) {
	s := NewMemoryStore()
	const n = 64
	results := make([]*Conversation, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := s.GetOrCreate("CA-race", "+1")
			c.Append(Turn{Speaker: SpeakerCustomer, Text: fmt.Sprintf("msg %d", i)})
			_ = s.List()
			results[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different conversation", i)
		}
	}
	if got := results[0].Len(); got != n {
		t.Fatalf("len=%d, want %d", got, n)
	}
}

func TestMemoryStore_ListOrdered(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	s.GetOrCreate("CA-b", "+2")
	s.GetOrCreate("CA-a", "+1")
	s.GetOrCreate("CA-c", "+3").Append(Turn{Speaker: SpeakerAgent, Text: "hello"})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("len=%d", len(list))
	}
	want := []string{"CA-b", "CA-a", "CA-c"}
	for i, w := range want {
		if list[i].CallSid != w {
			t.Fatalf("list[%d]=%s, want %s", i, list[i].CallSid, w)
		}
	}
	if len(list[2].Transcript) != 1 || list[2].CallerPhone != "+3" {
		t.Fatalf("unexpected summary: %+v", list[2])
	}
}

func TestConversation_EscalationReasonWriteOnce(t *testing.T) {
	c := newConversation("CA3", "+1", time.Now())
	if _, ok := c.EscalationReason(); ok {
		t.Fatalf("fresh conversation reports a reason")
	}
	if !c.SetEscalationReason("billing") {
		t.Fatalf("first set rejected")
	}
	if c.SetEscalationReason("other") {
		t.Fatalf("second set accepted")
	}
	if r, _ := c.EscalationReason(); r != "billing" {
		t.Fatalf("reason=%q", r)
	}
}

func TestConversation_TranscriptIsCopy(t *testing.T) {
	c := newConversation("CA4", "+1", time.Now())
	c.Append(Turn{Speaker: SpeakerCustomer, Text: "a"})
	snap := c.Transcript()
	snap[0].Text = "mutated"
	if c.Transcript()[0].Text != "a" {
		t.Fatalf("snapshot aliases internal transcript")
	}
}
