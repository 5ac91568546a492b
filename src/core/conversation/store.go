package conversation

import (
	"sort"
	"sync"
	"time"
)

// UnknownCaller 连接先于来电通知到达时使用的主叫占位
const UnknownCaller = "unknown"

// Store 会话存储接口
type Store interface {
	Get(id string) (*Conversation, bool)
	GetOrCreate(id, callerAddress string) *Conversation
	List() []Summary
}

// Summary 会话概览，用于监控
type Summary struct {
	CallSid     string    `json:"callSid"`
	CallerPhone string    `json:"callerPhone"`
	StartTime   time.Time `json:"startTime"`
	Transcript  []Turn    `json:"transcript"`
}

// MemoryStore 进程内会话存储，无淘汰策略
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	now           func() time.Time
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		now:           time.Now,
	}
}

// Get 按呼叫ID查询会话
func (s *MemoryStore) Get(id string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	return c, ok
}

// GetOrCreate 已存在则原样返回，否则以空转写创建
func (s *MemoryStore) GetOrCreate(id, callerAddress string) *Conversation {
	s.mu.RLock()
	c, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		return c
	}
	if callerAddress == "" {
		callerAddress = UnknownCaller
	}
	c = newConversation(id, callerAddress, s.now())
	s.conversations[id] = c
	return c
}

// List 按开始时间排序返回所有会话概览
func (s *MemoryStore) List() []Summary {
	s.mu.RLock()
	list := make([]*Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		list = append(list, c)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartedAt.Before(list[j].StartedAt)
	})

	out := make([]Summary, 0, len(list))
	for _, c := range list {
		out = append(out, Summary{
			CallSid:     c.ID,
			CallerPhone: c.CallerAddress,
			StartTime:   c.StartedAt,
			Transcript:  c.Transcript(),
		})
	}
	return out
}
