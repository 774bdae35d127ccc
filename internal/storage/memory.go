package storage

import (
	"context"
	"sync"
)

// MemorySlot 进程内持久化槽。存储后端不可用时的会话级降级形态，
// 同进程多会话之间仍可经回调互相感知写入。
type MemorySlot struct {
	mu       sync.Mutex
	payload  []byte
	exists   bool
	nextID   int
	watchers map[int]func(origin string)
}

// NewMemorySlot 创建内存槽
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{watchers: map[int]func(string){}}
}

// Read 读取信封字节
func (s *MemorySlot) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return nil, ErrSlotNotFound
	}
	out := make([]byte, len(s.payload))
	copy(out, s.payload)
	return out, nil
}

// Write 写入信封字节并通知所有订阅者
func (s *MemorySlot) Write(ctx context.Context, payload []byte, origin string) error {
	s.mu.Lock()
	s.payload = make([]byte, len(payload))
	copy(s.payload, payload)
	s.exists = true
	handlers := s.snapshotWatchers()
	s.mu.Unlock()

	for _, h := range handlers {
		h(origin)
	}
	return nil
}

// Delete 删除槽并通知所有订阅者
func (s *MemorySlot) Delete(ctx context.Context) error {
	s.mu.Lock()
	s.payload = nil
	s.exists = false
	handlers := s.snapshotWatchers()
	s.mu.Unlock()

	for _, h := range handlers {
		h("")
	}
	return nil
}

// Watch 订阅槽变更
func (s *MemorySlot) Watch(ctx context.Context, handler func(origin string)) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = handler
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
	return cancel, nil
}

func (s *MemorySlot) snapshotWatchers() []func(string) {
	handlers := make([]func(string), 0, len(s.watchers))
	for _, h := range s.watchers {
		handlers = append(handlers, h)
	}
	return handlers
}
