package engine

import (
	"context"
	"sync"
	"time"

	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/scheduler"
)

// 会话回收参数
const (
	idleSweepInterval = time.Minute
	defaultIdleTTL    = 30 * time.Minute
)

// BuildFunc 按买家键装配引擎；同一买家的多个会话共享同一个槽
type BuildFunc func(shopperKey string) *Engine

// session 会话条目。Start 经由 once 只执行一次，
// 并发取同一会话的请求会等水合与定时任务就绪后才拿到引擎。
type session struct {
	once sync.Once
	eng  *Engine
}

// Manager 会话引擎注册表：按会话 ID 维护一个引擎实例，
// 空闲超时的会话被关闭回收（定时器随之全部取消）。
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	build    BuildFunc
	sched    *scheduler.Scheduler
	idleTTL  time.Duration
	ctx      context.Context
}

// NewManager 创建会话注册表并启动空闲回收
func NewManager(ctx context.Context, build BuildFunc, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	m := &Manager{
		sessions: map[string]*session{},
		build:    build,
		sched:    scheduler.New(),
		idleTTL:  idleTTL,
		ctx:      ctx,
	}
	m.sched.Every("engine_idle_sweep", idleSweepInterval, m.sweepIdle)
	return m
}

// Get 取会话引擎，不存在则装配并启动。引擎只在启动完成后释出。
func (m *Manager) Get(sessionID, shopperKey string) *Engine {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{eng: m.build(shopperKey)}
		m.sessions[sessionID] = s
	}
	m.mu.Unlock()

	s.once.Do(func() {
		s.eng.Start(m.ctx)
		logger.Infow("cart_session_started", "session_id", sessionID, "shopper", shopperKey)
	})
	s.eng.Touch()
	return s.eng
}

// Close 关闭全部会话引擎
func (m *Manager) Close() {
	m.sched.Stop()
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.eng.Close()
	}
}

// sweepIdle 回收空闲会话
func (m *Manager) sweepIdle() {
	m.mu.Lock()
	expired := make(map[string]*session)
	for id, s := range m.sessions {
		if s.eng.IdleSince() > m.idleTTL {
			expired[id] = s
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for id, s := range expired {
		s.eng.Close()
		logger.Infow("cart_session_evicted", "session_id", id)
	}
}
