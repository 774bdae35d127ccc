package notify

import (
	"sync"
	"time"

	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/scheduler"

	"github.com/google/uuid"
)

// DefaultDuration 通知默认展示时长
const DefaultDuration = 5 * time.Second

// Notifier 通知发射接口
type Notifier interface {
	Notify(message, severity string, duration time.Duration) models.Notification
}

// Emitter 瞬时通知队列。通知入队后定时自删；不做去重，
// 聚合由调用方负责以避免刷屏。
type Emitter struct {
	mu              sync.Mutex
	queue           []models.Notification
	sched           *scheduler.Scheduler
	defaultDuration time.Duration
}

// NewEmitter 创建通知发射器
func NewEmitter(sched *scheduler.Scheduler, defaultDuration time.Duration) *Emitter {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Emitter{sched: sched, defaultDuration: defaultDuration}
}

// Notify 入队一条通知并调度其自删
func (e *Emitter) Notify(message, severity string, duration time.Duration) models.Notification {
	if duration <= 0 {
		duration = e.defaultDuration
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  models.NormalizeSeverity(severity),
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	e.queue = append(e.queue, n)
	e.mu.Unlock()

	id := n.ID
	e.sched.After("notify:"+id, duration, func() {
		e.remove(id)
	})
	return n
}

// Dismiss 提前移除通知并取消其定时器
func (e *Emitter) Dismiss(id string) {
	e.sched.Cancel("notify:" + id)
	e.remove(id)
}

// List 返回当前通知快照（按入队顺序）
func (e *Emitter) List() []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Notification, len(e.queue))
	copy(out, e.queue)
	return out
}

func (e *Emitter) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.queue {
		if e.queue[i].ID == id {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return
		}
	}
}
