package scheduler

import (
	"sync"
	"time"
)

// Scheduler 会话级定时任务调度器。周期任务与延迟任务统一登记，
// Stop 一次性取消全部，避免定时器泄漏到已销毁的会话。
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
}

type task struct {
	stop   chan struct{}
	timer  *time.Timer
	once   sync.Once
	ticker bool
}

// New 创建调度器
func New() *Scheduler {
	return &Scheduler{tasks: map[string]*task{}}
}

// Every 登记周期任务；同名任务被替换
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	if s == nil || interval <= 0 || fn == nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if existing, ok := s.tasks[name]; ok {
		existing.cancel()
	}
	t := &task{stop: make(chan struct{}), ticker: true}
	s.tasks[name] = t
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// After 登记延迟一次性任务；同名任务被替换
func (s *Scheduler) After(name string, delay time.Duration, fn func()) {
	if s == nil || fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if existing, ok := s.tasks[name]; ok {
		existing.cancel()
	}
	t := &task{stop: make(chan struct{})}
	t.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.tasks[name] == t {
			delete(s.tasks, name)
		}
		s.mu.Unlock()
		fn()
	})
	s.tasks[name] = t
	s.mu.Unlock()
}

// Cancel 取消指定任务；不存在时为空操作
func (s *Scheduler) Cancel(name string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// Stop 取消全部任务，调度器不再接受新任务
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.stopped = true
	tasks := s.tasks
	s.tasks = map[string]*task{}
	s.mu.Unlock()
	for _, t := range tasks {
		t.cancel()
	}
}

func (t *task) cancel() {
	t.once.Do(func() {
		close(t.stop)
		if t.timer != nil {
			t.timer.Stop()
		}
	})
}
