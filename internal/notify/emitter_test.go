package notify

import (
	"testing"
	"time"

	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/scheduler"
)

func TestNotifyAutoDismiss(t *testing.T) {
	sched := scheduler.New()
	defer sched.Stop()
	emitter := NewEmitter(sched, 20*time.Millisecond)

	n := emitter.Notify("cart saved", models.SeverityInfo, 0)
	if n.ID == "" {
		t.Fatalf("notification must get an id")
	}
	if len(emitter.List()) != 1 {
		t.Fatalf("expected queued notification")
	}

	deadline := time.After(time.Second)
	for len(emitter.List()) > 0 {
		select {
		case <-deadline:
			t.Fatalf("notification never auto-dismissed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDismissRemovesEarly(t *testing.T) {
	sched := scheduler.New()
	defer sched.Stop()
	emitter := NewEmitter(sched, time.Hour)

	n := emitter.Notify("price changed", models.SeverityWarning, 0)
	emitter.Dismiss(n.ID)
	if len(emitter.List()) != 0 {
		t.Fatalf("dismissed notification still queued")
	}
}

func TestNotifyNormalizesSeverity(t *testing.T) {
	sched := scheduler.New()
	defer sched.Stop()
	emitter := NewEmitter(sched, time.Hour)

	n := emitter.Notify("odd", "shouting", 0)
	if n.Severity != models.SeverityInfo {
		t.Fatalf("unknown severity should fall back to info, got %s", n.Severity)
	}
}

func TestListKeepsOrder(t *testing.T) {
	sched := scheduler.New()
	defer sched.Stop()
	emitter := NewEmitter(sched, time.Hour)

	emitter.Notify("first", models.SeverityInfo, 0)
	emitter.Notify("second", models.SeverityError, 0)
	list := emitter.List()
	if len(list) != 2 || list[0].Message != "first" || list[1].Message != "second" {
		t.Fatalf("unexpected queue order: %+v", list)
	}
}
