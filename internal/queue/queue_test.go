package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/milkdesk/internal/config"
)

func TestNewOtpDeliverTask(t *testing.T) {
	task, err := NewOtpDeliverTask(OtpDeliverPayload{SessionID: "s-1", Counter: 4})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOtpDeliver {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	var payload OtpDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.SessionID != "s-1" || payload.Counter != 4 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if NewOtpCleanupTask().Type() != TaskOtpCleanup {
		t.Fatalf("unexpected cleanup task type")
	}
}

func TestDisabledClientRejectsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	ctx := t.Context()
	if err := client.EnqueueOtpDeliver(ctx, OtpDeliverPayload{SessionID: "s-1"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := client.EnqueueLedgerAudit(ctx, LedgerAuditPayload{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr %q", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("expected default concurrency 10, got %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] != 6 || cfg.Queues[DefaultQueue] != 3 {
		t.Fatalf("unexpected queue weights %+v", cfg.Queues)
	}
}
