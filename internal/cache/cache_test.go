package cache

import (
	"context"
	"testing"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	ctx := context.Background()
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	if err := SetBalanceSummary(ctx, &BalanceSummary{CustomerID: 1, Total: 3}); err != nil {
		t.Fatalf("set summary failed: %v", err)
	}
	if _, hit, err := GetBalanceSummary(ctx, 1); err != nil || hit {
		t.Fatalf("expected miss on disabled cache, hit=%v err=%v", hit, err)
	}
	ok, err := SetNX(ctx, "otp:lock", "1", 0)
	if err != nil || !ok {
		t.Fatalf("disabled SetNX should succeed, ok=%v err=%v", ok, err)
	}
}

func TestBuildAdminAuthState(t *testing.T) {
	if BuildAdminAuthState(nil) != nil {
		t.Fatalf("nil admin should produce nil state")
	}
	state := BuildAdminAuthState(&models.Admin{ID: 9, Username: "ops", TokenVersion: 3, IsActive: true})
	if state.AdminID != 9 || state.TokenVersion != 3 || !state.IsActive || state.TokenInvalidBefore != 0 {
		t.Fatalf("unexpected state: %+v", state)
	}
}
