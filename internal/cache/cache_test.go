package cache

import (
	"context"
	"testing"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetProduct(ctx, &models.Product{ID: 9, Name: "Nebulizer"}); err != nil {
		t.Fatalf("set product should be a no-op: %v", err)
	}
	product, hit, err := GetProduct(ctx, 9)
	if err != nil || hit || product != nil {
		t.Fatalf("disabled cache must miss, hit=%v err=%v", hit, err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("disabled ping should succeed: %v", err)
	}
}

func TestBuildKeyWithPrefix(t *testing.T) {
	redisPrefix = "mc"
	if got := BuildKey("auth:user:1"); got != "mc:auth:user:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildKey("  "); got != "mc" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}

func TestBuildUserAuthStateCarriesRole(t *testing.T) {
	state := BuildUserAuthState(&models.User{ID: 3, Role: "support", Status: "active", TokenVersion: 2})
	if state.UserID != 3 || state.Role != "support" || state.TokenVersion != 2 {
		t.Fatalf("unexpected auth state: %+v", state)
	}
	if state.TokenInvalidBefore != 0 {
		t.Fatalf("token invalid before should be zero")
	}
}
