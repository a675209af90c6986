package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MATCH_LIMIT", "")
	t.Setenv("USE_CACHE_ON_FAILURE", "")
	t.Setenv("BUYER_BUDGET_BASIS", "")

	cfg := Load()
	if cfg.MatchLimit != 3 {
		t.Errorf("MatchLimit: got %d, want 3", cfg.MatchLimit)
	}
	if cfg.UseCacheOnFailure {
		t.Error("UseCacheOnFailure should default to false")
	}
	if cfg.BuyerBudgetBasis != "monthly" {
		t.Errorf("BuyerBudgetBasis: got %q, want monthly", cfg.BuyerBudgetBasis)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUYER_MAX_BUDGET", "1500.50")
	t.Setenv("BUYER_AMENITIES", "pool, gym ,,")
	t.Setenv("USE_CACHE_ON_FAILURE", "true")
	t.Setenv("CACHE_TTL_HOURS", "6")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.BuyerMaxBudget != 1500.50 {
		t.Errorf("BuyerMaxBudget: got %v", cfg.BuyerMaxBudget)
	}
	if want := []string{"pool", "gym"}; !reflect.DeepEqual(cfg.BuyerAmenities, want) {
		t.Errorf("BuyerAmenities: got %v, want %v", cfg.BuyerAmenities, want)
	}
	if !cfg.UseCacheOnFailure {
		t.Error("UseCacheOnFailure should be true")
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Errorf("CacheTTL: got %v", cfg.CacheTTL)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB should fall back to 0, got %d", cfg.RedisDB)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=d sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
