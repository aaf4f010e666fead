package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerConfig holds ledger engine settings.
type LedgerConfig struct {
	DefaultCurrency string
	CacheTTL        time.Duration
}

// CommissionConfig holds the startup commission rate table. Rates are
// fractions in [0,1]; RoleRates take precedence over category rates for
// owners carrying that role, explicit per-call overrides beat both.
type CommissionConfig struct {
	DefaultRate decimal.Decimal
	Rates       map[string]decimal.Decimal
	RoleRates   map[string]decimal.Decimal
}

// SettlementConfig holds the outbound delivery boundary settings.
type SettlementConfig struct {
	ReceiverURL string
	Secret      string
	ServiceID   string
	Timeout     time.Duration
}

// RetryConfig holds retry queue settings.
type RetryConfig struct {
	MaxAttempts   int
	DrainInterval time.Duration
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
}

// LoadLedger reads LedgerConfig from the environment.
func LoadLedger() LedgerConfig {
	return LedgerConfig{
		DefaultCurrency: GetEnv("LEDGER_DEFAULT_CURRENCY", "EUR"),
		CacheTTL:        GetDurationEnv("LEDGER_CACHE_TTL", 5*time.Minute),
	}
}

// LoadCommission reads CommissionConfig from the environment. Category
// rates can be overridden per category via COMMISSION_RATE_<CATEGORY>;
// durable overrides from the commission_rates table are layered on top by
// the commission service at construction.
func LoadCommission() CommissionConfig {
	cfg := CommissionConfig{
		DefaultRate: decimal.NewFromFloat(GetFloatEnv("COMMISSION_DEFAULT_RATE", 0.10)),
		Rates: map[string]decimal.Decimal{
			"template_sale": decimal.NewFromFloat(GetFloatEnv("COMMISSION_RATE_TEMPLATE_SALE", 0.10)),
			"custom_design": decimal.NewFromFloat(GetFloatEnv("COMMISSION_RATE_CUSTOM_DESIGN", 0.15)),
			"subscription":  decimal.NewFromFloat(GetFloatEnv("COMMISSION_RATE_SUBSCRIPTION", 0.05)),
		},
		RoleRates: map[string]decimal.Decimal{},
	}
	if r := GetFloatEnv("COMMISSION_RATE_ORGANIZER", -1); r >= 0 {
		cfg.RoleRates["organizer"] = decimal.NewFromFloat(r)
	}
	return cfg
}

// LoadSettlement reads SettlementConfig from the environment.
func LoadSettlement() SettlementConfig {
	return SettlementConfig{
		ReceiverURL: GetEnv("SETTLEMENT_RECEIVER_URL", "http://localhost:8080/internal/webhooks/settlement"),
		Secret:      GetEnv("SETTLEMENT_WEBHOOK_SECRET", ""),
		ServiceID:   GetEnv("SETTLEMENT_SERVICE_ID", "ledgerd"),
		Timeout:     GetDurationEnv("SETTLEMENT_TIMEOUT", 5*time.Second),
	}
}

// LoadRetry reads RetryConfig from the environment.
func LoadRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:   GetIntEnv("SETTLEMENT_RETRY_MAX_ATTEMPTS", 5),
		DrainInterval: GetDurationEnv("SETTLEMENT_RETRY_INTERVAL", 30*time.Second),
		BaseBackoff:   GetDurationEnv("SETTLEMENT_RETRY_BASE_BACKOFF", time.Minute),
		MaxBackoff:    GetDurationEnv("SETTLEMENT_RETRY_MAX_BACKOFF", time.Hour),
	}
}
