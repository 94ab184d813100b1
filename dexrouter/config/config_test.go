package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/config"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// helper to reset env vars with DEXROUTER_ prefix between tests
func unsetDexRouterEnv() {
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, EnvPrefix+"_") {
			if idx := strings.Index(e, "="); idx != -1 {
				_ = os.Unsetenv(e[:idx])
			}
		}
	}
}

// chdirTemp runs the test in an empty dir so godotenv.Load() does not pick up a .env file
func chdirTemp(t *testing.T) {
	t.Helper()
	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	_ = os.Chdir(t.TempDir())
}

func TestLoadServerConfig_FromEnv_Success(t *testing.T) {
	unsetDexRouterEnv()
	chdirTemp(t)
	t.Setenv("DEXROUTER_PORT", "8081")
	t.Setenv("DEXROUTER_HOST", "0.0.0.0")
	t.Setenv("DEXROUTER_GENESIS", "https://example.com/genesis.toml")
	t.Setenv("DEXROUTER_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadServerConfig(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 8081 || cfg.Host != "0.0.0.0" {
		t.Errorf("unexpected port/host: %v %v", cfg.Port, cfg.Host)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 allowed origins, got %d", len(cfg.AllowedOrigins))
	}
	if cfg.RatePerMinute != 600 {
		t.Errorf("expected default rate_per_minute 600, got %d", cfg.RatePerMinute)
	}
}

func TestLoadServerConfig_FromEnv_MissingGenesis(t *testing.T) {
	unsetDexRouterEnv()
	chdirTemp(t)
	t.Setenv("DEXROUTER_PORT", "8081")

	_, err := LoadServerConfig(nil)
	if err == nil {
		t.Fatalf("expected error due to missing genesis, got nil")
	}
}

func TestLoadServerConfig_FromEnv_OTLPTLS(t *testing.T) {
	unsetDexRouterEnv()
	chdirTemp(t)
	t.Setenv("DEXROUTER_GENESIS", "genesis.toml")
	t.Setenv("DEXROUTER_OTLP_CA_CERT_FILE", "/etc/otel/ca.pem")
	t.Setenv("DEXROUTER_OTLP_CLIENT_CERT_FILE", "/etc/otel/client.pem")
	t.Setenv("DEXROUTER_OTLP_CLIENT_KEY_FILE", "/etc/otel/client-key.pem")

	cfg, err := LoadServerConfig(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.OTLPCACertFile != "/etc/otel/ca.pem" {
		t.Errorf("unexpected CA file: %q", cfg.OTLPCACertFile)
	}
	if cfg.OTLPClientCertFile != "/etc/otel/client.pem" || cfg.OTLPClientKeyFile != "/etc/otel/client-key.pem" {
		t.Errorf("unexpected client cert pair: %q %q", cfg.OTLPClientCertFile, cfg.OTLPClientKeyFile)
	}
}

func TestLoadServerConfig_FromFile_ClientCertWithoutKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	content := `
port = 8080
host = "127.0.0.1"
genesis = "genesis.toml"
otlp_client_cert_file = "client.pem"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}

	_, err := LoadServerConfig(&path)
	if err == nil || !strings.Contains(err.Error(), "otlp_client_key_file") {
		t.Fatalf("expected error about the missing client key, got %v", err)
	}
}

func TestLoadServerConfig_FromFile_Success(t *testing.T) {
	unsetDexRouterEnv()
	path := "testdata/server.toml"

	cfg, err := LoadServerConfig(&path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 9090 || cfg.Host != "127.0.0.1" {
		t.Errorf("unexpected port/host: %v %v", cfg.Port, cfg.Host)
	}
	if cfg.RatePerMinute != 120 {
		t.Errorf("expected rate_per_minute 120, got %d", cfg.RatePerMinute)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("unexpected allowed origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadServerConfig_FromFile_NotToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte("port: 1"), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}

	if _, err := LoadServerConfig(&path); err == nil {
		t.Fatalf("expected error for non-toml file")
	}
}

func TestLoadServerConfig_FromFile_BadPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	content := `
port = 70000
host = "127.0.0.1"
genesis = "genesis.toml"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}

	if _, err := LoadServerConfig(&path); err == nil {
		t.Fatalf("expected error due to invalid port")
	}
}

func TestLoadGenesis(t *testing.T) {
	g, err := LoadGenesis("testdata/genesis.toml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.ExistentialDeposit != 1 {
		t.Errorf("expected existential deposit 1, got %d", g.ExistentialDeposit)
	}
	if g.Router.FeeRate == nil || *g.Router.FeeRate != models.Permill(3_000) {
		t.Errorf("expected fee rate 3000 ppm, got %v", g.Router.FeeRate)
	}
	if g.Router.Treasury != models.DevAccount("treasury") {
		t.Errorf("unexpected treasury %s", g.Router.Treasury)
	}
	if len(g.Pools) != 1 || !g.Pools[0].AssetB.Equal(models.Local(1)) {
		t.Errorf("unexpected pools: %+v", g.Pools)
	}
	if len(g.Stable.Pairs) != 1 || !g.Stable.Pairs[0][0].IsNative() {
		t.Errorf("unexpected stable pairs: %+v", g.Stable.Pairs)
	}
	if g.XYK.LPFee == nil || *g.XYK.LPFee != 3 {
		t.Errorf("expected lp fee 3, got %v", g.XYK.LPFee)
	}

	result := ValidateGenesis(g)
	if !result.IsValid {
		t.Errorf("expected fixture to be valid, got %v", result.Errors)
	}
}

func TestParseGenesis_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseGenesis([]byte("existential_deposit = 1\nexistensial_deposit = 2\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParseGenesis_BadAsset(t *testing.T) {
	content := `
[[balances]]
account = "dev:alice"
asset = "dollar"
amount = 1
`
	if _, err := ParseGenesis([]byte(content)); err == nil {
		t.Fatalf("expected error for malformed asset")
	}
}

func TestLoadGenesis_NotToml(t *testing.T) {
	if _, err := LoadGenesis("testdata/genesis.json"); err == nil {
		t.Fatalf("expected error for non-toml genesis")
	}
}

func TestFetchGenesis_LocalFile(t *testing.T) {
	g, err := FetchGenesis(context.Background(), "testdata/genesis.toml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(g.Balances) != 4 {
		t.Errorf("expected 4 balances, got %d", len(g.Balances))
	}
}

func TestFetchGenesis_FileURL(t *testing.T) {
	abs, err := filepath.Abs("testdata/genesis.toml")
	if err != nil {
		t.Fatal(err)
	}
	g, err := FetchGenesis(context.Background(), "file::"+abs)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(g.Assets) != 1 {
		t.Errorf("expected 1 asset, got %d", len(g.Assets))
	}
}

func validGenesis() *Genesis {
	fee := models.Permill(3_000)
	return &Genesis{
		ExistentialDeposit: 1,
		Router: RouterGenesis{
			FeeRate:  &fee,
			Treasury: models.DevAccount("treasury"),
		},
		Assets: []AssetGenesis{{ID: 1, Symbol: "USD", Owner: models.DevAccount("alice"), MinBalance: 1}},
		Balances: []BalanceGenesis{
			{Account: models.DevAccount("alice"), Asset: models.Native(), Amount: 1_000},
			{Account: models.DevAccount("treasury"), Asset: models.Native(), Amount: 1},
		},
		Pools: []PoolGenesis{{AssetA: models.Native(), AssetB: models.Local(1), Provider: models.DevAccount("alice")}},
	}
}

func TestValidateGenesis(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Genesis)
		field  string
	}{
		{"duplicate asset", func(g *Genesis) { g.Assets = append(g.Assets, g.Assets[0]) }, "assets[1].id"},
		{"zero min balance", func(g *Genesis) { g.Assets[0].MinBalance = 0 }, "assets[0].min_balance"},
		{"lp id collision", func(g *Genesis) { g.Assets[0].ID = 2_000_000 }, "assets[0].id"},
		{"unknown balance asset", func(g *Genesis) { g.Balances[0].Asset = models.Local(7) }, "balances[0].asset"},
		{"balance below minimum", func(g *Genesis) { g.ExistentialDeposit = 10; g.Balances[1].Amount = 5 }, "balances[1].amount"},
		{"pool without native", func(g *Genesis) {
			g.Assets = append(g.Assets, AssetGenesis{ID: 2, Owner: models.DevAccount("alice"), MinBalance: 1})
			g.Pools[0].AssetA = models.Local(2)
		}, "pools[0]"},
		{"duplicate pool", func(g *Genesis) {
			g.Pools = append(g.Pools, PoolGenesis{AssetA: models.Local(1), AssetB: models.Native(), Provider: models.DevAccount("alice")})
		}, "pools[1]"},
		{"unknown strategy", func(g *Genesis) { g.Router.Strategy = "cheapest" }, "router.strategy"},
		{"preferred venue missing", func(g *Genesis) { g.Router.Strategy = StrategyPreferredVenue }, "router.preferred_venue"},
		{"missing treasury", func(g *Genesis) { g.Router.Treasury = models.AccountID{} }, "router.treasury"},
		{"unknown fee destination", func(g *Genesis) { g.Router.FeeDestination = "charity" }, "router.fee_destination"},
		{"disabled venue listed", func(g *Genesis) { g.Router.Venues = []models.VenueID{"stable"} }, "router.venues[0]"},
		{"stable fee", func(g *Genesis) { g.Stable.Enabled = true; g.Stable.FeeBps = 10_000 }, "stable.fee_bps"},
	}

	if result := ValidateGenesis(validGenesis()); !result.IsValid {
		t.Fatalf("expected base genesis to be valid, got %v", result.Errors)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGenesis()
			tt.mutate(g)
			result := ValidateGenesis(g)
			if result.IsValid {
				t.Fatalf("expected validation to fail")
			}
			if result.Err() == nil {
				t.Fatalf("expected a joined error")
			}
			found := false
			for _, err := range result.Errors {
				var ve *ValidationError
				if errors.As(err, &ve) && ve.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error on %s, got %v", tt.field, result.Errors)
			}
		})
	}
}

func TestValidateGenesis_Warnings(t *testing.T) {
	g := validGenesis()
	g.Balances = g.Balances[:1]
	zero := models.Permill(0)
	g.Router.FeeRate = &zero

	result := ValidateGenesis(g)
	if !result.IsValid {
		t.Fatalf("warnings must not invalidate the genesis: %v", result.Errors)
	}
	// treasury unfunded, zero fee rate, pool without liquidity
	if len(result.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", result.Warnings)
	}
}
