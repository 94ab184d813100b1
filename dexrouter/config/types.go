package config

import (
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// genesis source, a local path or any go-getter URL
	Genesis string `toml:"genesis" mapstructure:"genesis"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// optional TLS material for the collector connection
	OTLPClientCertFile string `toml:"otlp_client_cert_file" mapstructure:"otlp_client_cert_file"`
	OTLPClientKeyFile  string `toml:"otlp_client_key_file" mapstructure:"otlp_client_key_file"`
	OTLPCACertFile     string `toml:"otlp_ca_cert_file" mapstructure:"otlp_ca_cert_file"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`
}

// Genesis is the initial state of the ledger, the venues and the router.
type Genesis struct {
	ExistentialDeposit uint64 `toml:"existential_deposit"`

	Router RouterGenesis `toml:"router"`
	XYK    XYKGenesis    `toml:"xyk"`
	Stable StableGenesis `toml:"stable"`

	Assets   []AssetGenesis   `toml:"assets"`
	Balances []BalanceGenesis `toml:"balances"`
	Pools    []PoolGenesis    `toml:"pools"`
}

// Fee destinations.
const (
	FeeToTreasury = "treasury"
	FeeBurn       = "burn"
)

// Routing strategies.
const (
	StrategyBestPrice      = "best-price"
	StrategyMinimumOutput  = "minimum-output"
	StrategyPreferredVenue = "preferred-venue"
)

type RouterGenesis struct {
	// FeeRate accepts "0.002" or "0.2%". Unset means the router default.
	FeeRate        *models.Permill  `toml:"fee_rate"`
	FeeDestination string           `toml:"fee_destination"` // treasury, burn
	Treasury       models.AccountID `toml:"treasury"`
	Strategy       string           `toml:"strategy"`
	MinimumOutput  uint64           `toml:"minimum_output"`
	PreferredVenue models.VenueID   `toml:"preferred_venue"`
	ToleranceBps   uint32           `toml:"tolerance_bps"`
	// Venues fixes the registration order, which breaks price ties.
	// Empty means xyk first, then stable.
	Venues []models.VenueID `toml:"venues"`
}

type XYKGenesis struct {
	Disabled bool `toml:"disabled"`
	// Unset or zero fields take the venue defaults, except LPFee where zero
	// is a valid fee.
	LPFee            *uint32 `toml:"lp_fee"` // per mille
	MintMinLiquidity uint64  `toml:"mint_min_liquidity"`
	LPAssetIDStart   uint32  `toml:"lp_asset_id_start"`
}

type StableGenesis struct {
	Enabled  bool                   `toml:"enabled"`
	FeeBps   uint32                 `toml:"fee_bps"`
	Pairs    [][2]models.AssetKind  `toml:"pairs"`
	Reserves []StableReserveGenesis `toml:"reserves"`
}

type StableReserveGenesis struct {
	Provider models.AccountID `toml:"provider"`
	Asset    models.AssetKind `toml:"asset"`
	Amount   uint64           `toml:"amount"`
}

type AssetGenesis struct {
	ID         uint32           `toml:"id"`
	Symbol     string           `toml:"symbol"`
	Owner      models.AccountID `toml:"owner"`
	MinBalance uint64           `toml:"min_balance"`
	Sufficient bool             `toml:"sufficient"`
}

type BalanceGenesis struct {
	Account models.AccountID `toml:"account"`
	Asset   models.AssetKind `toml:"asset"`
	Amount  uint64           `toml:"amount"`
}

// PoolGenesis creates a constant-product pool and seeds it from Provider.
type PoolGenesis struct {
	AssetA   models.AssetKind `toml:"asset_a"`
	AssetB   models.AssetKind `toml:"asset_b"`
	Provider models.AccountID `toml:"provider"`
	AmountA  uint64           `toml:"amount_a"`
	AmountB  uint64           `toml:"amount_b"`
}
