package models

// VenueID names a swap venue, e.g. "xyk" or "stable".
type VenueID string

// SwapOutcome is the record emitted once for every successful swap.
type SwapOutcome struct {
	Who       AccountID `json:"who"`
	AssetIn   AssetKind `json:"asset_in"`
	AssetOut  AssetKind `json:"asset_out"`
	AmountIn  Balance   `json:"amount_in"`  // Gross input, before the router fee
	AmountOut Balance   `json:"amount_out"` // As reported by the venue
	RouterFee Balance   `json:"router_fee"`
	AMMUsed   VenueID   `json:"amm_used"`
	Recipient AccountID `json:"recipient"` // Account credited with AmountOut
}

// SwapRequest - POST /v1/swap body
type SwapRequest struct {
	Who          string   `json:"who"`                    // bech32, hex or dev:<name>
	Path         []string `json:"path"`                   // e.g., ["native", "local:1"]
	AmountIn     string   `json:"amount_in"`              // e.g., "1000"
	AmountOutMin string   `json:"amount_out_min"`         // e.g., "900"
	SendTo       string   `json:"send_to,omitempty"`      // defaults to Who
	KeepAlive    bool     `json:"keep_alive"`             // keep the payer above the existential deposit
	SlippageBps  *uint32  `json:"slippage_bps,omitempty"` // when set, amount_out_min is derived from a fresh quote
}

// QuoteRequest - POST /v1/quote body
type QuoteRequest struct {
	Path     []string `json:"path"`
	AmountIn string   `json:"amount_in"`
}

// VenueQuote is one venue's answer for a pair.
type VenueQuote struct {
	Venue     VenueID `json:"venue"`
	AmountOut Balance `json:"amount_out"`
}

// QuoteResponse previews a swap without touching any state.
type QuoteResponse struct {
	AssetIn         AssetKind    `json:"asset_in"`
	AssetOut        AssetKind    `json:"asset_out"`
	AmountIn        Balance      `json:"amount_in"`
	RouterFee       Balance      `json:"router_fee"`
	EffectiveAmount Balance      `json:"effective_amount"` // AmountIn - RouterFee, the amount the venue receives
	RouterFeeRate   string       `json:"router_fee_rate"`  // e.g., "0.2%"
	Quotes          []VenueQuote `json:"quotes"`           // in registration order
	Selected        VenueID      `json:"selected"`
	ExpectedOut     Balance      `json:"expected_out"` // selected venue's quote for the gross amount
	NetOut          Balance      `json:"net_out"`      // selected venue's quote for EffectiveAmount
}

// SwapResponse wraps the emitted outcome with its position in the event log.
type SwapResponse struct {
	EventIndex int          `json:"event_index"`
	Outcome    *SwapOutcome `json:"outcome"`
}

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Error   string `json:"error"`   // stable error kind, e.g., "NoCompatibleAMM"
	Message string `json:"message"` // human readable detail
}

// BalanceResponse - GET /v1/balances/{account}/{asset}
type BalanceResponse struct {
	Account AccountID `json:"account"`
	Asset   AssetKind `json:"asset"`
	Balance Balance   `json:"balance"`
}

// VenuesResponse - GET /v1/venues
type VenuesResponse struct {
	Venues        []VenueID `json:"venues"` // registration order, the tie-break order
	RouterFeeRate string    `json:"router_fee_rate"`
	Strategy      string    `json:"strategy"`
}

// PoolInfo - GET /v1/pools entry
type PoolInfo struct {
	Asset1   AssetKind `json:"asset1"`
	Asset2   AssetKind `json:"asset2"`
	Account  AccountID `json:"account"`
	LPToken  AssetKind `json:"lp_token"`
	Reserve1 Balance   `json:"reserve1"`
	Reserve2 Balance   `json:"reserve2"`
}
