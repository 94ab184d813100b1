package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/config"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/node"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
	xykadapter "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm/xyk"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/rpc"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/runtime"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// share the logger with every package that logs
	rpc.SetLogger(log)
	node.SetLogger(log)
	router.SetLogger(log)
	runtime.SetLogger(log)
	xykadapter.SetLogger(log)
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("dexrouter failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "dexrouter",
		Short:         "Single-hop swap router over constant-product and stable venues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	root.AddCommand(serveCmd(), quoteCmd(), swapCmd())
	return root
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pathArg *string
			if configPath != "" {
				pathArg = &configPath
			}
			return serve(pathArg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "server config file (.toml); DEXROUTER_* env vars are used when empty")
	return cmd
}

func serve(configPath *string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	log.Info().
		Str("genesis", cfg.Genesis).
		Int("port", cfg.Port).
		Msg("Starting DEX router")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetchCtx, fetchCancel := context.WithTimeout(ctx, config.FetchTimeout)
	genesis, err := config.FetchGenesis(fetchCtx, cfg.Genesis)
	fetchCancel()
	if err != nil {
		return fmt.Errorf("failed to load genesis: %w", err)
	}

	metrics := rpc.NewMetrics()
	n, err := node.New(genesis, router.WithTransitionHook(metrics.ObserveTransition))
	if err != nil {
		return fmt.Errorf("failed to build node: %w", err)
	}

	server, err := rpc.NewServer(ctx, cfg, n, metrics)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// loadNode builds a node from a local or remote genesis for the one-shot commands.
func loadNode(cmd *cobra.Command, src string) (*node.Node, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), config.FetchTimeout)
	defer cancel()
	genesis, err := config.FetchGenesis(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load genesis: %w", err)
	}
	return node.New(genesis)
}

func quoteCmd() *cobra.Command {
	var genesis string
	var req models.QuoteRequest
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap against a genesis state",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNode(cmd, genesis)
			if err != nil {
				return err
			}
			resp, err := n.Quote(req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&genesis, "genesis", "genesis.toml", "genesis file or go-getter URL")
	cmd.Flags().StringSliceVar(&req.Path, "path", nil, "asset pair, e.g. native,local:1")
	cmd.Flags().StringVar(&req.AmountIn, "amount-in", "", "gross input amount")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("amount-in")
	return cmd
}

// swapCmd executes one swap on a fresh in-memory copy of the genesis state and
// prints the outcome. Nothing is persisted.
func swapCmd() *cobra.Command {
	var genesis string
	var slippageBps uint32
	var req models.SwapRequest
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Dry-run a swap against a genesis state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("slippage-bps") {
				req.SlippageBps = &slippageBps
			}
			n, err := loadNode(cmd, genesis)
			if err != nil {
				return err
			}
			resp, err := n.Swap(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("%s: %w", rpc.ErrorKind(err), err)
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&genesis, "genesis", "genesis.toml", "genesis file or go-getter URL")
	cmd.Flags().StringVar(&req.Who, "who", "", "paying account")
	cmd.Flags().StringSliceVar(&req.Path, "path", nil, "asset pair, e.g. native,local:1")
	cmd.Flags().StringVar(&req.AmountIn, "amount-in", "", "gross input amount")
	cmd.Flags().StringVar(&req.AmountOutMin, "amount-out-min", "", "minimum output")
	cmd.Flags().Uint32Var(&slippageBps, "slippage-bps", 0, "derive the minimum from a quote instead")
	cmd.Flags().StringVar(&req.SendTo, "send-to", "", "recipient, defaults to --who")
	cmd.Flags().BoolVar(&req.KeepAlive, "keep-alive", false, "keep the payer above the existential deposit")
	_ = cmd.MarkFlagRequired("who")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("amount-in")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
