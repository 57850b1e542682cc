package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/rpcclient"
	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/config"
	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

// ConfigLoaderFunc loads the configuration from a file path, with environment overrides.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// TransportDialerFunc connects to an endpoint and returns a transport for rpcclient.NewClient
// together with a function releasing it.
type TransportDialerFunc func(
	ctx context.Context, lggr logger.Logger, cfg config.RPCConfig,
) (transport any, closeFn func(), err error)

// Deps holds the injectable dependencies of the commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// TransportDialer connects to the configured node.
	// Default: HTTPTransport for http(s) URLs, RPCTransport for everything else
	TransportDialer TransportDialerFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.TransportDialer == nil {
		d.TransportDialer = defaultTransportDialer
	}
}

// defaultTransportDialer posts requests verbatim to http(s) endpoints, so the ids seen by the
// node match the request log. WebSocket and IPC endpoints go through the go-ethereum client.
func defaultTransportDialer(
	ctx context.Context, lggr logger.Logger, cfg config.RPCConfig,
) (any, func(), error) {
	if u, err := url.Parse(cfg.URL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		t, err := rpcclient.NewHTTPTransport(cfg.URL)
		if err != nil {
			return nil, nil, err
		}

		return t, func() {}, nil
	}

	t, err := rpcclient.DialRPCTransport(ctx, cfg.URL,
		rpcclient.WithTransportLogger(lggr),
		rpcclient.WithDialConfig(dialConfig(cfg)),
	)
	if err != nil {
		return nil, nil, err
	}

	return t, t.Close, nil
}

// dialConfig converts the configured dial settings, using the rpcclient defaults for unset
// values.
func dialConfig(cfg config.RPCConfig) rpcclient.DialConfig {
	dc := rpcclient.DialConfig{
		Attempts: cfg.DialAttempts,
		Delay:    cfg.DialDelay,
		Timeout:  cfg.DialTimeout,
	}
	if dc.Attempts == 0 {
		dc.Attempts = rpcclient.RPCDefaultDialRetryAttempts
	}
	if dc.Delay == 0 {
		dc.Delay = rpcclient.RPCDefaultDialRetryDelay
	}
	if dc.Timeout == 0 {
		dc.Timeout = rpcclient.RPCDefaultDialTimeout
	}

	return dc
}

// dialNode connects to rpc.url and to every reachable backup endpoint. With at least one backup
// the transports are combined into a FailoverTransport with rpc.url as the primary.
func (c *Commands) dialNode(ctx context.Context, cfg config.RPCConfig) (any, func(), error) {
	primary, closePrimary, err := c.deps.TransportDialer(ctx, c.lggr, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}
	if len(cfg.BackupURLs) == 0 {
		return primary, closePrimary, nil
	}

	transports := []any{primary}
	closers := []func(){closePrimary}
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	for _, backupURL := range cfg.BackupURLs {
		backupCfg := cfg
		backupCfg.URL = backupURL
		backupCfg.BackupURLs = nil

		t, closeFn, err := c.deps.TransportDialer(ctx, c.lggr, backupCfg)
		if err != nil {
			c.lggr.Warnw("Skipping unreachable backup endpoint", "url", backupURL, "err", err)
			continue
		}
		transports = append(transports, t)
		closers = append(closers, closeFn)
	}

	failover, err := rpcclient.NewFailoverTransport(transports,
		rpcclient.WithFailoverLogger(c.lggr.Named("failover")),
	)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return failover, closeAll, nil
}

// loadConfig loads the configuration named by the persistent --config flag.
func (c *Commands) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	return c.deps.ConfigLoader(path)
}
