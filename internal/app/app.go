// Package app wires the shellbus components together with a samber/do
// injector. Every component is built lazily the first time something asks
// for it, so commands that only need the catalog never dial a relay.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/codec"
	"github.com/nfrund/shellbus/internal/config"
	"github.com/nfrund/shellbus/internal/hub"
	"github.com/nfrund/shellbus/internal/pubsub"
	"github.com/nfrund/shellbus/internal/server"
	"github.com/nfrund/shellbus/internal/topicmgr"
	"github.com/nfrund/shellbus/internal/topics"
	"github.com/nfrund/shellbus/internal/transport"
)

// App owns the injector and the shutdown order of what it built.
type App struct {
	injector *do.RootScope
	cfg      *config.Config
	origin   string
	logger   *slog.Logger

	closers []func()
}

// tracing holds the tracer returned by SetupOTel. Its flush runs on Shutdown.
type tracing struct {
	tracer  trace.Tracer
	enabled bool
}

// relayHolder lets a nil relay (transport "none" or a failed dial) live in
// the injector.
type relayHolder struct {
	relay channel.Relay
}

// New prepares the injector. Nothing is dialed until first use.
func New(ctx context.Context, cfg *config.Config) *App {
	origin := cfg.Origin
	if origin == "" {
		origin = uuid.NewString()
	}
	a := &App{
		injector: do.New(),
		cfg:      cfg,
		origin:   origin,
		logger:   slog.Default().With("component", "app", "origin", origin),
	}

	do.ProvideValue(a.injector, cfg)
	do.Provide(a.injector, a.provideMetricsRegistry)
	do.Provide(a.injector, a.provideChannelMetrics)
	do.Provide(a.injector, func(i do.Injector) (*tracing, error) {
		return a.provideTracing(ctx, i)
	})
	do.Provide(a.injector, func(i do.Injector) (*relayHolder, error) {
		return a.provideRelay(ctx, i)
	})
	do.Provide(a.injector, a.provideRegistry)
	do.Provide(a.injector, a.provideCatalog)
	do.Provide(a.injector, a.provideHub)
	do.Provide(a.injector, a.provideServer)
	return a
}

// Origin is the identifier of this process's channel registry.
func (a *App) Origin() string { return a.origin }

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Registry returns the channel registry, dialing the relay if needed.
func (a *App) Registry() (*channel.Registry, error) {
	return do.Invoke[*channel.Registry](a.injector)
}

// Catalog returns the topic catalog with the shell topics registered.
func (a *App) Catalog() (*topicmgr.Manager, error) {
	return do.Invoke[*topicmgr.Manager](a.injector)
}

// Server returns the relay hub HTTP server.
func (a *App) Server() (*server.Server, error) {
	return do.Invoke[*server.Server](a.injector)
}

// MetricsRegistry returns the prometheus registry every component reports to.
func (a *App) MetricsRegistry() (*prometheus.Registry, error) {
	return do.Invoke[*prometheus.Registry](a.injector)
}

// Shutdown releases what was built, most recent first.
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.injector.Shutdown()
}

func (a *App) onShutdown(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) provideMetricsRegistry(do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

func (a *App) provideChannelMetrics(i do.Injector) (*channel.Metrics, error) {
	reg, err := do.Invoke[*prometheus.Registry](i)
	if err != nil {
		return nil, err
	}
	return channel.NewMetrics(reg), nil
}

func (a *App) provideTracing(ctx context.Context, _ do.Injector) (*tracing, error) {
	tracer, cleanup, err := pubsub.SetupOTel(ctx, a.cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.onShutdown(cleanup)
	return &tracing{tracer: tracer, enabled: a.cfg.Tracing.Enabled}, nil
}

func (a *App) provideRelay(ctx context.Context, i do.Injector) (*relayHolder, error) {
	opts := transport.Options{
		Kind:     transport.Kind(a.cfg.Transport),
		Origin:   a.origin,
		NATSURL:  a.cfg.NATSURL,
		RedisURL: a.cfg.RedisURL,
		HubURL:   a.cfg.HubURL,
	}
	if opts.Kind == transport.KindWatermill {
		t, err := do.Invoke[*tracing](i)
		if err != nil {
			return nil, err
		}
		if t.enabled {
			opts.Tracer = t.tracer
		}
	}

	relay, err := transport.New(ctx, opts)
	if err != nil {
		if errors.Is(err, transport.ErrUnknownTransport) {
			return nil, err
		}
		// A context that cannot reach its peers still works locally.
		a.logger.Warn("Relay unavailable, continuing without one",
			"transport", a.cfg.Transport,
			"error", err)
		return &relayHolder{}, nil
	}
	if relay != nil {
		a.logger.Info("Relay connected", "transport", a.cfg.Transport)
		a.onShutdown(func() {
			if err := relay.Close(); err != nil {
				a.logger.Warn("Failed to close relay", "error", err)
			}
		})
	}
	return &relayHolder{relay: relay}, nil
}

func (a *App) provideRegistry(i do.Injector) (*channel.Registry, error) {
	delivery, err := channel.ParseDelivery(a.cfg.Delivery)
	if err != nil {
		return nil, err
	}
	c, err := codec.ByName(a.cfg.Codec)
	if err != nil {
		return nil, err
	}
	metrics, err := do.Invoke[*channel.Metrics](i)
	if err != nil {
		return nil, err
	}
	holder, err := do.Invoke[*relayHolder](i)
	if err != nil {
		return nil, err
	}

	opts := []channel.Option{
		channel.WithOrigin(a.origin),
		channel.WithDelivery(delivery),
		channel.WithCodec(c),
		channel.WithMetrics(metrics),
	}
	if holder.relay != nil {
		opts = append(opts, channel.WithRelay(holder.relay))
	}
	reg := channel.NewRegistry(opts...)
	a.onShutdown(reg.Close)
	return reg, nil
}

func (a *App) provideCatalog(do.Injector) (*topicmgr.Manager, error) {
	m := topicmgr.Default()
	if err := topics.Register(m); err != nil {
		return nil, fmt.Errorf("register shell topics: %w", err)
	}
	return m, nil
}

func (a *App) provideHub(i do.Injector) (*hub.Hub, error) {
	reg, err := do.Invoke[*prometheus.Registry](i)
	if err != nil {
		return nil, err
	}
	return hub.NewHub(hub.NewMetrics(reg)), nil
}

func (a *App) provideServer(i do.Injector) (*server.Server, error) {
	h, err := do.Invoke[*hub.Hub](i)
	if err != nil {
		return nil, err
	}
	catalog, err := do.Invoke[*topicmgr.Manager](i)
	if err != nil {
		return nil, err
	}
	reg, err := do.Invoke[*prometheus.Registry](i)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithSendBuffer(a.cfg.SendBuffer),
		server.WithConnectRate(a.cfg.ConnectRate),
	}
	if len(a.cfg.OriginPatterns) > 0 {
		opts = append(opts, server.WithOriginPatterns(a.cfg.OriginPatterns...))
	}
	return server.New(h, catalog, reg, opts...), nil
}
