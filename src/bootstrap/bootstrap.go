// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package bootstrap builds the process-wide dependencies once at startup:
// the trust store snapshot, the Safe Browsing credential, the resolver and
// the pipeline. A missing credential or an unreadable trust store is fatal.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/metrics"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/safebrowsing"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/secrets"
	x509chain "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/truststore"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/version"
)

// KeySource fetches the API key from a secret store.
type KeySource interface {
	APIKey(ctx context.Context, secretID string) (string, error)
}

// App holds the dependencies shared by every request.
type App struct {
	Config   *config.Config
	Store    *truststore.Store
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   logger.Logger
}

type options struct {
	log       logger.Logger
	keySource KeySource
}

// Option customizes [New].
type Option func(*options)

// WithLogger sets the logger handed to the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithKeySource replaces the AWS Secrets Manager lookup.
func WithKeySource(s KeySource) Option {
	return func(o *options) { o.keySource = s }
}

// New wires the application from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewJSONLogger(io.Discard, true)
	}

	store, err := truststore.Load(cfg.Defaults.TrustStore)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: trust store: %w", err)
	}

	apiKey, err := resolveAPIKey(ctx, cfg, o.keySource)
	if err != nil {
		return nil, err
	}

	classifier, err := safebrowsing.New(safebrowsing.Config{
		Endpoint:      cfg.SafeBrowsing.Endpoint,
		APIKey:        apiKey,
		ClientID:      cfg.SafeBrowsing.ClientID,
		ClientVersion: version.Version,
		Timeout:       cfg.ClassifyTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	resolver := x509chain.NewAnchorResolver(store, cfg.Defaults.Port, cfg.ResolveTimeout(), version.Version)

	p := pipeline.New(classifier, resolver, pipeline.Config{
		Concurrency:  cfg.Defaults.Concurrency,
		BatchTimeout: cfg.BatchTimeout(),
		Logger:       o.log,
		Metrics:      m,
	})

	o.log.Printf("loaded %d trust anchors from %s", store.Len(), cfg.Defaults.TrustStore)

	return &App{
		Config:   cfg,
		Store:    store,
		Pipeline: p,
		Metrics:  m,
		Registry: reg,
		Logger:   o.log,
	}, nil
}

// resolveAPIKey prefers the configured key and falls back to the secret
// store when a secret ID is configured.
func resolveAPIKey(ctx context.Context, cfg *config.Config, src KeySource) (string, error) {
	if cfg.SafeBrowsing.APIKey != "" || cfg.SafeBrowsing.APIKeySecretID == "" {
		return cfg.SafeBrowsing.APIKey, nil
	}

	if src == nil {
		p, err := secrets.NewAWSProvider(ctx, cfg.SafeBrowsing.Region)
		if err != nil {
			return "", fmt.Errorf("bootstrap: %w", err)
		}
		src = p
	}

	key, err := src.APIKey(ctx, cfg.SafeBrowsing.APIKeySecretID)
	if err != nil {
		return "", fmt.Errorf("bootstrap: %w", err)
	}
	return key, nil
}
