package main

import (
	"fmt"
	"io"

	"github.com/goliatone/go-authflow"
	"github.com/goliatone/go-authflow/activitymap"
	"github.com/goliatone/go-authflow/authclient"
	"github.com/goliatone/go-authflow/config"
	"github.com/goliatone/go-authflow/i18n"
	"github.com/goliatone/go-authflow/logging"
	"github.com/goliatone/go-authflow/metrics"
	"github.com/goliatone/go-authflow/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requiredCatalogKeys must resolve to a message in every catalog.
var requiredCatalogKeys = []string{
	"formError.required",
	"formError.invalidEmail",
	"formError.invalidAge",
}

func loadCatalog(path string) (*i18n.Catalog, error) {
	catalog := i18n.Default()
	if path == "" {
		return catalog, nil
	}
	custom, err := i18n.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.Merge(custom), nil
}

// buildServer wires the auth client, catalog, metrics and logging into a
// screen server.
func buildServer(cfg *config.Config, out io.Writer) (*server.Server, error) {
	logger := logging.NewAdapter(logging.Setup("authflow", cfg.Log.Format, cfg.Log.Level, out))

	clientOpts := []authclient.Option{
		authclient.WithTimeout(cfg.Auth.Timeout),
		authclient.WithLogger(logger.Named("authclient")),
	}
	if cfg.Auth.APIKey != "" {
		clientOpts = append(clientOpts, authclient.WithHeader("Authorization", "Bearer "+cfg.Auth.APIKey))
	}
	client, err := authclient.New(cfg.Auth.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	if missing := catalog.Missing(requiredCatalogKeys...); len(missing) > 0 {
		return nil, fmt.Errorf("catalog is missing %v", missing)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sink := metrics.NewSink(reg)

	return server.New(client,
		server.WithLinker(client),
		server.WithTranslator(catalog),
		server.WithFormsConfig(cfg.Forms),
		server.WithActivitySink(authflow.MultiSink(sink, activitymap.LogSink(logger.Named("activity")))),
		server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		server.WithLogger(logger.Named("server")),
		server.WithDebug(cfg.Debug),
		server.WithSessionTTL(cfg.HTTP.SessionTTL),
	), nil
}
