package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coolviki/paywise/config"
	"github.com/coolviki/paywise/pkg/memtable"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"github.com/coolviki/paywise/service/approval"
	"github.com/coolviki/paywise/service/dedupe"
	"github.com/coolviki/paywise/service/resolver"
	"github.com/coolviki/paywise/service/scraper"
	"github.com/coolviki/paywise/service/staging"
	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

const serviceName = "paywise-catalog"

type app struct {
	logger *zap.Logger

	workflow    approval.IWorkflow
	detector    *dedupe.Detector
	coordinator *scraper.Coordinator

	metrics  *http.Server
	shutdown func()
}

type rootFlags struct {
	metricsListen string
}

func newApp(flags *rootFlags) *app {
	conf := config.Load()
	logger := config.NewLogger(conf.Log)

	tracerProvider, shutdownOtel := otellib.InitOtel(serviceName, "local", conf.Jaeger)
	otel.SetTracerProvider(tracerProvider)

	db := conf.MySQL.MustConnect()

	provider := repository.NewProvider(db)
	catalogRepo := repository.NewCatalog()
	benefitRepo := repository.NewBenefit()
	campaignRepo := repository.NewCampaign()
	pendingRepo := repository.NewPending()
	mergeRepo := repository.NewMerge()

	res := resolver.New(catalogRepo, memtable.New(resolver.MemoSize))
	manager := staging.NewManager(provider, catalogRepo, benefitRepo, campaignRepo, pendingRepo, res,
		staging.WithBrandKeywords(conf.BrandKeywords),
	)

	workflow := approval.NewIWorkflowWrapper(
		approval.NewWorkflow(provider, catalogRepo, benefitRepo, campaignRepo, pendingRepo),
		tracerProvider.Tracer(serviceName), "approval::",
	)

	coordinator := scraper.NewCoordinator(provider, catalogRepo,
		scraper.NewFileExtractor(conf.Scraper.SourceDir), manager, res,
		scraper.Config{
			Banks:             conf.Scraper.Banks,
			RequestsPerSecond: conf.Scraper.RequestsPerSecond,
			Parallelism:       conf.Scraper.Parallelism,
		},
	)

	a := &app{
		logger: logger,

		workflow:    workflow,
		detector:    dedupe.NewDetector(provider, catalogRepo, mergeRepo),
		coordinator: coordinator,
	}

	listen := conf.Metrics.Listen
	if flags.metricsListen != "" {
		listen = flags.metricsListen
	}
	a.startMetrics(listen)

	a.shutdown = func() {
		a.stopMetrics()
		shutdownOtel()
		_ = db.Close()
		_ = logger.Sync()
	}
	return a
}

func (a *app) startMetrics(listen string) {
	if listen == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metrics = &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	go func() {
		err := a.metrics.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics listener stopped", zap.Error(err))
		}
	}()
}

func (a *app) stopMetrics() {
	if a.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.metrics.Shutdown(ctx); err != nil {
		a.logger.Error("shutdown metrics listener", zap.Error(err))
	}
}

func (a *app) context(cmd *cobra.Command) context.Context {
	return otellib.ToContext(cmd.Context(), a.logger)
}

// printYAML writes v to stdout
func printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// withApp builds the app for the duration of one command
func withApp(flags *rootFlags, fn func(cmd *cobra.Command, args []string, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := newApp(flags)
		defer a.shutdown()
		return fn(cmd, args, a)
	}
}

func main() {
	flags := &rootFlags{}

	rootCmd := cobra.Command{
		Use:          "catalog",
		Short:        "reconcile scraped card benefits into the catalog",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.metricsListen, "metrics-listen", "",
		"address serving /metrics while the command runs, overrides metrics.listen")

	rootCmd.AddCommand(
		scrapeCommand(flags),
		pendingCommand(flags),
		duplicatesCommand(flags),
		mergeCommand(flags),
		autoDedupeCommand(flags),
	)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Println("[ERROR]", err)
		os.Exit(1)
	}
}
