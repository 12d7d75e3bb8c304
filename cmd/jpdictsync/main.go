// Command jpdictsync keeps a local sqlite copy of the words/kanji/names/
// radicals dictionary series synchronised with a server-published version.
// It runs in two modes: "sync" performs one pass over the configured series
// and exits; "serve" repeats that pass on an interval and exposes Prometheus
// metrics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpdictsync/jpdictsync/internal/config"
	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/httpclient"
	"github.com/jpdictsync/jpdictsync/internal/metrics"
	"github.com/jpdictsync/jpdictsync/internal/safeurl"
	"github.com/jpdictsync/jpdictsync/internal/store"
	"github.com/jpdictsync/jpdictsync/internal/store/sqlitestore"
	"github.com/jpdictsync/jpdictsync/internal/update"
)

func main() {
	mode := "sync"
	if len(os.Args) > 1 && !flagLike(os.Args[1]) {
		mode = os.Args[1]
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}

	envFile := flag.String("env-file", ".env", "optional .env file to load before reading JPDICTSYNC_* vars")
	baseURL := flag.String("base-url", "", "override JPDICTSYNC_BASE_URL")
	series := flag.String("series", "", "override JPDICTSYNC_SERIES (comma-separated)")
	lang := flag.String("lang", "", "override JPDICTSYNC_LANG")
	storePath := flag.String("store", "", "override JPDICTSYNC_STORE_PATH")
	metricsAddr := flag.String("metrics-addr", "", "override JPDICTSYNC_METRICS_ADDR (serve mode)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("jpdictsync: warning: could not load %s: %v", *envFile, err)
	}
	if *baseURL != "" {
		os.Setenv("JPDICTSYNC_BASE_URL", *baseURL)
	}
	if *series != "" {
		os.Setenv("JPDICTSYNC_SERIES", *series)
	}
	if *lang != "" {
		os.Setenv("JPDICTSYNC_LANG", *lang)
	}
	if *storePath != "" {
		os.Setenv("JPDICTSYNC_STORE_PATH", *storePath)
	}
	if *metricsAddr != "" {
		os.Setenv("JPDICTSYNC_METRICS_ADDR", *metricsAddr)
	}

	cfg := config.Load()
	if cfg.BaseURL == "" {
		log.Fatal("jpdictsync: JPDICTSYNC_BASE_URL is required")
	}
	if !safeurl.IsHTTPOrHTTPS(cfg.BaseURL) {
		log.Fatalf("jpdictsync: JPDICTSYNC_BASE_URL %q must be http or https", cfg.BaseURL)
	}
	rps := cfg.RateLimitPerSecond
	if rps <= 0 {
		rps = math.MaxFloat64 // rate.Inf: no pacing
	}
	httpclient.SetHostRateLimit(cfg.BaseURL, rps, 4)

	m := metrics.New()
	st := sqlitestore.New(cfg.StorePath)
	if err := st.Open(); err != nil {
		log.Fatalf("jpdictsync: open store: %v", err)
	}
	defer st.Destroy()

	switch mode {
	case "sync":
		runSyncPass(context.Background(), cfg, st, m)
	case "serve":
		serve(cfg, st, m)
	default:
		log.Fatalf("jpdictsync: unknown mode %q (want sync or serve)", mode)
	}
}

func flagLike(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

// runSyncPass runs one Update per configured series, logging progress and
// errors; a single series failing does not stop the others.
func runSyncPass(ctx context.Context, cfg *config.Config, st store.Store, m *metrics.Metrics) {
	for _, series := range cfg.Series {
		current, ok, err := st.GetDataVersion(series)
		if err != nil {
			log.Printf("jpdictsync[%s]: read current version: %v", series, err)
			continue
		}
		var cur *dictmodel.CurrentVersion
		if ok {
			cur = &dictmodel.CurrentVersion{Version: current.Version, PartInfo: current.PartInfo}
		}

		err = update.Run(ctx, update.Request{
			BaseURL:         cfg.BaseURL,
			Series:          series,
			MajorVersion:    cfg.MajorVersion,
			Lang:            cfg.Lang,
			CurrentVersion:  cur,
			Store:           st,
			BatchSize:       cfg.BatchSize,
			ProgressEpsilon: cfg.ProgressEpsilon,
			Metrics:         m,
			Callback: func(cb update.Callback) {
				switch cb.Kind {
				case update.CallbackParseError:
					log.Printf("jpdictsync[%s]: parse error: %s", series, cb.Message)
				case update.CallbackUpdateEnd:
					log.Printf("jpdictsync[%s]: up to date", series)
				}
			},
		})
		if err != nil {
			log.Printf("jpdictsync[%s]: sync failed: %v", series, err)
		}
	}
}

func serve(cfg *config.Config, st store.Store, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("jpdictsync: metrics listening on %s", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("jpdictsync: metrics server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	runSyncPass(ctx, cfg, st, m)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-ticker.C:
			runSyncPass(ctx, cfg, st, m)
		case <-sig:
			cancel()
			fmt.Println("shutting down")
			return
		}
	}
}
