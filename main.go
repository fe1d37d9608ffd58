package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alexandernicoud/we-convolve/config"
	"github.com/alexandernicoud/we-convolve/internal/handlers"
	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/models"
	"github.com/alexandernicoud/we-convolve/internal/notify"
	"github.com/alexandernicoud/we-convolve/internal/operations/history"
	"github.com/alexandernicoud/we-convolve/internal/operations/sweep"
	"github.com/alexandernicoud/we-convolve/internal/repositories"
)

func main() {
	var (
		symbol     = flag.String("symbol", "", "asset symbol to sweep (required)")
		start      = flag.String("start", "2010-01-01", "series start date YYYY-MM-DD, inclusive")
		end        = flag.String("end", "", "series end date YYYY-MM-DD, exclusive (default: today)")
		runID      = flag.String("run-id", "", "run identifier (default: timestamp plus random suffix)")
		outDir     = flag.String("out-dir", "", "run root directory (default: OUT_DIR env or runs)")
		input      = flag.String("input", "", "load bars from a csv/json/parquet file instead of the database")
		formats    = flag.String("format", "csv,json,parquet", "comma-separated result table formats")
		workers    = flag.Int("workers", 0, "sweep workers (default: SWEEP_WORKERS env or NumCPU)")
		importOnly = flag.Bool("import", false, "import the input file into the database and exit")
	)
	flag.Parse()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "missing required -symbol")
		flag.Usage()
		os.Exit(2)
	}
	sym := strings.ToUpper(strings.TrimSpace(*symbol))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}

	// Setup database when configured, runs work file-only without it
	var db *gorm.DB
	if cfg.Database.Host != "" {
		db, err = setupDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to setup database", zap.Error(err))
			os.Exit(1)
		}
	}

	var (
		barRepo    *repositories.BarRepository
		resultRepo *repositories.ResultRepository
		runRepo    *repositories.RunRepository
	)
	if db != nil {
		barRepo = repositories.NewBarRepository(db)
		resultRepo = repositories.NewResultRepository(db)
		runRepo = repositories.NewRunRepository(db)
	}

	if *importOnly {
		if err := importSeries(barRepo, *input, sym, log); err != nil {
			log.Error("import failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	notifier, err := notify.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
	if err != nil {
		log.Warn("telegram disabled", zap.Error(err))
		notifier = nil
	}

	// Expose prometheus metrics while the sweep runs
	if cfg.Runner.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Runner.MetricsAddr, mux); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Warn("shutdown signal received, cancelling run")
		cancel()
	}()

	endDate := *end
	if endDate == "" {
		endDate = time.Now().UTC().Format("2006-01-02")
	}
	id := *runID
	if id == "" {
		id = time.Now().UTC().Format("20060102_150405") + "_" + uuid.NewString()[:6]
	}
	root := *outDir
	if root == "" {
		root = cfg.Runner.OutDir
	}

	sweepCfg := sweep.NewConfig()
	switch {
	case *workers > 0:
		sweepCfg.Workers = *workers
	case cfg.Runner.Workers > 0:
		sweepCfg.Workers = cfg.Runner.Workers
	}

	req := handlers.SweepRequest{
		Symbol:    sym,
		Start:     *start,
		End:       endDate,
		RunID:     id,
		RunDir:    filepath.Join(root, id),
		InputPath: *input,
		Formats:   splitFormats(*formats),
		Config:    sweepCfg,
	}

	h := handlers.NewSweepHandler(barRepo, resultRepo, runRepo, notifier, log)
	if err := h.Run(ctx, req); err != nil {
		log.Error("sweep failed", zap.String("run_id", id), zap.Error(err))
		os.Exit(1)
	}
}

func setupDatabase(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Auto migrate database schemas
	if err := db.AutoMigrate(&models.Bar{}, &models.SweepResult{}, &models.SweepRun{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// importSeries replaces the stored bars of a symbol with the contents
// of a local file.
func importSeries(barRepo *repositories.BarRepository, path, symbol string, log logger.Logger) error {
	if path == "" {
		return fmt.Errorf("-import needs -input")
	}
	if barRepo == nil {
		return fmt.Errorf("-import needs a configured database")
	}

	bars, err := history.LoadFile(path, symbol)
	if err != nil {
		return err
	}
	if err := barRepo.DeleteBySymbol(symbol); err != nil {
		return err
	}
	if err := barRepo.CreateBatch(bars); err != nil {
		return err
	}
	log.Info("series imported",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.String("first", bars[0].Date.Format("2006-01-02")),
		zap.String("last", bars[len(bars)-1].Date.Format("2006-01-02")))
	return nil
}

func splitFormats(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
