package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pricehound/amazon-uk-scraper/internal/batch"
	"github.com/pricehound/amazon-uk-scraper/internal/browser"
	"github.com/pricehound/amazon-uk-scraper/internal/config"
	"github.com/pricehound/amazon-uk-scraper/internal/database"
	"github.com/pricehound/amazon-uk-scraper/internal/events"
	"github.com/pricehound/amazon-uk-scraper/internal/input"
	"github.com/pricehound/amazon-uk-scraper/internal/scraper"
	"github.com/pricehound/amazon-uk-scraper/internal/storage"
	"github.com/pricehound/amazon-uk-scraper/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		urlFlag      = flag.String("url", "", "single product URL or ASIN to scrape")
		fileFlag     = flag.String("file", "", "CSV file with product URLs for a batch run")
		postcodeFlag = flag.String("postcode", "", "delivery postcode override")
		headlessFlag = flag.Bool("headless", false, "run the browser headless")
		noCookies    = flag.Bool("no-cookies", false, "ignore and do not persist session cookies")
		outputFlag   = flag.String("output", "", "output file path")
		configFlag   = flag.String("config", "config/settings.json", "config file path")
	)
	flag.Parse()

	if *urlFlag == "" && *fileFlag == "" {
		return fmt.Errorf("either --url or --file is required")
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags explicitly set on the command line win over file and env.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "postcode":
			cfg.Session.Postcode = *postcodeFlag
		case "headless":
			cfg.Session.Headless = *headlessFlag
		case "no-cookies":
			cfg.Session.UseCookies = !*noCookies
			cfg.Session.SaveCookies = !*noCookies
		}
	})

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Warn("interrupt received, finishing current item")
		cancel()
	}()

	session, err := browser.New(&browser.Options{
		Headless:       cfg.Session.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
		ScreenshotDir:  cfg.Session.ScreenshotDir,
		CookiePath:     cfg.Session.CookiePath,
		UseCookies:     cfg.Session.UseCookies,
		SaveCookies:    cfg.Session.SaveCookies,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer session.Close()

	service := scraper.NewService(session, cfg.Session, log)
	defer service.Close()

	if *urlFlag != "" {
		return runSingle(ctx, service, *urlFlag, *outputFlag, log)
	}
	return runBatch(ctx, service, cfg, *fileFlag, *outputFlag, log)
}

func runSingle(ctx context.Context, service *scraper.Service, rawURL, output string, log *slog.Logger) error {
	url := input.CanonicalURL(rawURL)
	if !strings.HasPrefix(url, "http") {
		return fmt.Errorf("%w: %s", scraper.ErrInvalidURL, rawURL)
	}

	rec, err := service.ScrapeProduct(ctx, url)
	if err != nil {
		return err
	}

	if output == "" {
		output = fmt.Sprintf("data/product_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := storage.WriteJSON(output, rec); err != nil {
		return err
	}

	log.Info("product scraped",
		"title", rec.Title,
		"price", rec.Price,
		"price_type", rec.PriceType,
		"status", rec.Status,
		"output", output,
	)
	return nil
}

func runBatch(ctx context.Context, service *scraper.Service, cfg *config.Config, file, output string, log *slog.Logger) error {
	urls, err := input.LoadURLs(file)
	if err != nil {
		return err
	}

	if output == "" {
		output = fmt.Sprintf("data/batch_results_%s.csv", time.Now().Format("20060102_150405"))
	}
	store := storage.NewResultStore(output, log)
	orchestrator := batch.NewOrchestrator(service, store, log)

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		records := database.NewRecordStore(db, log)
		if err := records.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		orchestrator.DB = records
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		orchestrator.Events = events.NewPublisher(redisClient, cfg.Redis.Stream, log)
	}

	summary, err := orchestrator.Run(ctx, urls)
	if err != nil {
		return err
	}

	log.Info("batch finished",
		"total", summary.Total,
		"success", summary.Success,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"output", output,
	)
	return nil
}
