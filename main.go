package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kova98/gigscout.api/config"
	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/data/repos"
	"github.com/kova98/gigscout.api/events"
	"github.com/kova98/gigscout.api/handlers"
	"github.com/kova98/gigscout.api/metrics"
	"github.com/kova98/gigscout.api/notifiers"
	"github.com/kova98/gigscout.api/schedulers"
	"github.com/kova98/gigscout.api/sources"
)

var auth *handlers.AuthHandler

//go:embed data/migrations/*.sql
var embedMigrations embed.FS

func main() {
	config.LoadConfig()

	logger := newLogger()
	slog.SetDefault(logger)

	db, err := sqlx.Connect("postgres", config.Config.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}

	db.SetMaxOpenConns(90)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := data.RunMigrations(db.DB, embedMigrations); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	usersRepo := repos.NewUserRepo(db)
	listingRepo := repos.NewListingRepo(db)
	preferenceRepo := repos.NewPreferenceRepo(db)
	emailLogRepo := repos.NewEmailLogRepo(db)
	scrapeRunRepo := repos.NewScrapeRunRepo(db)

	clients, err := sources.NewClientProvider(config.Config.ProxyURLs)
	if err != nil {
		slog.Error("failed to create http client provider", "error", err)
		os.Exit(1)
	}
	language, err := sources.NewLanguageGate(config.Config.ListingLanguages)
	if err != nil {
		slog.Error("failed to create language gate", "error", err)
		os.Exit(1)
	}

	orchestrator := sources.NewOrchestrator(logger, sources.NewWriter(listingRepo), m, newSources(clients, language)...)
	scraper := schedulers.NewScrapeScheduler(ctx, logger, orchestrator, config.Config.ScrapeInterval, m)
	scraper.OnRunComplete(scrapeRunRepo.SaveRun)

	if config.Config.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, config.Config.RedisURL)
		if err != nil {
			slog.Warn("scrape run events disabled", "error", err)
		} else {
			publisher := events.NewRedisPublisher(rdb)
			defer publisher.Close()
			scraper.OnRunComplete(publisher.Publish)
		}
	}

	if err := scraper.LoadLastRun(ctx, scrapeRunRepo); err != nil {
		slog.Warn("failed to load last scrape run", "error", err)
	}

	mailer := notifiers.NewMailer(config.Config.EmailFrom, config.Config.EmailReplyTo, config.Config.AppBaseURL)
	sender := newSender(logger)
	notifier := notifiers.NewNotifier(logger, listingRepo, preferenceRepo, emailLogRepo, mailer, sender, m, notifiers.Schedule{
		DigestHour:    config.Config.DigestHour,
		TrendsWeekday: config.Config.TrendsWeekday,
		TrendsHour:    config.Config.TrendsHour,
		Location:      config.Config.Location,
	})
	emailScheduler := schedulers.NewEmailScheduler(ctx, logger, notifier, schedulers.EmailIntervals{
		PerfectMatch: config.Config.PerfectMatchInterval,
		DailyDigest:  config.Config.DigestInterval,
		WeeklyTrends: config.Config.TrendsInterval,
		InitialDelay: config.Config.EmailInitialDelay,
	})

	if config.Config.EnableScrapeScheduler {
		if err := scraper.Start(); err != nil {
			slog.Error("failed to start scrape scheduler", "error", err)
			os.Exit(1)
		}
	}
	if config.Config.EnableEmailScheduler {
		if err := emailScheduler.Start(); err != nil {
			slog.Error("failed to start email scheduler", "error", err)
			os.Exit(1)
		}
	}

	keycloakClient := gocloak.NewClient(config.Config.KeycloakURL)
	auth = handlers.NewAuthHandler(keycloakClient)
	go auth.StartTokenTicker(ctx)

	users := handlers.NewUserHandler(usersRepo)
	listings := handlers.NewListingHandler(listingRepo)
	preferences := handlers.NewPreferenceHandler(preferenceRepo)
	scraperHandler := handlers.NewScraperHandler(scraper, clients)
	emails := handlers.NewEmailHandler(emailScheduler, notifier)
	feedback := handlers.NewFeedbackHandler(sender, config.Config.EmailFrom, config.Config.FeedbackEmail)
	health := handlers.NewHealthHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", public(health.GetHealth))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mux.HandleFunc("POST /users/init", private(users.InitializeUser))

	mux.HandleFunc("GET /listings", private(listings.GetListings))

	mux.HandleFunc("GET /preferences", private(preferences.GetPreferences))
	mux.HandleFunc("PUT /preferences", private(preferences.UpdatePreferences))
	mux.HandleFunc("DELETE /preferences", private(preferences.DeletePreferences))

	mux.HandleFunc("GET /scraper/status", private(scraperHandler.GetStatus))
	mux.HandleFunc("POST /scraper/start", private(scraperHandler.Start))
	mux.HandleFunc("POST /scraper/stop", private(scraperHandler.Stop))
	mux.HandleFunc("POST /scraper/run", private(scraperHandler.Run))

	mux.HandleFunc("GET /emails/status", private(emails.GetStatus))
	mux.HandleFunc("POST /emails/start", private(emails.Start))
	mux.HandleFunc("POST /emails/stop", private(emails.Stop))
	mux.HandleFunc("POST /emails/checks/{check}", private(emails.RunCheck))
	mux.HandleFunc("GET /emails/stats", private(emails.GetStats))

	mux.HandleFunc("POST /feedback", private(feedback.SubmitFeedback))

	server := &http.Server{
		Addr:              config.Config.HTTPAddr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		defer close(stopped)
		<-sigCh
		slog.Info("shutting down")
		scraper.Stop()
		emailScheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", config.Config.HTTPAddr, "email_provider", config.Config.EmailProvider)
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
	} else {
		slog.Error("failed to start server", "error", err)
	}

	if err := db.Close(); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}
}

func newLogger() *slog.Logger {
	if config.Config.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.Config.LogLevel}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      config.Config.LogLevel,
		TimeFormat: time.TimeOnly,
	}))
}

func newSources(clients sources.ClientProvider, language *sources.LanguageGate) []sources.Source {
	list := []sources.Source{
		sources.NewIndeedSource(config.Config.IndeedRSSURL, clients, language),
		sources.NewRemoteOKSource(config.Config.RemoteOKAPIURL, clients, language),
	}
	if config.Config.EnableSampleSource {
		list = append(list, sources.NewSampleSource(language))
	}
	return list
}

func newSender(logger *slog.Logger) notifiers.Sender {
	switch config.Config.EmailProvider {
	case config.EmailProviderResend:
		return notifiers.NewResendSender(config.Config.ResendAPIKey, notifiers.DefaultResendURL)
	case config.EmailProviderSMTP:
		return notifiers.NewSMTPSender(
			config.Config.SMTPHost,
			config.Config.SMTPPort,
			config.Config.EmailFrom,
			config.Config.SMTPPassword,
		)
	default:
		return notifiers.NewLogSender(logger)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func private(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := auth.GetUser(r.Context(), r.Header.Get("Authorization"))
		if result.Code != http.StatusOK {
			slog.Debug("unauthorized request", "path", r.URL.Path)
			writeResult(w, result)
			return
		}

		user := result.Body.(data.User)
		public(handler)(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	}
}

func public(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := time.Now()
		res := handler(w, r)
		elapsedMs := time.Since(ts).Milliseconds()
		slog.Debug("req", "method", r.Method, "path", r.URL.Path, "code", res.Code, "elapsed", elapsedMs)
		writeResult(w, res)
	}
}

func writeResult(w http.ResponseWriter, res handlers.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)
	if res.Body != nil {
		if err := json.NewEncoder(w).Encode(res.Body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
	if res.Error != nil {
		slog.Error("request failed", "code", res.Code, "error", res.Error.Error())
	}
}
