package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/fardannozami/ecotrace-leaderboard/internal/app/usecase"
	"github.com/fardannozami/ecotrace-leaderboard/internal/config"
	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
	"github.com/fardannozami/ecotrace-leaderboard/internal/infra/cache"
	"github.com/fardannozami/ecotrace-leaderboard/internal/infra/httpapi"
	"github.com/fardannozami/ecotrace-leaderboard/internal/infra/sqlite"
	"github.com/fardannozami/ecotrace-leaderboard/internal/infra/wa"
	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
	"github.com/fardannozami/ecotrace-leaderboard/internal/logger"
)

const profileCacheExpiry = 10 * time.Minute

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Logger
	log := logger.New(logger.Config{Writer: os.Stdout, Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Database & Repositories
	db, err := openDB(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	activityRepo := sqlite.NewActivityRepository(db, loc)
	if err := userRepo.InitTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to init user tables")
	}
	if err := activityRepo.InitTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to init activity tables")
	}

	profiles := cache.NewUserDirectory(userRepo, cfg.ProfileCacheSize, profileCacheExpiry)
	users := cache.NewUserRepository(userRepo, profiles)

	// 4. Use Cases
	board := usecase.NewLeaderboardService(activityRepo, profiles, userRepo, domain.SystemClock, usecase.LeaderboardOptions{
		Location:         loc,
		Limits:           cfg.Limits(),
		CacheTTL:         cfg.CacheTTL,
		FetchConcurrency: cfg.FetchConcurrency,
		Logger:           log.With().Str("component", "leaderboard").Logger(),
	})
	periods := leaderboard.NewPeriodClock(loc)

	materializeUC := usecase.NewMaterializeRecurringUsecase(activityRepo, domain.SystemClock, periods, board, log.With().Str("component", "recurring").Logger())
	logUC := usecase.NewLogActivityUsecase(users, activityRepo, domain.SystemClock, periods, board)
	recurUC := usecase.NewCreateRecurringUsecase(users, activityRepo, domain.SystemClock, periods, materializeUC)
	friendUC := usecase.NewAddFriendUsecase(users, userRepo)
	boardUC := usecase.NewGetLeaderboardUsecase(board)
	handleMessageUC := usecase.NewHandleMessageUsecase(users, logUC, recurUC, friendUC, boardUC)

	g, gctx := errgroup.WithContext(ctx)

	// 5. Recurring activities
	g.Go(func() error {
		materializeUC.Run(gctx, cfg.RecurringEvery)
		return nil
	})

	// 6. REST API
	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewServer(board, cfg.CORSOrigins, log.With().Str("component", "http").Logger()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("REST API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// 7. WhatsApp
	if cfg.WAEnabled {
		waService := wa.NewService(cfg.SQLitePath, log)
		responder := wa.NewResponder(handleMessageUC, userRepo, wa.ResponderConfig{
			GroupID:         cfg.GroupID,
			ReplyDelayMinMs: cfg.ReplyDelayMinMs,
			ReplyDelayMaxMs: cfg.ReplyDelayMaxMs,
			ShowTyping:      cfg.ShowTyping,
		}, log.With().Str("component", "bot").Logger())
		waService.SetMessageHandler(responder.Handle)

		if err := startWhatsApp(gctx, waService, cfg.BotPhone, log); err != nil {
			log.Fatal().Err(err).Msg("failed to start WhatsApp service")
		}
		defer waService.Disconnect()
	}

	log.Info().Msg("Bot is running... Press Ctrl+C to exit.")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutting down after error")
		return
	}
	log.Info().Msg("Shutting down...")
}

// openDB enables WAL and a busy timeout so the bot, the REST API and
// whatsmeow can share one file without "database is locked" errors.
func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	return sql.Open("sqlite", dsn)
}

func startWhatsApp(ctx context.Context, waService *wa.Service, botPhone string, log zerolog.Logger) error {
	// Initialize Client (DB, Device, etc) - DO NOT CONNECT YET
	if err := waService.Initialize(ctx); err != nil {
		return err
	}

	if waService.IsLoggedIn() {
		if err := waService.Connect(); err != nil {
			return err
		}
		log.Info().Msg("Client is already logged in.")
		return nil
	}

	if botPhone == "" {
		log.Info().Msg("Not logged in. BOT_PHONE not set. Printing QR...")
		// PrintQR handles GetQRChannel AND Connect() internally to ensure no race condition
		go waService.PrintQR(ctx)
		return nil
	}

	// Pair Code Mode, must connect first to pair
	if err := waService.Connect(); err != nil {
		return fmt.Errorf("connect for pairing: %w", err)
	}
	log.Info().Str("phone", botPhone).Msg("Not logged in. Attempting to pair")
	code, err := waService.Pair(ctx, botPhone)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate pair code")
		return nil
	}
	log.Info().Str("code", code).Msg("PAIR CODE: verify on WhatsApp (Linked Devices > Link with phone number)")
	return nil
}
