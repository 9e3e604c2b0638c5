package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prontuario/prontuario/internal/config"
	"github.com/prontuario/prontuario/internal/domain/anamnesis"
	"github.com/prontuario/prontuario/internal/domain/consultation"
	"github.com/prontuario/prontuario/internal/domain/dashboard"
	"github.com/prontuario/prontuario/internal/domain/exam"
	"github.com/prontuario/prontuario/internal/domain/note"
	"github.com/prontuario/prontuario/internal/domain/patient"
	"github.com/prontuario/prontuario/internal/domain/prescription"
	"github.com/prontuario/prontuario/internal/domain/search"
	"github.com/prontuario/prontuario/internal/platform/auth"
	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
	"github.com/prontuario/prontuario/internal/platform/middleware"
)

// patientGuardAdapter adapts the patient repository to the consultation
// package's PatientGuard, supplying the stamp time so the two packages do
// not have to agree on a clock.
type patientGuardAdapter struct {
	repo patient.Repository
}

func (a *patientGuardAdapter) Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error) {
	return a.repo.Exists(ctx, doctorID, id)
}

func (a *patientGuardAdapter) SetLastConsultationDate(ctx context.Context, doctorID, patientID uuid.UUID) error {
	return a.repo.SetLastConsultationDate(ctx, doctorID, patientID, time.Now())
}

// consultationGuardAdapter answers ownership checks against the consultation
// repository for packages that reference consultations by id.
type consultationGuardAdapter struct {
	repo consultation.Repository
}

func (a *consultationGuardAdapter) Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error) {
	_, err := a.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "prontuario-server",
		Short: "Prontuário API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a backup or write a compensating migration instead.")
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API group. Auth and audit are scoped here so the health endpoints
	// stay reachable without a token.
	apiV1 := e.Group("/api/v1")

	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}
	apiV1.Use(middleware.Audit(logger))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	patientRepo := patient.NewRepoPG(pool)
	consultationRepo := consultation.NewRepoPG(pool)
	anamnesisRepo := anamnesis.NewRepoPG(pool)
	examRepo := exam.NewRepoPG(pool)
	prescriptionRepo := prescription.NewRepoPG(pool)
	noteRepo := note.NewRepoPG(pool)

	consultationGuard := &consultationGuardAdapter{repo: consultationRepo}

	// Services
	patientSvc := patient.NewService(patientRepo, pool, logger)
	consultationSvc := consultation.NewService(consultationRepo, &patientGuardAdapter{repo: patientRepo}, pool, logger)
	anamnesisSvc := anamnesis.NewService(anamnesisRepo, patientRepo, pool, logger)
	examSvc := exam.NewService(examRepo, patientRepo, consultationGuard, pool, logger)
	prescriptionSvc := prescription.NewService(prescriptionRepo, patientRepo, consultationGuard, prescription.StubPDFGenerator{}, pool, logger)
	noteSvc := note.NewService(noteRepo, patientRepo, pool, logger)

	searchSvc := search.NewService(patientSvc, consultationSvc, noteSvc, examSvc, prescriptionSvc, logger)

	dashboardSvc := dashboard.NewService(
		map[string]dashboard.StatsSource{
			"patients":      patientRepo,
			"consultations": consultationRepo,
			"anamneses":     anamnesisRepo,
			"exams":         examRepo,
			"prescriptions": prescriptionRepo,
			"notes":         noteRepo,
		},
		consultationRepo,
		examRepo,
		prescriptionRepo,
		logger,
	)

	// Routes
	patient.NewHandler(patientSvc, logger).RegisterRoutes(apiV1)
	consultation.NewHandler(consultationSvc, logger).RegisterRoutes(apiV1)
	anamnesis.NewHandler(anamnesisSvc, logger).RegisterRoutes(apiV1)
	exam.NewHandler(examSvc, logger).RegisterRoutes(apiV1)
	prescription.NewHandler(prescriptionSvc, logger).RegisterRoutes(apiV1)
	note.NewHandler(noteSvc, logger).RegisterRoutes(apiV1)
	search.NewHandler(searchSvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc, logger).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
