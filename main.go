// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/ariebrainware/medlink/endpoint"
	"github.com/ariebrainware/medlink/middleware"
	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"github.com/ariebrainware/medlink/service"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medlink",
		Short: "MedLink appointment booking API",
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedCmd(), geoipCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return migrate(db)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed roles and the admin account from ADMIN_EMAIL/ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			if err := migrate(db); err != nil {
				return err
			}
			return seedAdmin(db, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))
		},
	}
}

func geoipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geoip",
		Short: "Manage the GeoIP database used by security logs",
	}

	download := &cobra.Command{
		Use:   "download <url>",
		Short: "Download an .mmdb (optionally .gz) file to GEOIP_DB_PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			dest, _ := cmd.Flags().GetString("out")
			if dest == "" {
				dest = os.Getenv("GEOIP_DB_PATH")
			}
			if dest == "" {
				return errors.New("no destination: pass --out or set GEOIP_DB_PATH")
			}
			path, err := util.DownloadGeoIP(cmd.Context(), args[0], dest)
			if err != nil {
				return err
			}
			if err := util.ValidateGeoIP(path); err != nil {
				return fmt.Errorf("downloaded file is not a valid GeoIP database: %w", err)
			}
			util.Logger().Info().Str("path", path).Msg("GeoIP database installed")
			return nil
		},
	}
	download.Flags().String("out", "", "destination path (defaults to GEOIP_DB_PATH)")
	cmd.AddCommand(download)
	return cmd
}

func openDB() (*gorm.DB, error) {
	cfg := config.LoadConfig()
	util.InitLogger(cfg.AppEnv)
	db, err := config.ConnectMySQL()
	if err != nil {
		return nil, fmt.Errorf("error connecting to MySQL: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return model.SeedRoles(db)
}

// seedAdmin creates the ADMIN account when no user owns email yet.
func seedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		util.Logger().Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		util.Logger().Info().Str("email", email).Msg("admin already exists")
		return nil
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := util.HashPasswordArgon2(password, salt)
	if err != nil {
		return err
	}
	admin := model.User{Name: "Administrator", Email: email, Password: hash, PasswordSalt: salt, RoleID: model.RoleIDAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	util.Logger().Info().Str("email", email).Uint("user_id", admin.ID).Msg("admin created")
	return nil
}

func runServer() error {
	cfg := config.LoadConfig()
	logger := util.InitLogger(cfg.AppEnv)
	util.SetJWTSecret(os.Getenv("JWTSECRET"))

	db, err := config.ConnectMySQL()
	if err != nil {
		logger.Fatal().Err(err).Msg("error connecting to MySQL")
	}
	if err := migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	rdb, err := config.ConnectRedis()
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, sessions fall back to the database")
	}
	if err := util.InitGeoIP(""); err != nil {
		logger.Warn().Err(err).Msg("GeoIP disabled")
	}
	defer util.CloseGeoIP()
	util.InitUserEmailCacheFromEnv()
	util.SetSecurityLoggerDB(db)

	notifier, closeNotifier, err := notify.New(cfg, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier setup failed")
	}
	defer func() { _ = closeNotifier() }()

	sched := service.NewScheduler(
		scheduling.NewGenerator(time.Duration(cfg.SlotMinutes)*time.Minute, cfg.Location()),
		notifier,
	)

	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.SchedulerMiddleware(sched))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})
	endpoint.RegisterRoutes(router, middleware.RateLimitConfig{})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("error starting server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	hits, misses, size := util.GetGeoIPCacheMetrics()
	logger.Info().
		Int64("geoip_cache_hits", hits).
		Int64("geoip_cache_misses", misses).
		Int("geoip_cache_size", size).
		Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
