package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/api"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/config"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/database"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/services"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogger(c)
	log.Info().Msg("Initializing app...")

	ctx := context.Background()

	if prefix := config.GetString(c, "SSM_PARAMETER_PATH", ""); prefix != "" {
		params, err := config.LoadSSM(ctx, prefix)
		if err != nil {
			log.Fatal().Err(err).Str("prefix", prefix).Msg("Error loading SSM parameters")
		}
		c = config.Merge(c, params)
		// levels may come from SSM too
		setupLogger(c)
	}

	db, err := openDatabase(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		models.GenerateColumnMismatchReport(db)
		return
	}

	currentDB := database.New(db)
	if err := currentDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}

	store, err := openFileStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing file store")
	}

	notifier := services.NewNotifierFromConfig(c)

	server, err := api.NewServer(c, currentDB, store, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go server.Sessions().RunJanitor(janitorCtx, time.Hour)

	run(server, listenToInterrupt, 30*time.Second)
}

type lifecycle interface {
	Start(errChannel chan<- error)
	ShutdownGracefully(timeout time.Duration)
}

// run blocks until the server fails or an interrupt arrives, then shuts the server down.
func run(server lifecycle, interrupt func(chan<- error), timeout time.Duration) error {
	// one slot each for Start and interrupt so neither blocks after shutdown
	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go interrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(timeout)
	return fatalErr
}

// setupLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
func setupLogger(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetString(c, "LOG_FORMAT", "console") == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func openDatabase(c map[string]string) (*gorm.DB, error) {
	dsn, err := primaryDSN(c)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  config.GetString(c, "LOG_FORMAT", "console") != "json",
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, err
	}

	if replica := config.GetString(c, "DB_REPLICA_DSN", ""); replica != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{DSN: replica, PreferSimpleProtocol: true})},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		log.Info().Msg("Routing reads to replica")
	}

	return db, nil
}

// primaryDSN builds the connection string for DB_TYPE. DATABASE_URL wins when set.
func primaryDSN(c map[string]string) (string, error) {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url, nil
	}

	dbType := config.GetString(c, "DB_TYPE", "postgres")
	log.Info().Str("dbType", dbType).Msg("Connecting to database")

	switch dbType {
	case "supa":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(c, "SUPABASE_DB_HOST", ""),
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", ""),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		), nil
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.GetString(c, "DB_HOST", "localhost"),
			config.GetString(c, "DB_USER", "postgres"),
			config.GetString(c, "DB_PASSWORD", ""),
			config.GetString(c, "DB_NAME", "portfolio"),
			config.GetString(c, "DB_PORT", "5432"),
			config.GetString(c, "DB_SSLMODE", "disable"),
		), nil
	default:
		return "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

func openFileStore(ctx context.Context, c map[string]string) (storage.FileStore, error) {
	limits := storage.Limits{
		MaxResumeBytes: config.GetInt64(c, "MAX_RESUME_BYTES", storage.DefaultLimits.MaxResumeBytes),
		MaxImageBytes:  config.GetInt64(c, "MAX_IMAGE_BYTES", storage.DefaultLimits.MaxImageBytes),
	}

	switch kind := config.GetString(c, "FILE_STORE", "disk"); kind {
	case "s3":
		return storage.NewS3Store(ctx, config.GetString(c, "S3_BUCKET", ""), config.GetString(c, "S3_PREFIX", "uploads"), limits)
	case "disk":
		return storage.NewDiskStore(config.GetString(c, "UPLOAD_DIR", "uploads"), limits)
	default:
		return nil, fmt.Errorf("unsupported FILE_STORE %q", kind)
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
