package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/scrideo/scrideo/internal/handlers"
	"github.com/scrideo/scrideo/internal/jobs"
	"github.com/scrideo/scrideo/internal/render"
	"github.com/scrideo/scrideo/internal/retrieval"
	"github.com/scrideo/scrideo/internal/storage"
	"github.com/scrideo/scrideo/internal/transcription"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Whisper struct {
		ModelPath string `yaml:"model_path"`
		Language  string `yaml:"language"`
	} `yaml:"whisper"`

	Storage struct {
		Root             string  `yaml:"root"`
		CeilingMB        int     `yaml:"ceiling_mb"`
		RetentionMinutes int     `yaml:"retention_minutes"`
		SweepMinutes     int     `yaml:"sweep_minutes"`
		SweepHighWater   float64 `yaml:"sweep_high_water"`
		Database         string  `yaml:"database"`
	} `yaml:"storage"`

	Limits struct {
		MaxFileSizeMB    int `yaml:"max_file_size_mb"`
		URLEstimateMB    int `yaml:"url_estimate_mb"`
		FetchTimeoutMin  int `yaml:"fetch_timeout_minutes"`
		RenderTimeoutMin int `yaml:"render_timeout_minutes"`
	} `yaml:"limits"`

	Auth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

func main() {
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	if err := render.CheckInstallation(); err != nil {
		log.Fatalf("FFmpeg check failed: %v", err)
	}

	// Managed storage tree (inbound originals + outbound rendered videos)
	layout, err := storage.NewLayout(config.Storage.Root)
	if err != nil {
		log.Fatalf("Failed to create storage root: %v", err)
	}
	defer layout.Teardown()

	// Job registry + storage guardian share the registry's lock domain
	registry := jobs.NewRegistry()
	guardian := storage.NewGuardian(
		layout,
		registry,
		int64(config.Storage.CeilingMB)*1024*1024,
		time.Duration(config.Storage.RetentionMinutes)*time.Minute,
		time.Duration(config.Storage.SweepMinutes)*time.Minute,
		config.Storage.SweepHighWater,
	)
	guardian.Start()
	defer guardian.Stop()

	// Whisper transcriber
	transcriber, err := transcription.NewWhisperTranscriber(config.Whisper.ModelPath, layout.Root())
	if err != nil {
		log.Fatalf("Failed to initialize Whisper: %v", err)
	}

	// Retrieval + overlay renderer
	fetcher := retrieval.NewFetcher(time.Duration(config.Limits.FetchTimeoutMin) * time.Minute)
	renderer := render.NewFFmpegRenderer(time.Duration(config.Limits.RenderTimeoutMin) * time.Minute)

	// History database
	history, err := storage.NewHistoryDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer history.Close()

	// Google Drive archive (optional - may fail if credentials not set up)
	var archive jobs.Archiver
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err := storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Rendered videos will only be kept locally")
		} else {
			log.Println("Google Drive archive enabled")
			archive = driveClient
		}
	} else {
		log.Println("Google Drive credentials not found - keeping videos locally only")
	}

	orchestrator := jobs.NewOrchestrator(
		registry, layout, guardian,
		transcriber, fetcher, renderer,
		jobs.GoSpawner{},
		jobs.Options{
			History:          history,
			Archive:          archive,
			MaxUploadBytes:   int64(config.Limits.MaxFileSizeMB) * 1024 * 1024,
			URLEstimateBytes: int64(config.Limits.URLEstimateMB) * 1024 * 1024,
			Language:         config.Whisper.Language,
		},
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(config.Auth.Username, config.Auth.Password)
	uploadHandler := handlers.NewUploadHandler(orchestrator)
	urlHandler := handlers.NewURLHandler(orchestrator)
	statusHandler := handlers.NewStatusHandler(orchestrator)
	streamHandler := handlers.NewStreamHandler(orchestrator)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/login", authHandler.Login)

	app.Post("/upload", authHandler.Middleware, uploadHandler.Handle)
	app.Post("/url", authHandler.Middleware, urlHandler.Handle)

	app.Get("/jobs", statusHandler.List)
	app.Get("/jobs/:id", statusHandler.Get)
	app.Delete("/jobs/:id", authHandler.Middleware, statusHandler.Delete)
	app.Get("/jobs/:id/video", statusHandler.Video)
	app.Get("/jobs/:id/transcript", statusHandler.Transcript)
	app.Get("/quota", statusHandler.Quota)

	// WebSocket route
	app.Get("/ws/jobs/:id", websocket.New(streamHandler.Handle))

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /login               - Get a session token")
	log.Println("   POST /upload              - Upload a video file")
	log.Println("   POST /url                 - Caption a hosted video")
	log.Println("   GET  /jobs                - List finished jobs")
	log.Println("   GET  /jobs/:id            - Poll job status")
	log.Println("   GET  /jobs/:id/video      - Download captioned video")
	log.Println("   GET  /jobs/:id/transcript - Get transcript text")
	log.Println("   GET  /ws/jobs/:id         - Live status stream")
	log.Println("   GET  /quota               - Storage usage summary")
	log.Println("   GET  /logs                - View server logs")
	log.Println("   GET  /health              - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults fills sane values for anything the file left out.
func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "scrideo_data"
	}
	if c.Storage.CeilingMB == 0 {
		c.Storage.CeilingMB = 2048
	}
	if c.Storage.RetentionMinutes == 0 {
		c.Storage.RetentionMinutes = 60
	}
	if c.Storage.SweepMinutes == 0 {
		c.Storage.SweepMinutes = 10
	}
	if c.Storage.SweepHighWater == 0 {
		c.Storage.SweepHighWater = 0.8
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "scrideo.db"
	}
	if c.Limits.MaxFileSizeMB == 0 {
		c.Limits.MaxFileSizeMB = 500
	}
	if c.Limits.URLEstimateMB == 0 {
		c.Limits.URLEstimateMB = 200
	}
	if c.Limits.FetchTimeoutMin == 0 {
		c.Limits.FetchTimeoutMin = 30
	}
	if c.Limits.RenderTimeoutMin == 0 {
		c.Limits.RenderTimeoutMin = 5
	}
}
