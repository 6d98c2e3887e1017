package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms/openai"
	"gopkg.in/yaml.v3"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/api"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/database"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/generation"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/menu"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/monitoring"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/timeline"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

// Config represents the application configuration
type Config struct {
	OpenAIKey  string `yaml:"openai_key"`
	OpenAIBase string `yaml:"openai_base_url"`
	MenuModel  string `yaml:"menu_model"`
	ImageModel string `yaml:"image_model"`
	Database   struct {
		Driver string `yaml:"driver"`
		Source string `yaml:"source"`
	} `yaml:"database"`
	DefaultMealTime string `yaml:"default_meal_time"`
}

func main() {
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	model, err := initializeLLM(config)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}

	db, err := database.Open(config.Database.Driver, config.Database.Source)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	mealTime := timeline.MustParseMealTime(timeline.DefaultMealTime)
	if config.DefaultMealTime != "" {
		parsed, err := timeline.ParseMealTime(config.DefaultMealTime)
		if err != nil {
			log.Fatalf("Invalid default_meal_time in configuration: %v", err)
		}
		mealTime = parsed
	}

	metrics := monitoring.NewCollector()
	server := api.NewServer(
		menu.NewStore(mealTime),
		timeline.SystemClock{},
		generation.NewMenuGenerator(model, config.MenuModel),
		generation.NewImageGenerator(model, config.ImageModel),
		database.NewHistory(db),
		metrics,
	)

	go startMetricsServer(*metricsPort, metrics)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")
		server.Shutdown()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", *port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if config.OpenAIKey == "" {
		config.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &config, nil
}

func initializeLLM(config *Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithToken(config.OpenAIKey),
	}
	if config.OpenAIBase != "" {
		opts = append(opts, openai.WithBaseURL(config.OpenAIBase))
	}
	if config.MenuModel != "" {
		opts = append(opts, openai.WithModel(config.MenuModel))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return llm, nil
}

func startMetricsServer(port int, metrics *monitoring.Collector) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
