package config

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL   string
	Host          string
	Port          string
	JwtSecret     string
	RendererURL   string
	StorageDir    string
	PublicBaseURL string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Host:          os.Getenv("HOST"),
		Port:          os.Getenv("PORT"),
		JwtSecret:     os.Getenv("JWT_SECRET"),
		RendererURL:   os.Getenv("RENDERER_URL"),
		StorageDir:    os.Getenv("STORAGE_DIR"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
	}

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "./data/media"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://" + cfg.Host + ":" + cfg.Port
	}
	if cfg.JwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set. This is critical for authentication.")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if cfg.RendererURL == "" {
		log.Fatal("RENDERER_URL is not set. Reel jobs cannot be dispatched without the render worker.")
	}

	return cfg
}
