package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Vector collection all ingested chunks are scoped to.
	Collection string `envconfig:"COLLECTION" default:"legal_docs_vectors"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	ChatModel    string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// Watched document folder (S3-compatible bucket/prefix).
	S3Endpoint   string `envconfig:"S3_ENDPOINT"`
	S3AccessKey  string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey  string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket     string `envconfig:"S3_BUCKET" default:"complyflow-inbox"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	FolderPrefix string `envconfig:"FOLDER_PREFIX" default:"inbox/"`

	// Web portal to poll for newly published circulars.
	PortalURL string `envconfig:"PORTAL_URL"`

	// OCR/extraction processor endpoint.
	ExtractorURL string `envconfig:"EXTRACTOR_URL"`

	StagingDir string `envconfig:"STAGING_DIR" default:"data/live_downloads"`

	FolderPollInterval time.Duration `envconfig:"FOLDER_POLL_INTERVAL" default:"45s"`
	PortalPollInterval time.Duration `envconfig:"PORTAL_POLL_INTERVAL" default:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("COMPLYFLOW", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasPortal() bool {
	return c.PortalURL != ""
}
