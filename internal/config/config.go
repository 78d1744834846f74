// Package config loads the bot configuration from a TOML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultAddress      = ":8080"
	DefaultDataDir      = "" // resolved by the stores to ~/.concierge/data
	DefaultMessageDelay = 5 * time.Second
	DefaultPoolSize     = 4
	DefaultTimezone     = "Asia/Dubai"
)

// Config is the full bot configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Google   GoogleConfig   `toml:"google"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Campaign CampaignConfig `toml:"campaign"`
	Storage  StorageConfig  `toml:"storage"`
	Verbose  bool           `toml:"verbose"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	// Address is the listen address.
	Address string `toml:"address"`

	// SyncSecret authenticates document sync webhook calls.
	// Override: CONCIERGE_SYNC_SECRET.
	SyncSecret string `toml:"sync_secret"`

	// PoolSize bounds concurrent background reindex jobs.
	PoolSize int `toml:"pool_size"`
}

// GoogleConfig configures Google Workspace access.
type GoogleConfig struct {
	// CredentialsFile is the service account credentials JSON path.
	// Override: GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string `toml:"credentials_file"`

	// DefaultSheetID is the contact sheet used when an outreach command
	// gives no specifier. Override: CONCIERGE_DEFAULT_SHEET_ID.
	DefaultSheetID string `toml:"default_sheet_id"`
}

// OpenAIConfig configures the embedding and chat models.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Override: OPENAI_API_KEY.
	APIKey string `toml:"api_key"`

	// EmbeddingModel overrides the default embedding model.
	EmbeddingModel string `toml:"embedding_model"`

	// ChatModel overrides the default chat model.
	ChatModel string `toml:"chat_model"`

	// SystemPrompt overrides the assistant framing.
	SystemPrompt string `toml:"system_prompt"`
}

// WhatsAppConfig configures the WhatsApp gateway.
type WhatsAppConfig struct {
	// Token is the gateway channel token. Override: WHAPI_TOKEN.
	Token string `toml:"token"`

	// BaseURL overrides the gateway base URL.
	BaseURL string `toml:"base_url"`
}

// CampaignConfig configures outreach campaigns.
type CampaignConfig struct {
	// MessageDelaySeconds is the pause between consecutive sends.
	MessageDelaySeconds int `toml:"message_delay_seconds"`

	// BusinessName is substituted into message templates.
	BusinessName string `toml:"business_name"`

	// Timezone names the location for LastContactedDate timestamps.
	Timezone string `toml:"timezone"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// DataDir holds the message database and the vector index snapshot.
	DataDir string `toml:"data_dir"`
}

// Load reads the configuration file, applies defaults and environment
// overrides. A missing file is not an error; defaults plus environment
// variables then carry the whole configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.PoolSize <= 0 {
		c.Server.PoolSize = DefaultPoolSize
	}
	if c.Campaign.MessageDelaySeconds <= 0 {
		c.Campaign.MessageDelaySeconds = int(DefaultMessageDelay.Seconds())
	}
	if c.Campaign.Timezone == "" {
		c.Campaign.Timezone = DefaultTimezone
	}
}

func (c *Config) applyEnv() {
	overrideFromEnv(&c.Server.SyncSecret, "CONCIERGE_SYNC_SECRET")
	overrideFromEnv(&c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	overrideFromEnv(&c.Google.DefaultSheetID, "CONCIERGE_DEFAULT_SHEET_ID")
	overrideFromEnv(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideFromEnv(&c.WhatsApp.Token, "WHAPI_TOKEN")
}

func (c *Config) validate() error {
	if c.Server.SyncSecret == "" {
		return fmt.Errorf("config: sync secret is required (server.sync_secret or CONCIERGE_SYNC_SECRET)")
	}
	if c.WhatsApp.Token == "" {
		return fmt.Errorf("config: WhatsApp token is required (whatsapp.token or WHAPI_TOKEN)")
	}
	if c.Google.CredentialsFile == "" {
		return fmt.Errorf("config: Google credentials file is required (google.credentials_file or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	return nil
}

// MessageDelay returns the campaign send delay as a duration.
func (c *Config) MessageDelay() time.Duration {
	return time.Duration(c.Campaign.MessageDelaySeconds) * time.Second
}

// Location resolves the campaign timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Campaign.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func overrideFromEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
