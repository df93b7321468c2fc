// Package config provides configuration management for the shoot planner
// application
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Settings holds the application configuration
type Settings struct {
	Server  ServerConfig `json:"server"`
	Drive   DriveConfig  `json:"drive"`
	Naming  NamingConfig `json:"naming"`
	Workers WorkerConfig `json:"workers"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	CertFile        string `json:"certFile"`
	KeyFile         string `json:"keyFile"`
	ShutdownTimeout int    `json:"shutdownTimeout"`
	AllowedOrigins  string `json:"allowedOrigins"`
}

// DriveConfig contains Google Drive access and retry configuration
type DriveConfig struct {
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
	TokenFile    string `json:"tokenFile"`
	MaxRetries   int    `json:"maxRetries"`
	BaseDelayMs  int    `json:"baseDelayMs"`
}

// NamingConfig contains the default per-tenant hierarchy shape. Tenants may
// override it per request.
type NamingConfig struct {
	ParentFolderID   string `json:"parentFolderId"`
	InsertYearFolder bool   `json:"insertYearFolder"`
	NamingPattern    string `json:"namingPattern"`
	CustomTemplate   string `json:"customTemplate"`
}

// WorkerConfig contains provisioning worker pool configuration
type WorkerConfig struct {
	Count     int `json:"count"`
	QueueSize int `json:"queueSize"`
}

// AppConfig is the global application configuration
var AppConfig Settings

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configFile string) error {
	// Set defaults
	AppConfig = Settings{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ShutdownTimeout: 30,
		},
		Drive: DriveConfig{
			TokenFile:   "./data/drive_token.json",
			MaxRetries:  3,
			BaseDelayMs: 1000,
		},
		Naming: NamingConfig{
			NamingPattern: "client-only",
		},
		Workers: WorkerConfig{
			Count:     runtime.NumCPU(),
			QueueSize: 100,
		},
	}

	// Load from config file if it exists
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return fmt.Errorf("error reading config file: %w", err)
			}

			if err := json.Unmarshal(data, &AppConfig); err != nil {
				return fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv()

	return nil
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv() {
	// Server config
	if port := os.Getenv("SP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			AppConfig.Server.Port = p
		}
	}

	if host := os.Getenv("SP_HOST"); host != "" {
		AppConfig.Server.Host = host
	}

	if certFile := os.Getenv("SP_CERT_FILE"); certFile != "" {
		AppConfig.Server.CertFile = certFile
	}

	if keyFile := os.Getenv("SP_KEY_FILE"); keyFile != "" {
		AppConfig.Server.KeyFile = keyFile
	}

	if origins := os.Getenv("SP_ALLOWED_ORIGINS"); origins != "" {
		AppConfig.Server.AllowedOrigins = origins
	}

	// Drive config
	if clientID := os.Getenv("SP_GOOGLE_CLIENT_ID"); clientID != "" {
		AppConfig.Drive.ClientID = clientID
	}

	if clientSecret := os.Getenv("SP_GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		AppConfig.Drive.ClientSecret = clientSecret
	}

	if tokenFile := os.Getenv("SP_DRIVE_TOKEN_FILE"); tokenFile != "" {
		AppConfig.Drive.TokenFile = tokenFile
	}

	if maxRetries := os.Getenv("SP_DRIVE_MAX_RETRIES"); maxRetries != "" {
		if n, err := strconv.Atoi(maxRetries); err == nil {
			AppConfig.Drive.MaxRetries = n
		}
	}

	// Naming config
	if parentID := os.Getenv("SP_PARENT_FOLDER_ID"); parentID != "" {
		AppConfig.Naming.ParentFolderID = parentID
	}

	if pattern := os.Getenv("SP_NAMING_PATTERN"); pattern != "" {
		AppConfig.Naming.NamingPattern = pattern
	}

	if insertYear := os.Getenv("SP_INSERT_YEAR_FOLDER"); insertYear != "" {
		AppConfig.Naming.InsertYearFolder = insertYear == "true" || insertYear == "1"
	}

	// Worker config
	if workerCount := os.Getenv("SP_WORKER_COUNT"); workerCount != "" {
		if wc, err := strconv.Atoi(workerCount); err == nil {
			AppConfig.Workers.Count = wc
		}
	}
}

// BaseDelay returns the configured retry base delay as a duration
func BaseDelay() time.Duration {
	return time.Duration(AppConfig.Drive.BaseDelayMs) * time.Millisecond
}

// GetAddressString returns the address string for the server to listen on
func GetAddressString() string {
	return fmt.Sprintf("%s:%d", AppConfig.Server.Host, AppConfig.Server.Port)
}
