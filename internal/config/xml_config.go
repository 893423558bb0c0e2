// Package config provides XML-based configuration management for
// deployments without a config service.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"GliffyMigrator"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Converter configuration
	Converter ConverterConfig `xml:"Converter"`

	// Confluence connection settings
	Confluence ConfluenceConfig `xml:"Confluence"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	ReportsDirectory string `xml:"ReportsDirectory"`
	InventoryPath    string `xml:"InventoryPath"`
	MaxUploadSize    string `xml:"MaxUploadSize"`
}

// ConverterConfig contains diagram conversion settings
type ConverterConfig struct {
	MappingPath    string `xml:"MappingPath"`
	ImagesDirectory string `xml:"ImagesDirectory"`
	Seed           int64  `xml:"Seed"`
	Pretty         bool   `xml:"PrettyOutput"`
}

// ConfluenceConfig contains the Confluence REST connection settings.
// APIToken doubles as the personal access token for server instances.
type ConfluenceConfig struct {
	BaseURL  string `xml:"BaseURL"`
	Username string `xml:"Username"`
	APIToken string `xml:"APIToken"`
	Spaces   string `xml:"Spaces"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			ReportsDirectory: "./data/reports",
			InventoryPath:    "./data/inventory.duckdb",
			MaxUploadSize:    "64M",
		},
		Converter: ConverterConfig{
			MappingPath:     "./data/tid_mapping.json",
			ImagesDirectory: "./data/images",
			Seed:            1,
			Pretty:          false,
		},
		Confluence: ConfluenceConfig{},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Gliffy Migrator Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	// Credentials are usually injected rather than written to disk.
	if url := os.Getenv("CONFLUENCE_URL"); url != "" {
		c.Confluence.BaseURL = url
	}
	if user := os.Getenv("CONFLUENCE_USERNAME"); user != "" {
		c.Confluence.Username = user
	}
	if token := os.Getenv("CONFLUENCE_API_TOKEN"); token != "" {
		c.Confluence.APIToken = token
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadsDirectory)
	resolve(&c.Storage.ReportsDirectory)
	resolve(&c.Storage.InventoryPath)
	resolve(&c.Converter.MappingPath)
	resolve(&c.Converter.ImagesDirectory)
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SpaceKeys splits the configured comma-separated space list.
func (c *ConfluenceConfig) SpaceKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.Spaces, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.ReportsDirectory,
		c.Converter.ImagesDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
