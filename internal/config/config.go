package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Processing ProcessingConfig `mapstructure:"processing"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxFileSize int64  `mapstructure:"max_file_size"` // bytes per file
	FormField   string `mapstructure:"form_field"`
}

// StorageConfig holds temporary artifact locations
type StorageConfig struct {
	UploadDir       string        `mapstructure:"upload_dir"`
	ProcessedDir    string        `mapstructure:"processed_dir"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ProcessingConfig holds pipeline settings
type ProcessingConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// OCRConfig holds OCR fallback settings
type OCRConfig struct {
	Engine        string          `mapstructure:"engine"` // auto, none, tesseract, openai, azure
	DPI           float64         `mapstructure:"dpi"`
	MinTextLength int             `mapstructure:"min_text_length"`
	Preprocess    bool            `mapstructure:"preprocess"`
	Tesseract     TesseractConfig `mapstructure:"tesseract"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	Azure         AzureConfig     `mapstructure:"azure"`
}

// TesseractConfig holds local tesseract settings
type TesseractConfig struct {
	Binary string `mapstructure:"binary"`
	Lang   string `mapstructure:"lang"`
	PSM    int    `mapstructure:"psm"`
}

// OpenAIConfig holds OpenAI vision API configuration
type OpenAIConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AzureConfig holds Azure Computer Vision configuration
type AzureConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. An empty
// configPath runs on defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")

	// Upload defaults
	v.SetDefault("upload.max_file_size", 50*1024*1024)
	v.SetDefault("upload.form_field", "files")

	// Storage defaults
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.processed_dir", "processed")
	v.SetDefault("storage.ttl", 24*time.Hour)
	v.SetDefault("storage.cleanup_interval", time.Hour)

	// Processing defaults
	v.SetDefault("processing.concurrency", 1)

	// OCR defaults
	v.SetDefault("ocr.engine", "auto")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.min_text_length", 100)
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("ocr.tesseract.binary", "tesseract")
	v.SetDefault("ocr.tesseract.lang", "eng")
	v.SetDefault("ocr.openai.model", "gpt-4o")
	v.SetDefault("ocr.openai.max_tokens", 4096)
	v.SetDefault("ocr.openai.timeout", 120*time.Second)
	v.SetDefault("ocr.azure.timeout", 60*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	v.BindEnv("ocr.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ocr.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("ocr.azure.endpoint", "AZURE_VISION_ENDPOINT")
	v.BindEnv("ocr.azure.api_key", "AZURE_VISION_KEY")
	v.BindEnv("ocr.engine", "OCR_ENGINE")
	v.BindEnv("ocr.tesseract.binary", "TESSERACT_PATH")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}

	// Validate storage
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Storage.ProcessedDir == "" {
		return fmt.Errorf("storage.processed_dir is required")
	}

	if c.Processing.Concurrency < 1 {
		return fmt.Errorf("processing.concurrency must be at least 1")
	}

	// Validate OCR engine and its credentials
	switch strings.ToLower(c.OCR.Engine) {
	case "", "auto", "none", "tesseract":
	case "openai":
		if c.OCR.OpenAI.APIKey == "" {
			return fmt.Errorf("ocr.openai.api_key is required when ocr.engine is openai")
		}
	case "azure":
		if c.OCR.Azure.Endpoint == "" {
			return fmt.Errorf("ocr.azure.endpoint is required when ocr.engine is azure")
		}
		if c.OCR.Azure.APIKey == "" {
			return fmt.Errorf("ocr.azure.api_key is required when ocr.engine is azure")
		}
	default:
		return fmt.Errorf("ocr.engine must be one of auto, none, tesseract, openai, azure")
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr.dpi must be positive")
	}

	return nil
}
