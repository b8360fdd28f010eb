package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/examprep/examprep/internal/validation"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Inference InferenceConfig `mapstructure:"inference"`
	Diagram   DiagramConfig   `mapstructure:"diagram"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Backend  string            `mapstructure:"backend" validate:"oneof=memory file mysql sqlite3 redis"`
	File     FileStorageConfig `mapstructure:"file"`
	Database DatabaseConfig    `mapstructure:"database"`
	Redis    RedisConfig       `mapstructure:"redis"`
}

type FileStorageConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=mysql sqlite3"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	Path            string            `mapstructure:"path"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type InferenceConfig struct {
	Provider      string       `mapstructure:"provider" validate:"oneof=gemini openai"`
	RetryAttempts uint         `mapstructure:"retry_attempts" validate:"max=10"`
	Gemini        GeminiConfig `mapstructure:"gemini"`
	OpenAI        OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type DiagramConfig struct {
	KrokiURL       string `mapstructure:"kroki_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
	Concurrency    int    `mapstructure:"concurrency" validate:"min=1"`
}

type QuizConfig struct {
	QuestionCount int `mapstructure:"question_count" validate:"min=1,max=20"`
}

type TemplatesConfig struct {
	StudyGuideTemplate string `mapstructure:"study_guide_template" validate:"omitempty,file"`
}

type OutputsConfig struct {
	Directory string `mapstructure:"directory"`
}

// APIKey returns the key of the configured inference provider.
func (c InferenceConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

// APIKeyEnv names the environment variable a user has to set for the configured provider.
func (c InferenceConfig) APIKeyEnv() string {
	if c.Provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

type ConfigLoader struct {
	viper     *viper.Viper
	validator *validation.Validator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, err := validation.New("mapstructure", "Config")
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/examprep")
	}

	return &ConfigLoader{
		viper:     v,
		validator: validate,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.file.path", filepath.Join("data", "storage.yml"))
	v.SetDefault("storage.database.driver", "sqlite3")
	v.SetDefault("storage.database.path", filepath.Join("data", "examprep.db"))
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 3306)
	v.SetDefault("storage.database.database", "examprep")
	v.SetDefault("storage.database.username", "user")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.prefix", "examprep:")
	v.SetDefault("inference.provider", "gemini")
	v.SetDefault("inference.retry_attempts", 0)
	v.SetDefault("inference.gemini.model", "gemini-2.5-flash")
	v.SetDefault("inference.openai.model", "gpt-4o-mini")
	v.SetDefault("diagram.kroki_url", "https://kroki.io")
	v.SetDefault("diagram.timeout_seconds", 15)
	v.SetDefault("diagram.concurrency", 4)
	v.SetDefault("quiz.question_count", 5)
	// Template is optional - if not specified, the embedded study guide template is used
	v.SetDefault("templates.study_guide_template", "")
	v.SetDefault("outputs.directory", "outputs")

	// Secrets come from the environment only
	if err := v.BindEnv("inference.gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("inference.openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("inference.openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}
	if err := v.BindEnv("storage.database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("storage.redis.password", "REDIS_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind REDIS_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
