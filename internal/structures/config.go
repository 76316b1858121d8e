package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StorageConfig struct {
	Dir             string `yaml:"dir" validate:"required|unixPath"`
	MessagesPerPage int    `yaml:"messagesPerPage" validate:"required|min:1"`
}

type ChatConfig struct {
	Cooldown      time.Duration `yaml:"cooldown" validate:"required|min:1"`
	MaxNameLength int           `yaml:"maxNameLength" validate:"required|min:1"`
	MaxTextLength int           `yaml:"maxTextLength" validate:"required|min:1"`
	DefaultName   string        `yaml:"defaultName" validate:"required"`
}

type CorsConfig struct {
	AllowedOrigin string `yaml:"allowedOrigin" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FilePath string        `yaml:"filePath"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Storage   StorageConfig `yaml:"storage"`
	Chat      ChatConfig    `yaml:"chat"`
	Cors      CorsConfig    `yaml:"cors"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Backup    BackupConfig  `yaml:"backup"`
}
