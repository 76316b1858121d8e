package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"anonchat/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "ANONCHAT_LOG_LEVEL")
	viper.BindEnv("storage.dir", "ANONCHAT_STORAGE_DIR")
	viper.BindEnv("chat.cooldown", "ANONCHAT_COOLDOWN")
	viper.BindEnv("cors.allowedOrigin", "ANONCHAT_ALLOWED_ORIGIN")
	viper.BindEnv("cache.enabled", "ANONCHAT_CACHE_ENABLED")
	viper.BindEnv("cache.size", "ANONCHAT_CACHE_SIZE")
	viper.BindEnv("backup.interval", "ANONCHAT_BACKUP_INTERVAL")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "AnonChat"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
