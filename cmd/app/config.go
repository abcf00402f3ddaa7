package main

import (
	"fmt"
	"strings"

	"ecolearn_backend/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	Auth        AuthConfig        `yaml:"auth"`
	Points      PointsConfig      `yaml:"points"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Reconciler  ReconcilerConfig  `yaml:"reconciler"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwtSecret"`
	TokenTTLMinutes int    `yaml:"tokenTTLMinutes"`
}

type PointsConfig struct {
	LessonPoints  int `yaml:"lessonPoints"`
	QuizMaxPoints int `yaml:"quizMaxPoints"`
}

type LeaderboardConfig struct {
	SnapshotTTLSeconds     int `yaml:"snapshotTTLSeconds"`
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds"`
}

type ReconcilerConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60 * 24
	}
	if cfg.Leaderboard.SnapshotTTLSeconds <= 0 {
		cfg.Leaderboard.SnapshotTTLSeconds = 60
	}
	if cfg.Leaderboard.RefreshIntervalSeconds <= 0 {
		cfg.Leaderboard.RefreshIntervalSeconds = 300
	}
	if cfg.Reconciler.IntervalSeconds <= 0 {
		cfg.Reconciler.IntervalSeconds = 3600
	}

	return &cfg, nil
}
