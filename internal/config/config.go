package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath     string           `json:"db_path"`
	Port       int              `json:"port"`
	AdminToken string           `json:"admin_token"`
	LogConfig  logger.LogConfig `json:"log_config"`
	Source     SourceConfig     `json:"source"`
	Target     TargetConfig     `json:"target"`
	Sync       SyncConfig       `json:"sync"`
	Archive    ArchiveConfig    `json:"archive"`
}

type SourceConfig struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	PageSize int    `json:"page_size"`
}

type TargetConfig struct {
	Endpoint     string `json:"endpoint"`
	Token        string `json:"token"`
	CollectionID string `json:"collection_id"`
	AssetDir     string `json:"asset_dir"`
}

// SyncConfig is the per-run behavioural surface. It is passed into the
// engine by value; nothing reads it as ambient state.
type SyncConfig struct {
	IntervalMinutes int      `json:"interval_minutes"`
	UpdateExisting  bool     `json:"update_existing"`
	ExcludeArchived bool     `json:"exclude_archived"`
	OnlyFavorites   bool     `json:"only_favorites"`
	ExcludedTags    []string `json:"excluded_tags"`
	DownloadAssets  bool     `json:"download_assets"`
	FrontMatter     bool     `json:"front_matter"`
}

type ArchiveConfig struct {
	Enable    bool            `json:"enable"`
	FileStore FileStoreConfig `json:"file_store"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8317
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Source.Endpoint == "" {
		return nil, fmt.Errorf("source.endpoint is required")
	}
	if cfg.Source.PageSize <= 0 {
		cfg.Source.PageSize = 50
	}
	if cfg.Target.Endpoint == "" {
		return nil, fmt.Errorf("target.endpoint is required")
	}
	if cfg.Target.AssetDir == "" {
		cfg.Target.AssetDir = "assets"
	}
	if cfg.Sync.IntervalMinutes <= 0 {
		cfg.Sync.IntervalMinutes = 60
	}
	if cfg.Archive.Enable && cfg.Archive.FileStore.Type == "" {
		return nil, fmt.Errorf("archive.file_store.type is required when archive is enabled")
	}
	return &cfg, nil
}
