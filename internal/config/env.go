package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".labelforge/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"labelforge/"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
}

type ObjectStoreEnv struct {
	Type    string `envconfig:"OBJECT_STORE_TYPE" default:"local"`
	BaseDir string `envconfig:"OBJECT_STORE_BASE_DIR" default:".labelforge/buckets"`
	Region  string `envconfig:"OBJECT_STORE_REGION" default:"eu-central-1"`
	// MoveTimeout bounds a single asset relocation, existence checks included.
	MoveTimeout time.Duration `envconfig:"OBJECT_STORE_MOVE_TIMEOUT" default:"2m"`
}

type Env struct {
	BaseEnv
	StorageEnv     StorageEnv
	ObjectStoreEnv ObjectStoreEnv
}

const namespace = "LABELFORGE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
