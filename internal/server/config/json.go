package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/totpkeeper/internal/flagx"
	"github.com/dmitrijs2005/totpkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" from "zero", so a partial file only overrides what it names.
type JsonConfig struct {
	ListenAddr   *string         `json:"listen_addr"`
	DataFile     *string         `json:"data_file"`
	SecretKey    *string         `json:"secret_key"`
	TokenTTL     *timex.Duration `json:"token_ttl"`
	KDFTime      *uint32         `json:"kdf_time"`
	KDFMemoryKiB *uint32         `json:"kdf_memory_kib"`
	KDFThreads   *uint8          `json:"kdf_threads"`
	PasswordCost *int            `json:"password_cost"`
	LogLevel     *string         `json:"log_level"`
	LogFormat    *string         `json:"log_format"`

	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3ObjectKey    *string `json:"s3_object_key"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays the file named by -c/-config onto config. No flag means
// no file. The master password is deliberately not read from JSON.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&config.ListenAddr, c.ListenAddr)
	set(&config.DataFile, c.DataFile)
	set(&config.SecretKey, c.SecretKey)
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	set(&config.KDFTime, c.KDFTime)
	set(&config.KDFMemoryKiB, c.KDFMemoryKiB)
	set(&config.KDFThreads, c.KDFThreads)
	set(&config.PasswordCost, c.PasswordCost)
	set(&config.LogLevel, c.LogLevel)
	set(&config.LogFormat, c.LogFormat)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3AccessKey, c.S3AccessKey)
	set(&config.S3SecretKey, c.S3SecretKey)
	set(&config.S3ObjectKey, c.S3ObjectKey)
	return nil
}
