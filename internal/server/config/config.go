// Package config handles configuration for the server, layering defaults,
// an optional JSON file, environment variables and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
)

// Config holds runtime settings for the totpkeeper server.
//
// MasterPassword, SecretKey and S3SecretKey are secrets and must never be
// logged. Backup is enabled when S3Bucket is set. Restore replaces the local
// data file with the backup copy before the vault is unlocked.
type Config struct {
	ListenAddr string        `env:"TOTPKEEPER_LISTEN_ADDR"`
	DataFile   string        `env:"TOTPKEEPER_DATA_FILE"`
	SecretKey  string        `env:"TOTPKEEPER_SECRET_KEY"`
	TokenTTL   time.Duration `env:"TOTPKEEPER_TOKEN_TTL"`

	KDFTime      uint32 `env:"TOTPKEEPER_KDF_TIME"`
	KDFMemoryKiB uint32 `env:"TOTPKEEPER_KDF_MEMORY_KIB"`
	KDFThreads   uint8  `env:"TOTPKEEPER_KDF_THREADS"`
	PasswordCost int    `env:"TOTPKEEPER_PASSWORD_COST"`

	LogLevel  string `env:"TOTPKEEPER_LOG_LEVEL"`
	LogFormat string `env:"TOTPKEEPER_LOG_FORMAT"`

	MasterPassword string `env:"TOTPKEEPER_MASTER_PASSWORD"`
	Interactive    bool
	Restore        bool `env:"TOTPKEEPER_RESTORE"`

	S3Bucket       string `env:"TOTPKEEPER_S3_BUCKET"`
	S3Region       string `env:"TOTPKEEPER_S3_REGION"`
	S3BaseEndpoint string `env:"TOTPKEEPER_S3_BASE_ENDPOINT"`
	S3AccessKey    string `env:"TOTPKEEPER_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"TOTPKEEPER_S3_SECRET_KEY"`
	S3ObjectKey    string `env:"TOTPKEEPER_S3_OBJECT_KEY"`
}

// LoadDefaults populates Config with local, single-operator defaults.
func (c *Config) LoadDefaults() {
	kdf := cryptox.DefaultKDFParams()

	c.ListenAddr = "127.0.0.1:18007"
	c.DataFile = "data.enc"
	c.TokenTTL = 24 * time.Hour
	c.KDFTime = kdf.Time
	c.KDFMemoryKiB = kdf.MemoryKiB
	c.KDFThreads = kdf.Threads
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// KDFParams returns the argon2id settings.
func (c *Config) KDFParams() cryptox.KDFParams {
	return cryptox.KDFParams{Time: c.KDFTime, MemoryKiB: c.KDFMemoryKiB, Threads: c.KDFThreads}
}

// BackupEnabled reports whether an S3 bucket is configured.
func (c *Config) BackupEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment (and a .env file if present), then flags.
// An empty SecretKey is replaced with a random one, so tokens do not survive
// a restart unless a key is configured.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		key, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = key
	}
	return cfg, nil
}
