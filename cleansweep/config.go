package cleansweep

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	DB      DBConfig      `toml:"db"`
	Jobs    JobsConfig    `toml:"jobs"`
	Archive ArchiveConfig `toml:"archive"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type JobsConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// Interval returns the scheduling interval, defaulting to daily.
func (c JobsConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type ArchiveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Endpoint string `toml:"endpoint"`
	Prefix   string `toml:"prefix"`
}
