package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const FileName = "config.yaml"

type Config struct {
	Log    Log    `yaml:"log"`
	Backup Backup `yaml:"backup"`
	Lock   Lock   `yaml:"lock"`
	Export Export `yaml:"export"`

	// Password comes from NOTEBOX_PASSWORD only and is never written back.
	Password string `yaml:"-"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type Backup struct {
	Dir      string        `yaml:"dir,omitempty"`
	Interval time.Duration `yaml:"interval"`
	Keep     int           `yaml:"keep"`
}

type Lock struct {
	PasswordHash string `yaml:"password_hash,omitempty"`
}

type Export struct {
	Dir string `yaml:"dir,omitempty"`
}

func Default(home string) *Config {
	return &Config{
		Log: Log{Level: "info"},
		Backup: Backup{
			Dir:      filepath.Join(home, "backups"),
			Interval: 24 * time.Hour,
			Keep:     10,
		},
		Export: Export{Dir: filepath.Join(home, "exports")},
	}
}

// DefaultHome is $NOTEBOX_HOME or ~/.notebox.
func DefaultHome() (string, error) {
	if home := os.Getenv("NOTEBOX_HOME"); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".notebox"), nil
}

// LoadEnv reads <home>/.env and ./.env into the process environment.
// Variables already set are left alone and missing files are skipped.
func LoadEnv(home string) error {
	for _, p := range []string{filepath.Join(home, ".env"), ".env"} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads path on top of the defaults for home. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(home, path string) (*Config, error) {
	conf := Default(home)

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(content, conf); err != nil {
			return nil, err
		}
	}

	conf.applyEnv()
	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NOTEBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOTEBOX_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("NOTEBOX_BACKUP_DIR"); v != "" {
		c.Backup.Dir = v
	}
	c.Password = os.Getenv("NOTEBOX_PASSWORD")
}

func Save(path string, c *Config) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, content, 0600)
}
