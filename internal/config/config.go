package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Defaults shared by DefaultConfig and Normalize.
const (
	DefaultListen    = "127.0.0.1:8080"
	DefaultShopName  = "Gentlemen Jacks"
	DefaultProductID = "-//Barber Appointment//Calendar App//EN"
	DefaultUIDDomain = "barberappt.com"
	DefaultPrefix    = "barber_appointment"
	DefaultSweepCron = "*/15 * * * *"
	DefaultLogLevel  = "info"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// WatchConfig controls `barbercal watch`.
type WatchConfig struct {
	// Inbox is the directory scanned for pasted *.txt files.
	Inbox string `yaml:"inbox" json:"inbox"`
	// Out is where generated .ics files are written.
	Out string `yaml:"out" json:"out"`
	// Sweep is a cron-style schedule for full inbox/URL rescans.
	Sweep string `yaml:"sweep" json:"sweep"`
	// URLs are remote text sources polled on every sweep.
	URLs []string `yaml:"urls" json:"urls"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone attached to parsed wall-clock times.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// ShopName is the location used for Format 2 appointments.
	ShopName string `yaml:"shop_name" json:"shop_name"`

	// ProductID and UIDDomain end up in PRODID and UID.
	ProductID string `yaml:"product_id" json:"product_id"`
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`

	// FilePrefix names saved files: <prefix>_<YYYY-MM-DD>.ics
	FilePrefix string `yaml:"file_prefix" json:"file_prefix"`

	// OutputDir is where `export` and the TUI save files.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Repeat is an optional RRULE (e.g. "FREQ=WEEKLY;INTERVAL=4;COUNT=6")
	// attached to every exported appointment.
	Repeat string `yaml:"repeat" json:"repeat"`

	// CacheDir holds conditional-GET caches for URL inputs.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Listen is the HTTP listen address for `serve`.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Watch WatchConfig `yaml:"watch" json:"watch"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/barbercal/config.yaml (or the
// platform equivalent), falling back to ./barbercal.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "barbercal.yaml"
	}
	return filepath.Join(dir, "barbercal", "config.yaml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "cache")
	}
	return filepath.Join(dir, "barbercal")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:   "",
		ShopName:   DefaultShopName,
		ProductID:  DefaultProductID,
		UIDDomain:  DefaultUIDDomain,
		FilePrefix: DefaultPrefix,
		OutputDir:  ".",
		CacheDir:   defaultCacheDir(),
		Listen:     DefaultListen,
		LogLevel:   DefaultLogLevel,
		Watch: WatchConfig{
			Inbox: filepath.Join(".", "inbox"),
			Out:   filepath.Join(".", "calendar"),
			Sweep: DefaultSweepCron,
			URLs:  []string{},
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.ShopName == "" {
		c.ShopName = DefaultShopName
	}
	if c.ProductID == "" {
		c.ProductID = DefaultProductID
	}
	if c.UIDDomain == "" {
		c.UIDDomain = DefaultUIDDomain
	}
	if c.FilePrefix == "" {
		c.FilePrefix = DefaultPrefix
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Watch.Inbox == "" {
		c.Watch.Inbox = filepath.Join(".", "inbox")
	}
	if c.Watch.Out == "" {
		c.Watch.Out = filepath.Join(".", "calendar")
	}
	if c.Watch.Sweep == "" {
		c.Watch.Sweep = DefaultSweepCron
	}
	if c.Watch.URLs == nil {
		c.Watch.URLs = []string{}
	}
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Watch.Sweep); err != nil {
		return fmt.Errorf("config: invalid watch.sweep %q: %w", c.Watch.Sweep, err)
	}
	if c.Repeat != "" {
		if _, err := rrule.StrToRRule(c.Repeat); err != nil {
			return fmt.Errorf("config: invalid repeat rule %q: %w", c.Repeat, err)
		}
	}
	return nil
}

// Location resolves Timezone; empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically via
// a temp file + rename, with final permissions 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".barbercal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
