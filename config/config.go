// Package config holds the harness settings. Values come from built-in
// defaults, optionally overridden by an ini file and then by command line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "yksp.ini"

const (
	DefaultScriptsDir     = "scripts"
	DefaultResultsDir     = "results"
	DefaultAcceptButtonID = "com.android.backupconfirm:id/button_allow"
	DefaultBackupTimeout  = 2 * time.Minute
	DefaultScriptTimeout  = 30 * time.Minute
	DefaultLogcatFormat   = "threadtime"
)

type Paths struct {
	Scripts string
	Results string
}

type Tools struct {
	Adb  string
	Aapt string
}

type Backup struct {
	AcceptButtonID string
	Timeout        time.Duration
	Disabled       bool
}

type Logcat struct {
	Format string
}

type Session struct {
	ScriptTimeout time.Duration
	Archive       string
}

type Config struct {
	Paths   Paths
	Tools   Tools
	Backup  Backup
	Logcat  Logcat
	Session Session
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Scripts: DefaultScriptsDir,
			Results: DefaultResultsDir,
		},
		Tools: Tools{
			Adb:  "adb",
			Aapt: "aapt",
		},
		Backup: Backup{
			AcceptButtonID: DefaultAcceptButtonID,
			Timeout:        DefaultBackupTimeout,
		},
		Logcat: Logcat{
			Format: DefaultLogcatFormat,
		},
		Session: Session{
			ScriptTimeout: DefaultScriptTimeout,
		},
	}
}

// Load reads path on top of the defaults. An empty path falls back to
// DefaultFileName and silently uses defaults when that file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.apply(file)
	return cfg, cfg.Validate()
}

// Parse reads ini content from memory, mostly useful for tests.
func Parse(data []byte) (*Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	cfg.apply(file)
	return cfg, cfg.Validate()
}

func (c *Config) apply(file *ini.File) {
	paths := file.Section("paths")
	c.Paths.Scripts = paths.Key("scripts").MustString(c.Paths.Scripts)
	c.Paths.Results = paths.Key("results").MustString(c.Paths.Results)

	tools := file.Section("tools")
	c.Tools.Adb = tools.Key("adb").MustString(c.Tools.Adb)
	c.Tools.Aapt = tools.Key("aapt").MustString(c.Tools.Aapt)

	backup := file.Section("backup")
	c.Backup.AcceptButtonID = backup.Key("accept_button_id").MustString(c.Backup.AcceptButtonID)
	c.Backup.Timeout = backup.Key("timeout").MustDuration(c.Backup.Timeout)
	c.Backup.Disabled = backup.Key("disabled").MustBool(c.Backup.Disabled)

	c.Logcat.Format = file.Section("logcat").Key("format").MustString(c.Logcat.Format)

	session := file.Section("session")
	c.Session.ScriptTimeout = session.Key("script_timeout").MustDuration(c.Session.ScriptTimeout)
	c.Session.Archive = session.Key("archive").MustString(c.Session.Archive)
}

// Validate rejects settings the session cannot work with.
func (c *Config) Validate() error {
	if c.Paths.Scripts == "" {
		return fmt.Errorf("paths.scripts must not be empty")
	}
	if c.Paths.Results == "" {
		return fmt.Errorf("paths.results must not be empty")
	}
	if c.Tools.Adb == "" || c.Tools.Aapt == "" {
		return fmt.Errorf("tools.adb and tools.aapt must not be empty")
	}
	if c.Backup.Timeout <= 0 {
		return fmt.Errorf("backup.timeout must be positive, got %s", c.Backup.Timeout)
	}
	if c.Session.ScriptTimeout <= 0 {
		return fmt.Errorf("session.script_timeout must be positive, got %s", c.Session.ScriptTimeout)
	}
	switch c.Logcat.Format {
	case "brief", "process", "tag", "thread", "raw", "time", "threadtime", "long":
	default:
		return fmt.Errorf("unsupported logcat format %q", c.Logcat.Format)
	}
	return nil
}
