package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config collects every engine tunable. The zero value is unusable; start
// from Default and layer an optional config file on top with Load.
type Config struct {
	// LogPath is where the rotated log file lives. Empty means pick
	// /var/log/backupcloser.log when running as root, otherwise
	// $HOME/backupcloser.log.
	LogPath string `toml:"log_path"`
	// LogMaxMB caps the log file size before rotation.
	LogMaxMB int `toml:"log_max_mb"`

	// RawSend serializes snapshots raw (encrypted datasets stay encrypted
	// in flight and at rest on the backup).
	RawSend bool `toml:"raw_send"`
	// AutoSnapshotProperty is the dataset property cleared on the backup
	// target so its own scheduler leaves it alone during a run.
	AutoSnapshotProperty string `toml:"auto_snapshot_property"`

	// ChunkSize and PipeDepth shape the transfer pipeline: bytes per chunk
	// and the capacity of each inter-stage channel.
	ChunkSize int `toml:"chunk_size"`
	PipeDepth int `toml:"pipe_depth"`

	// ProgressIntervalSecs is how often verbose mode reports throughput.
	ProgressIntervalSecs int `toml:"progress_interval_secs"`

	// SnitchID, when set, pings dead man's snitch after a fully
	// successful run.
	SnitchID string `toml:"snitch_id"`
}

func Default() *Config {
	return &Config{
		LogMaxMB:             50,
		RawSend:              true,
		AutoSnapshotProperty: "com.sun:auto-snapshot",
		ChunkSize:            128 * 1024,
		PipeDepth:            16,
		ProgressIntervalSecs: 60,
	}
}

func (conf *Config) ProgressInterval() time.Duration {
	return time.Duration(conf.ProgressIntervalSecs) * time.Second
}

// ResolveLogPath fills in the default log location for the current user.
func (conf *Config) ResolveLogPath(isRoot bool) string {
	if conf.LogPath != "" {
		return conf.LogPath
	}
	if isRoot {
		return "/var/log/backupcloser.log"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "backupcloser.log"
	}
	return filepath.Join(home, "backupcloser.log")
}

var pathHierarchy = []string{
	"/etc/backupcloser.toml",
	"/usr/local/etc/backupcloser.toml",
	"/opt/local/etc/backupcloser.toml",
}

// Load returns Default overlaid with the first config file found in the
// path hierarchy. No file at all is fine; a file that fails to parse is
// an error.
func Load() (*Config, error) {
	conf := Default()
	for _, path := range pathHierarchy {
		f, err := os.Open(path)
		if err != nil && os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}

		defer f.Close()

		dec := toml.NewDecoder(f)
		if _, err := dec.Decode(conf); err != nil {
			return nil, fmt.Errorf("decoding '%s': %w", path, err)
		}
		return conf, nil
	}
	return conf, nil
}
