// Package config loads device settings from ~/.config/tactus/config.json
// with environment overrides for paths.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the per-device configuration.
type Config struct {
	// Channel is this device's instrument channel (the conductor is
	// channel 0 by convention but plays every channel).
	Channel uint8 `json:"channel"`

	// Port and Broadcast define the UDP link.
	Port      int    `json:"port,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`

	// Serial switches the link to a wired serial transport when set.
	Serial     string `json:"serial,omitempty"`
	SerialBaud int    `json:"serialBaud,omitempty"`

	// SongDir is the local song library.
	SongDir string `json:"songDir,omitempty"`

	// Bucket is the S3 bucket the library syncs with.
	Bucket string `json:"bucket,omitempty"`

	// MIDIPort selects the MIDI output port for rendering; -1 disables
	// MIDI output.
	MIDIPort int `json:"midiPort"`

	// HTTPAddr is the conductor's control/status listen address; empty
	// disables the server.
	HTTPAddr string `json:"httpAddr,omitempty"`
}

// Default returns the settings a device assumes with no config file.
func Default() *Config {
	return &Config{
		Channel:    0,
		Port:       7101,
		Broadcast:  "255.255.255.255",
		SerialBaud: 500000,
		SongDir:    "songs",
		MIDIPort:   -1,
		HTTPAddr:   ":8080",
	}
}

// Path returns the config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tactus", "config.json"), nil
}

// Load reads the config, falling back to defaults when no file exists.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back to disk.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetSongDir resolves the song library directory, env first.
func (c *Config) GetSongDir() string {
	if path := os.Getenv("TACTUS_SONG_DIR"); path != "" {
		return path
	}
	return c.SongDir
}

// GetBucket resolves the S3 bucket name, env first.
func (c *Config) GetBucket() string {
	if b := os.Getenv("TACTUS_BUCKET"); b != "" {
		return b
	}
	return c.Bucket
}
