// Package config is responsible for finding and parsing the user configuration.
// The defaults are defined in code and the values found in the user's
// config.json are applied on top of them.
//
// Linux/BSD configurations live in $HOME/.mpdart/config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpdart/mpdart/src/helpers"
)

// ConfigName is the name of the configuration file inside the user path.
const ConfigName = "config.json"

// Config contains a representation for everything in config.json.
type Config struct {
	MPD             MPD     `json:"mpd"`
	OutputDir       string  `json:"output_dir"`
	CurrentFilename string  `json:"current_filename"`
	DefaultImage    string  `json:"default_image"`
	MusicDir        string  `json:"music_dir"`
	Resize          [2]int  `json:"resize"`
	DisplayCmd      string  `json:"display_cmd"`
	Listen          string  `json:"listen"`
	HTTPToken       string  `json:"http_token"`
	ReadTimeout     int     `json:"read_timeout"`
	WriteTimeout    int     `json:"write_timeout"`
	LogFile         string  `json:"log_file"`
	UserPath        string  `json:"user_path"`
	HistoryDatabase string  `json:"history_database"`
	Overlay         Overlay `json:"overlay"`
	CoverArtArchive CAA     `json:"cover_art_archive"`
}

// MPD describes how to reach the music daemon. When UseSocket is set the
// Socket path is used, otherwise a TCP connection to Host:Port is made.
type MPD struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Socket    string `json:"socket"`
	UseSocket bool   `json:"use_socket"`
	Password  string `json:"password"`
}

// Address returns the network and address arguments suitable for dialing
// the daemon.
func (m MPD) Address() (network, addr string) {
	if m.UseSocket && m.Socket != "" {
		return "unix", m.Socket
	}
	return "tcp", fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// Overlay configures the optional metadata text composite which is drawn
// around the artwork before it is committed to the cache.
type Overlay struct {
	Enabled  bool   `json:"enabled"`
	FontFile string `json:"font_file"`
}

// CAA configures the optional Cover Art Archive lookup which is consulted
// when neither embedded artwork nor a sidecar file was found.
type CAA struct {
	Enabled   bool   `json:"enabled"`
	UserAgent string `json:"user_agent"`
	MinScore  int    `json:"min_score"`
}

// Default returns the configuration which is used when the user has not
// overridden anything.
func Default() Config {
	return Config{
		MPD: MPD{
			Host: "localhost",
			Port: 6600,
		},
		CurrentFilename: "current_cover.jpg",
		Resize:          [2]int{800, 480},
		Listen:          "127.0.0.1:8080",
		ReadTimeout:     15,
		WriteTimeout:    60,
		CoverArtArchive: CAA{
			UserAgent: "mpdart",
			MinScore:  95,
		},
	}
}

// FindAndParse finds the configuration file and parses it on top of the
// default configuration. A missing user configuration file is not an error.
// One with the defaults is created instead so that the user has something
// to edit.
func (cfg *Config) FindAndParse() error {
	*cfg = Default()

	userFile := cfg.UserConfigPath()
	if _, err := os.Stat(userFile); os.IsNotExist(err) {
		if err := cfg.writeDefault(userFile); err != nil {
			return err
		}
	}

	fh, err := os.Open(userFile)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer fh.Close()

	if err := json.NewDecoder(fh).Decode(cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", userFile, err)
	}

	if cfg.Resize[0] < 1 || cfg.Resize[1] < 1 {
		return fmt.Errorf(
			"resize dimensions must be positive, got %dx%d",
			cfg.Resize[0], cfg.Resize[1],
		)
	}

	if cfg.OutputDir == "" {
		userPath, err := helpers.ProjectUserPath()
		if err != nil {
			return err
		}
		cfg.OutputDir = filepath.Join(userPath, "cache")
	}
	if cfg.HistoryDatabase == "" {
		cfg.HistoryDatabase = filepath.Join(cfg.OutputDir, "history.db")
	}

	return nil
}

// UserConfigPath returns the full path to the place where the user's
// configuration file should be.
func (cfg *Config) UserConfigPath() string {
	if len(cfg.UserPath) > 0 && filepath.IsAbs(cfg.UserPath) {
		return filepath.Join(cfg.UserPath, ConfigName)
	}

	path, err := helpers.ProjectUserPath()
	if err != nil {
		return ConfigName
	}
	return filepath.Join(path, ConfigName)
}

func (cfg *Config) writeDefault(userFile string) error {
	if err := os.MkdirAll(filepath.Dir(userFile), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	contents, err := json.MarshalIndent(Default(), "", "    ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(userFile, contents, 0600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
