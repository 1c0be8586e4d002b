// Package config loads AirMarker settings from ~/.airmarker/config.toml,
// AIRMARKER_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".airmarker"
	envPrefix  = "AIRMARKER"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

// Config is the complete application configuration.
type Config struct {
	Camera  CameraConfig  `toml:"camera" mapstructure:"camera"`
	Canvas  CanvasConfig  `toml:"canvas" mapstructure:"canvas"`
	Toolbar ToolbarConfig `toml:"toolbar" mapstructure:"toolbar"`
	Gesture GestureConfig `toml:"gesture" mapstructure:"gesture"`
	Voice   VoiceConfig   `toml:"voice" mapstructure:"voice"`
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Tray    TrayConfig    `toml:"tray" mapstructure:"tray"`
	Store   StoreConfig   `toml:"store" mapstructure:"store"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
}

type CameraConfig struct {
	ID     int `toml:"id" mapstructure:"id"`
	Width  int `toml:"width" mapstructure:"width"`
	Height int `toml:"height" mapstructure:"height"`
}

type CanvasConfig struct {
	SavePath  string `toml:"save_path" mapstructure:"save_path"`
	Thickness int    `toml:"thickness" mapstructure:"thickness"`
	Threshold int    `toml:"threshold" mapstructure:"threshold"`
}

type ToolbarConfig struct {
	Dir    string `toml:"dir" mapstructure:"dir"`
	Height int    `toml:"height" mapstructure:"height"`
}

type GestureConfig struct {
	// UndoRepeat fires undo on every frame the open palm is held instead of
	// only when it appears.
	UndoRepeat bool    `toml:"undo_repeat" mapstructure:"undo_repeat"`
	Script     string  `toml:"script" mapstructure:"script"`
	Confidence float64 `toml:"confidence" mapstructure:"confidence"`
}

type VoiceConfig struct {
	PluginDir   string        `toml:"plugin_dir" mapstructure:"plugin_dir"`
	Plugin      string        `toml:"plugin" mapstructure:"plugin"`
	Timeout     time.Duration `toml:"timeout" mapstructure:"timeout"`
	Feedback    bool          `toml:"feedback" mapstructure:"feedback"`
	Transcriber []string      `toml:"transcriber" mapstructure:"transcriber"`
	Voice       string        `toml:"voice" mapstructure:"voice"`
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Addr    string `toml:"addr" mapstructure:"addr"`
	MDNS    bool   `toml:"mdns" mapstructure:"mdns"`
}

type TrayConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`
}

type StoreConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Pretty bool   `toml:"pretty" mapstructure:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Camera:  CameraConfig{ID: 0, Width: 1280, Height: 720},
		Canvas:  CanvasConfig{SavePath: "saved_drawing.png", Thickness: 15, Threshold: 50},
		Toolbar: ToolbarConfig{Dir: "Header", Height: 125},
		Gesture: GestureConfig{UndoRepeat: false, Confidence: 0.85},
		Voice: VoiceConfig{
			PluginDir:   "plugins",
			Plugin:      "speech",
			Timeout:     5 * time.Second,
			Feedback:    true,
			Transcriber: []string{},
		},
		Server: ServerConfig{Enabled: false, Addr: ":8080", MDNS: false},
		Tray:   TrayConfig{Enabled: false},
		Store:  StoreConfig{Path: filepath.Join("~", configDir, "airmarker.db")},
		Log:    LogConfig{Level: "info", Pretty: true},
	}
}

// SetDefaults registers every default on v so env vars and flags can
// override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("camera.id", d.Camera.ID)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("canvas.save_path", d.Canvas.SavePath)
	v.SetDefault("canvas.thickness", d.Canvas.Thickness)
	v.SetDefault("canvas.threshold", d.Canvas.Threshold)
	v.SetDefault("toolbar.dir", d.Toolbar.Dir)
	v.SetDefault("toolbar.height", d.Toolbar.Height)
	v.SetDefault("gesture.undo_repeat", d.Gesture.UndoRepeat)
	v.SetDefault("gesture.script", d.Gesture.Script)
	v.SetDefault("gesture.confidence", d.Gesture.Confidence)
	v.SetDefault("voice.plugin_dir", d.Voice.PluginDir)
	v.SetDefault("voice.plugin", d.Voice.Plugin)
	v.SetDefault("voice.timeout", d.Voice.Timeout)
	v.SetDefault("voice.feedback", d.Voice.Feedback)
	v.SetDefault("voice.transcriber", d.Voice.Transcriber)
	v.SetDefault("voice.voice", d.Voice.Voice)
	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.mdns", d.Server.MDNS)
	v.SetDefault("tray.enabled", d.Tray.Enabled)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// DefaultPath returns ~/.airmarker/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, configDir, configName+"."+configType), nil
}

// Load reads the configuration into v and decodes it. An explicit path must
// exist; without one, a missing ~/.airmarker/config.toml is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, configDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	storePath, err := expandHome(cfg.Store.Path)
	if err != nil {
		return Config{}, err
	}
	cfg.Store.Path = storePath

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the drawing pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("invalid camera size %dx%d", c.Camera.Width, c.Camera.Height)
	case c.Canvas.Thickness <= 0:
		return fmt.Errorf("invalid canvas thickness %d", c.Canvas.Thickness)
	case c.Canvas.Threshold < 0 || c.Canvas.Threshold > 255:
		return fmt.Errorf("invalid canvas threshold %d", c.Canvas.Threshold)
	case c.Toolbar.Height <= 0 || c.Toolbar.Height >= c.Camera.Height:
		return fmt.Errorf("invalid toolbar height %d", c.Toolbar.Height)
	case c.Canvas.SavePath == "":
		return errors.New("canvas save path is empty")
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// WriteDefault writes the default configuration as TOML to path.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
