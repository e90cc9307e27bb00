package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// App configures the writing app.
type App struct {
	DataDir          string        `yaml:"data_dir"`
	RefsDir          string        `yaml:"refs_dir"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	ExportTimeout    time.Duration `yaml:"export_timeout"`
	WrapWidth        int           `yaml:"wrap_width"`
	LogLevel         slog.Level    `yaml:"log_level"`
}

// Validate validates the app configuration and fills in the refs dir.
func (c *App) Validate() error {
	if c.RefsDir == "" && c.DataDir != "" {
		c.RefsDir = filepath.Join(c.DataDir, "refs")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.AutosaveInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ExportTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.WrapWidth, validation.Min(0)),
	)
}

// LogPath is where the app writes its log, since the terminal is taken.
func (c *App) LogPath() string {
	return filepath.Join(c.DataDir, "manuscripts.log")
}

// NewDefaultApp returns the app defaults. The data dir honours
// $MANUSCRIPTS_DATA.
func NewDefaultApp() *App {
	dataDir := os.Getenv("MANUSCRIPTS_DATA")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir(), "Documents", "Manuscripts")
	}
	return &App{
		DataDir:          dataDir,
		AutosaveInterval: 30 * time.Second,
		ExportTimeout:    60 * time.Second,
		LogLevel:         slog.LevelInfo,
	}
}

// DefaultAppFile is the app config location under the user config dir.
func DefaultAppFile() string {
	return filepath.Join(configDir(), "manuscripts", "config.yaml")
}

// Receiver configures the LAN submission receiver.
type Receiver struct {
	Teacher   string        `yaml:"teacher"`
	Port      int           `yaml:"port"`
	Password  string        `yaml:"password"`
	SaveDir   string        `yaml:"save_dir"`
	Keepalive time.Duration `yaml:"keepalive"`
	MDNS      bool          `yaml:"mdns"`
	LogLevel  slog.Level    `yaml:"log_level"`
}

// Validate validates the receiver configuration.
func (c *Receiver) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Teacher, validation.Required, validation.Length(1, 63)),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SaveDir, validation.Required),
		validation.Field(&c.Keepalive, validation.Required, validation.Min(time.Second)),
	)
}

// Address returns the HTTP listen address.
func (c *Receiver) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AuthRequired reports whether submissions must carry the password.
func (c *Receiver) AuthRequired() bool { return c.Password != "" }

// NewDefaultReceiver returns the receiver defaults.
func NewDefaultReceiver() *Receiver {
	teacher, _ := os.Hostname()
	if teacher == "" {
		teacher = "Teacher"
	}
	return &Receiver{
		Teacher:   teacher,
		Port:      8765,
		SaveDir:   filepath.Join(homeDir(), "Downloads", "Submissions"),
		Keepalive: 20 * time.Second,
		MDNS:      true,
		LogLevel:  slog.LevelInfo,
	}
}

// DefaultReceiverFile is the receiver config location.
func DefaultReceiverFile() string {
	return filepath.Join(configDir(), "manuscripts", "receiver.yaml")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(homeDir(), ".config")
}
