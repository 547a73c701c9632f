package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/ffmpeg-upgrade/internal/logger"
)

// Config holds the settings of the upgrade tool. Every field maps to a YAML key
// and can be overridden with an FFMPEG_UPGRADE_<KEY> environment variable.
type Config struct {
	// BaseURL is the folder the release tarballs are downloaded from.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// JNIDir is the build tool directory, relative to the working directory.
	JNIDir string `yaml:"jni_dir" mapstructure:"jni_dir"`
	// LinkName is the name of the source tree symlink inside JNIDir.
	LinkName string `yaml:"link_name" mapstructure:"link_name"`
	// BuildScript is the rebuild script inside JNIDir.
	BuildScript string `yaml:"build_script" mapstructure:"build_script"`
	// BuildLog is the log file the rebuild script writes inside JNIDir.
	BuildLog string `yaml:"build_log" mapstructure:"build_log"`
	// BuildTarget is the first argument passed to the rebuild script.
	BuildTarget string `yaml:"build_target" mapstructure:"build_target"`
	// LogLevel is the minimum level of the tool's own log records.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

const (
	// DefaultConfigFilename is read from the working directory when no path is given.
	DefaultConfigFilename = "ffmpeg-upgrade.yaml"

	// EnvPrefix is the prefix of environment variable overrides.
	EnvPrefix = "FFMPEG_UPGRADE"

	// DefaultBaseURL is the official FFmpeg release folder.
	DefaultBaseURL = "https://ffmpeg.org/releases"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	defaultJNIDir      = "ffmpeg/JNI"
	defaultLinkName    = "ffmpeg"
	defaultBuildScript = "rebuild-ffmpeg.sh"
	defaultBuildLog    = "rebuild-ffmpeg.log"
	defaultBuildTarget = "all"
	defaultLogLevel    = "info"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnsupportedScheme is returned for base URLs that are not http(s).
	errUnsupportedScheme = errors.New("base URL must use http or https")
	// errAbsolutePath is returned when a path setting escapes the working directory.
	errAbsolutePath = errors.New("path must be relative to the working directory")
	// errNotAFileName is returned when a file setting contains directories.
	errNotAFileName = errors.New("must be a plain file name")
	// errUnknownLogLevel is returned for log levels ParseLogLevel does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		JNIDir:      defaultJNIDir,
		LinkName:    defaultLinkName,
		BuildScript: defaultBuildScript,
		BuildLog:    defaultBuildLog,
		BuildTarget: defaultBuildTarget,
		LogLevel:    defaultLogLevel,
	}
}

// Load reads settings from path, applies environment overrides and validates the result.
// An empty path means DefaultConfigFilename, which may be absent; a named file must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment overrides only apply to keys viper knows about.
	defaults := Default()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("jni_dir", defaults.JNIDir)
	v.SetDefault("link_name", defaults.LinkName)
	v.SetDefault("build_script", defaults.BuildScript)
	v.SetDefault("build_log", defaults.BuildLog)
	v.SetDefault("build_target", defaults.BuildTarget)
	v.SetDefault("log_level", defaults.LogLevel)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	path = filepath.Clean(path)

	_, err := os.Stat(path)

	switch {
	case err == nil:
		v.SetConfigFile(path)

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills empty fields with defaults and checks the values.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	fillDefaults(settings)

	baseURL, err := url.ParseRequestURI(settings.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return fmt.Errorf("%s: %w", settings.BaseURL, errUnsupportedScheme)
	}

	if filepath.IsAbs(settings.JNIDir) {
		return fmt.Errorf("jni_dir %s: %w", settings.JNIDir, errAbsolutePath)
	}

	files := map[string]string{
		"link_name":    settings.LinkName,
		"build_script": settings.BuildScript,
		"build_log":    settings.BuildLog,
	}

	for key, name := range files {
		if filepath.Base(name) != name || name == "." || name == ".." {
			return fmt.Errorf("%s %q: %w", key, name, errNotAFileName)
		}
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%q: %w", settings.LogLevel, errUnknownLogLevel)
	}

	return nil
}

func fillDefaults(settings *Config) {
	defaults := Default()

	if settings.BaseURL == "" {
		settings.BaseURL = defaults.BaseURL
	}

	if settings.JNIDir == "" {
		settings.JNIDir = defaults.JNIDir
	}

	if settings.LinkName == "" {
		settings.LinkName = defaults.LinkName
	}

	if settings.BuildScript == "" {
		settings.BuildScript = defaults.BuildScript
	}

	if settings.BuildLog == "" {
		settings.BuildLog = defaults.BuildLog
	}

	if settings.BuildTarget == "" {
		settings.BuildTarget = defaults.BuildTarget
	}

	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}
