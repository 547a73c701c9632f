// Package config defines the settings of the upgrade tool and provides
// helpers to load (YAML file plus FFMPEG_UPGRADE_* environment overrides),
// validate and save them.
package config
