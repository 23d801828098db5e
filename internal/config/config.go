// Package config provides functions for loading and saving commit-wizard configuration files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alan/commit-wizard/cmd"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/header"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/rules"
	"github.com/alan/commit-wizard/internal/vcs"
)

// EnvPrefix prefixes every environment override, e.g. COMMIT_WIZARD_RELEASE_BRANCH.
const EnvPrefix = "COMMIT_WIZARD"

// DefaultReleaseMessage is the commit message of the git target; %s is the version.
const DefaultReleaseMessage = "chore(release): %s [skip ci]"

// DefaultFailLabels label the issue opened by a failed release.
var DefaultFailLabels = []string{"semantic-release"}

func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("maxLineLength", header.DefaultMaxLength)
	v.SetDefault("release.branch", release.DefaultBranch)
	v.SetDefault("release.repositoryUrl", "")
	v.SetDefault("release.ruleSet", rules.SetExtended)
	v.SetDefault("release.targets", cmd.DefaultTargets)
	v.SetDefault("release.channel", "")
	v.SetDefault("release.tagFormat", release.DefaultTagFormat)
	v.SetDefault("release.httpTimeout", "60s")
	v.SetDefault("git.remote", vcs.DefaultRemote)
	v.SetDefault("git.assets", []string{})
	v.SetDefault("git.message", DefaultReleaseMessage)
	v.SetDefault("registry.reference", "")
	v.SetDefault("registry.files", []string{})
	v.SetDefault("registry.plainHttp", false)
	v.SetDefault("brew.formula", "")
	v.SetDefault("brew.tap", "")
	v.SetDefault("brew.branch", "")
	v.SetDefault("brew.artifact", "")
	v.SetDefault("github.apiUrl", "")
	v.SetDefault("github.failIssue", true)
	v.SetDefault("github.failLabels", DefaultFailLabels)
}

func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// Path returns the configuration file location inside dir
func Path(dir string) string {
	return filepath.Join(dir, cmd.ConfigFileName)
}

// Load reads the configuration of the project in dir. Values are taken, highest
// precedence first, from COMMIT_WIZARD_* environment variables, the project's
// commit-wizard.config.json and the built-in defaults. A missing file is not an
// error.
func Load(dir string) (*cmd.Config, error) {
	v := newViperInstance()

	path := Path(dir)
	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, cwerrors.Wrapf(cwerrors.ErrConfig, "failed to read config file %s: %v", path, err)
		}
	}

	var cfg cmd.Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, cwerrors.Wrapf(cwerrors.ErrConfig, "failed to parse config file: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cwerrors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Defaults returns the configuration used when no file and no environment
// overrides exist
func Defaults() *cmd.Config {
	var cfg cmd.Config
	v := viper.New()
	setDefaults(v)
	// defaults always decode
	_ = v.Unmarshal(&cfg, viperDecoderOption())
	return &cfg
}

// Save writes cfg as indented JSON
func Save(path string, cfg *cmd.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return cwerrors.Wrapf(cwerrors.ErrConfig, "failed to marshal config: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // project config is meant to be committed
		return &cwerrors.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// ToYAML renders cfg for display
func ToYAML(cfg *cmd.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", cwerrors.Wrapf(cwerrors.ErrConfig, "failed to marshal config: %v", err)
	}
	return string(data), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
