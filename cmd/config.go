// Package cmd defines the configuration shared by every commit-wizard command.
package cmd

import (
	"fmt"
	"strings"
	"time"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/rules"
)

// ConfigFileName is the project-local configuration file
const ConfigFileName = "commit-wizard.config.json"

// DefaultTargets is the publishing target order used when none is configured
var DefaultTargets = []string{"commit-analyzer", "release-notes", "git", "registry", "brew", "github"}

// Duration is a time.Duration that reads and writes as text, e.g. "60s"
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return cwerrors.Wrapf(cwerrors.ErrConfig, "invalid duration %q", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the structure of commit-wizard.config.json
type Config struct {
	MaxLineLength int            `mapstructure:"maxLineLength" json:"maxLineLength" yaml:"maxLineLength"`
	Release       ReleaseConfig  `mapstructure:"release" json:"release" yaml:"release"`
	Git           GitConfig      `mapstructure:"git" json:"git" yaml:"git"`
	Registry      RegistryConfig `mapstructure:"registry" json:"registry" yaml:"registry"`
	Brew          BrewConfig     `mapstructure:"brew" json:"brew" yaml:"brew"`
	GitHub        GitHubConfig   `mapstructure:"github" json:"github" yaml:"github"`
}

// ReleaseConfig controls the release run
type ReleaseConfig struct {
	Branch        string      `mapstructure:"branch" json:"branch" yaml:"branch"`
	RepositoryURL string      `mapstructure:"repositoryUrl" json:"repositoryUrl,omitempty" yaml:"repositoryUrl,omitempty"`
	RuleSet       string      `mapstructure:"ruleSet" json:"ruleSet" yaml:"ruleSet"`
	Rules         rules.Table `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty"`
	Targets       []string    `mapstructure:"targets" json:"targets" yaml:"targets"`
	Channel       string      `mapstructure:"channel" json:"channel,omitempty" yaml:"channel,omitempty"`
	TagFormat     string      `mapstructure:"tagFormat" json:"tagFormat" yaml:"tagFormat"`
	HTTPTimeout   Duration    `mapstructure:"httpTimeout" json:"httpTimeout" yaml:"httpTimeout"`
}

// GitConfig controls the git target
type GitConfig struct {
	Remote  string   `mapstructure:"remote" json:"remote" yaml:"remote"`
	Assets  []string `mapstructure:"assets" json:"assets" yaml:"assets"`
	Message string   `mapstructure:"message" json:"message" yaml:"message"`
}

// RegistryConfig controls the OCI registry target
type RegistryConfig struct {
	Reference string   `mapstructure:"reference" json:"reference,omitempty" yaml:"reference,omitempty"`
	Files     []string `mapstructure:"files" json:"files" yaml:"files"`
	PlainHTTP bool     `mapstructure:"plainHttp" json:"plainHttp,omitempty" yaml:"plainHttp,omitempty"`
}

// BrewConfig controls the formula target
type BrewConfig struct {
	// Formula is the formula path inside the tap; defaults to <repo>.rb
	Formula string `mapstructure:"formula" json:"formula,omitempty" yaml:"formula,omitempty"`
	// Tap is the repository URL holding the formula; defaults to the release repository
	Tap string `mapstructure:"tap" json:"tap,omitempty" yaml:"tap,omitempty"`
	// Branch of the tap the formula is committed to; defaults to release.branch
	Branch string `mapstructure:"branch" json:"branch,omitempty" yaml:"branch,omitempty"`
	// Artifact is a local archive digested instead of the tag tarball
	Artifact string `mapstructure:"artifact" json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// GitHubConfig controls the hosting target
type GitHubConfig struct {
	APIURL     string   `mapstructure:"apiUrl" json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	FailIssue  bool     `mapstructure:"failIssue" json:"failIssue" yaml:"failIssue"`
	FailLabels []string `mapstructure:"failLabels" json:"failLabels" yaml:"failLabels"`
}

// RuleTable returns the configured rules, or the named built-in set when no
// rules are configured
func (c *Config) RuleTable() (rules.Table, error) {
	if len(c.Release.Rules) > 0 {
		return c.Release.Rules, c.Release.Rules.Validate()
	}
	return rules.ByName(c.Release.RuleSet)
}

// Timeout returns the HTTP timeout of the release targets
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Release.HTTPTimeout)
}

// Validate checks the configuration for values no command can work with
func (c *Config) Validate() error {
	if c.MaxLineLength <= 0 {
		return cwerrors.Wrapf(cwerrors.ErrConfig, "maxLineLength must be positive, got %d", c.MaxLineLength)
	}
	if strings.Count(c.Release.TagFormat, "%s") != 1 {
		return cwerrors.Wrapf(cwerrors.ErrConfig, "release.tagFormat must contain %%s exactly once, got %q", c.Release.TagFormat)
	}
	if c.Release.HTTPTimeout < 0 {
		return cwerrors.Wrap(cwerrors.ErrConfig, "release.httpTimeout must not be negative")
	}
	if _, err := c.RuleTable(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Release.Targets))
	for _, t := range c.Release.Targets {
		if seen[t] {
			return cwerrors.Wrapf(cwerrors.ErrConfig, "release target %q listed twice", t)
		}
		seen[t] = true
	}
	return nil
}

// String summarizes the release settings for logs
func (c *Config) String() string {
	return fmt.Sprintf("branch=%s targets=%s ruleSet=%s", c.Release.Branch, strings.Join(c.Release.Targets, ","), c.Release.RuleSet)
}
