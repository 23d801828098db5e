package release

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alan/commit-wizard/internal/analyzer"
	"github.com/alan/commit-wizard/internal/rules"
)

// DefaultTagFormat renders a version as a tag name.
const DefaultTagFormat = "v%s"

// DefaultBranch is the release branch used when none is configured.
const DefaultBranch = "main"

// LastRelease is the most recent tagged release. A nil Version means the
// repository has never been released.
type LastRelease struct {
	Version *semver.Version
	Tag     string
	Hash    string
}

// NextRelease is the release computed by the current run.
type NextRelease struct {
	Version  *semver.Version
	Tag      string
	Channel  string
	Notes    string
	Severity rules.Severity
}

// Context is the state of one release run. It is created by NewContext and
// passed by pointer through every phase; only the orchestrator mutates the
// verification state.
type Context struct {
	RunID         string
	RepositoryURL string
	Branch        string
	TagFormat     string
	LastRelease   LastRelease
	Commits       []analyzer.Commit
	NextRelease   NextRelease
	Releases      []Publication
	DryRun        bool

	// Env looks up environment variables; it defaults to os.Getenv.
	Env    func(string) string
	Logger zerolog.Logger

	verified map[string]bool
	complete bool
}

// NewContext creates a run context with a fresh run id. The logger gains a
// run_id field.
func NewContext(logger zerolog.Logger) *Context {
	id := uuid.NewString()
	return &Context{
		RunID:     id,
		Branch:    DefaultBranch,
		TagFormat: DefaultTagFormat,
		Env:       os.Getenv,
		Logger:    logger.With().Str("run_id", id).Logger(),
		verified:  make(map[string]bool),
	}
}

// Getenv returns the value of an environment variable through Env.
func (c *Context) Getenv(key string) string {
	if c.Env == nil {
		return os.Getenv(key)
	}
	return c.Env(key)
}

// Token returns the code hosting token from GITHUB_TOKEN or GH_TOKEN.
func (c *Context) Token() string {
	if token := c.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	return c.Getenv("GH_TOKEN")
}

// Verified reports whether every target passed verification in this run.
func (c *Context) Verified() bool {
	return c.complete
}

// TargetVerified reports whether the named target passed verification.
func (c *Context) TargetVerified(name string) bool {
	return c.verified[name]
}

func (c *Context) markVerified(name string) {
	if c.verified == nil {
		c.verified = make(map[string]bool)
	}
	c.verified[name] = true
}

// Tag renders v with the context tag format.
func (c *Context) Tag(v *semver.Version) string {
	format := c.TagFormat
	if format == "" {
		format = DefaultTagFormat
	}
	return fmt.Sprintf(format, v.String())
}

// LoggerFor returns a logger tagged with phase and target.
func (c *Context) LoggerFor(p Phase, target string) zerolog.Logger {
	ctx := c.Logger.With().Str("phase", string(p))
	if target != "" {
		ctx = ctx.Str("target", target)
	}
	return ctx.Logger()
}
