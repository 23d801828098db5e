package release

import (
	"context"
	"strings"

	"github.com/alan/commit-wizard/internal/rules"
)

// Phase names one step of the release lifecycle.
type Phase string

// Lifecycle phases in execution order. AddChannel, Success and Fail are not
// part of the main sequence.
const (
	PhaseVerifyConditions Phase = "verifyConditions"
	PhaseAnalyzeCommits   Phase = "analyzeCommits"
	PhaseGenerateNotes    Phase = "generateNotes"
	PhasePrepare          Phase = "prepare"
	PhasePublish          Phase = "publish"
	PhaseAddChannel       Phase = "addChannel"
	PhaseSuccess          Phase = "success"
	PhaseFail             Phase = "fail"
)

// Phases lists every phase.
var Phases = []Phase{
	PhaseVerifyConditions,
	PhaseAnalyzeCommits,
	PhaseGenerateNotes,
	PhasePrepare,
	PhasePublish,
	PhaseAddChannel,
	PhaseSuccess,
	PhaseFail,
}

// Capability is a bit set of the phases a target implements.
type Capability uint16

// Capability bits, one per phase.
const (
	CanVerifyConditions Capability = 1 << iota
	CanAnalyzeCommits
	CanGenerateNotes
	CanPrepare
	CanPublish
	CanAddChannel
	CanSuccess
	CanFail
)

// Capability returns the bit for p.
func (p Phase) Capability() Capability {
	switch p {
	case PhaseVerifyConditions:
		return CanVerifyConditions
	case PhaseAnalyzeCommits:
		return CanAnalyzeCommits
	case PhaseGenerateNotes:
		return CanGenerateNotes
	case PhasePrepare:
		return CanPrepare
	case PhasePublish:
		return CanPublish
	case PhaseAddChannel:
		return CanAddChannel
	case PhaseSuccess:
		return CanSuccess
	case PhaseFail:
		return CanFail
	}
	return 0
}

// Has reports whether every bit of other is set in c.
func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

// String lists the phases in c, e.g. "verifyConditions|publish".
func (c Capability) String() string {
	var names []string
	for _, p := range Phases {
		if c.Has(p.Capability()) {
			names = append(names, string(p))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Publication records one externally visible release.
type Publication struct {
	Target string
	Name   string
	URL    string
}

// Target is a publishing backend. The orchestrator only calls a hook whose
// bit is set in Capabilities; embed Base to get no-op defaults for the rest.
type Target interface {
	Name() string
	Capabilities() Capability

	VerifyConditions(ctx context.Context, rc *Context) error
	AnalyzeCommits(ctx context.Context, rc *Context) (rules.Severity, error)
	GenerateNotes(ctx context.Context, rc *Context) (string, error)
	Prepare(ctx context.Context, rc *Context) error
	Publish(ctx context.Context, rc *Context) (*Publication, error)
	AddChannel(ctx context.Context, rc *Context) (*Publication, error)
	Success(ctx context.Context, rc *Context) error
	Fail(ctx context.Context, rc *Context, cause error) error
}

// Base implements every hook as a no-op.
type Base struct{}

// VerifyConditions accepts every run.
func (Base) VerifyConditions(context.Context, *Context) error { return nil }

// AnalyzeCommits asks for no release.
func (Base) AnalyzeCommits(context.Context, *Context) (rules.Severity, error) {
	return rules.None, nil
}

// GenerateNotes contributes no notes.
func (Base) GenerateNotes(context.Context, *Context) (string, error) { return "", nil }

// Prepare does nothing.
func (Base) Prepare(context.Context, *Context) error { return nil }

// Publish records no publication.
func (Base) Publish(context.Context, *Context) (*Publication, error) { return nil, nil }

// AddChannel records no publication.
func (Base) AddChannel(context.Context, *Context) (*Publication, error) { return nil, nil }

// Success does nothing.
func (Base) Success(context.Context, *Context) error { return nil }

// Fail ignores the cause.
func (Base) Fail(context.Context, *Context, error) error { return nil }
