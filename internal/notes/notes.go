// Package notes renders markdown release notes from classified commits.
package notes

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alan/commit-wizard/internal/analyzer"
)

// BreakingTitle heads the leading breaking changes section.
const BreakingTitle = "⚠ BREAKING CHANGES"

// OtherTitle heads the section of types without a known title.
const OtherTitle = "Other Changes"

// Section maps a commit type to its heading.
type Section struct {
	Type  string
	Title string
}

// Sections is the fixed display order of known types.
var Sections = []Section{
	{Type: "feat", Title: "Features"},
	{Type: "fix", Title: "Bug Fixes"},
	{Type: "perf", Title: "Performance Improvements"},
	{Type: "revert", Title: "Reverts"},
	{Type: "docs", Title: "Documentation"},
	{Type: "style", Title: "Styles"},
	{Type: "refactor", Title: "Code Refactoring"},
	{Type: "test", Title: "Tests"},
	{Type: "build", Title: "Build System"},
	{Type: "ci", Title: "Continuous Integration"},
	{Type: "chore", Title: "Chores"},
}

// DefaultHidden lists types left out unless Options.ShowAll is set.
var DefaultHidden = []string{"chore", "style", "test", "build", "ci"}

// Options control rendering.
type Options struct {
	// Date is printed next to the version; the zero value omits it.
	Date time.Time
	// CompareURL links the version title when set.
	CompareURL string
	// CommitURL is a format string receiving the full hash, e.g.
	// "https://github.com/o/r/commit/%s".
	CommitURL string
	// Hidden overrides DefaultHidden when non-nil.
	Hidden []string
	// ShowAll renders every section regardless of Hidden.
	ShowAll bool
}

func (o Options) hidden(typ string) bool {
	if o.ShowAll {
		return false
	}
	hidden := o.Hidden
	if hidden == nil {
		hidden = DefaultHidden
	}
	return slices.Contains(hidden, typ)
}

func known(typ string) bool {
	return slices.ContainsFunc(Sections, func(s Section) bool { return s.Type == typ })
}

// Generate renders notes for commits. Invalid commits are omitted. Output is
// deterministic for a given commit order.
func Generate(commits []analyzer.Commit, verdict analyzer.Verdict, opts Options) string {
	var b strings.Builder

	if verdict.NextVersion != nil {
		writeTitle(&b, verdict.NextVersion.String(), opts)
	}

	var breaking []string
	grouped := make(map[string][]string)
	var other []string
	for _, c := range commits {
		if !c.Valid {
			continue
		}
		if c.Breaking() {
			text := c.Header.Subject
			if c.BreakingNote != "" {
				text = c.BreakingNote
			}
			breaking = append(breaking, entry(c, text, opts))
		}
		if opts.hidden(c.Header.Type) {
			continue
		}
		if known(c.Header.Type) {
			grouped[c.Header.Type] = append(grouped[c.Header.Type], entry(c, c.Header.Subject, opts))
			continue
		}
		other = append(other, entry(c, c.Header.Subject, opts))
	}

	writeSection(&b, BreakingTitle, breaking)
	for _, s := range Sections {
		writeSection(&b, s.Title, grouped[s.Type])
	}
	writeSection(&b, OtherTitle, other)

	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func writeTitle(b *strings.Builder, version string, opts Options) {
	title := version
	if opts.CompareURL != "" {
		title = fmt.Sprintf("[%s](%s)", version, opts.CompareURL)
	}
	if !opts.Date.IsZero() {
		title = fmt.Sprintf("%s (%s)", title, opts.Date.UTC().Format(time.DateOnly))
	}
	fmt.Fprintf(b, "## %s\n\n", title)
}

func writeSection(b *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "* %s\n", e)
	}
	b.WriteString("\n")
}

func entry(c analyzer.Commit, text string, opts Options) string {
	var b strings.Builder
	if c.Header.Scope != "" {
		fmt.Fprintf(&b, "**%s:** ", c.Header.Scope)
	}
	b.WriteString(text)
	if short := c.ShortHash(); short != "" {
		if opts.CommitURL != "" {
			fmt.Fprintf(&b, " ([%s](%s))", short, fmt.Sprintf(opts.CommitURL, c.Hash))
		} else {
			fmt.Fprintf(&b, " (%s)", short)
		}
	}
	return b.String()
}
