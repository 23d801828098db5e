package notes

import (
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"

	"github.com/alan/commit-wizard/internal/analyzer"
	"github.com/alan/commit-wizard/internal/rules"
)

func TestGenerateScenario(t *testing.T) {
	commits := analyzer.NewCommits(0,
		[2]string{"1111111aaaa", "feat: add login"},
		[2]string{"2222222bbbb", "fix: correct typo"},
		[2]string{"3333333cccc", "chore: update deps"},
	)
	verdict := analyzer.Classify(commits, rules.Default(), semver.MustParse("1.4.2"))
	assert.Equal(t, rules.Minor, verdict.Severity)

	got := Generate(commits, verdict, Options{Date: time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)})

	expected := "## 1.5.0 (2024-03-09)\n" +
		"\n" +
		"### Features\n" +
		"\n" +
		"* add login (1111111)\n" +
		"\n" +
		"### Bug Fixes\n" +
		"\n" +
		"* correct typo (2222222)\n"
	assert.Equal(t, expected, got)

	all := Generate(commits, verdict, Options{ShowAll: true})
	assert.Contains(t, all, "### Chores\n\n* update deps (3333333)\n")
}

func TestGenerateBreaking(t *testing.T) {
	commits := analyzer.NewCommits(0,
		[2]string{"", "feat(auth)!: remove legacy token support"},
		[2]string{"", "fix: tidy\n\nBREAKING CHANGE: config key renamed"},
	)
	verdict := analyzer.Classify(commits, rules.Default(), semver.MustParse("1.4.2"))

	got := Generate(commits, verdict, Options{CompareURL: "https://github.com/o/r/compare/v1.4.2...v2.0.0"})

	expected := "## [2.0.0](https://github.com/o/r/compare/v1.4.2...v2.0.0)\n" +
		"\n" +
		"### ⚠ BREAKING CHANGES\n" +
		"\n" +
		"* **auth:** remove legacy token support\n" +
		"* config key renamed\n" +
		"\n" +
		"### Features\n" +
		"\n" +
		"* **auth:** remove legacy token support\n" +
		"\n" +
		"### Bug Fixes\n" +
		"\n" +
		"* tidy\n"
	assert.Equal(t, expected, got)
}

func TestGenerateOrderAndOther(t *testing.T) {
	commits := analyzer.NewCommits(0,
		[2]string{"", "docs: guide"},
		[2]string{"", "wip: experiment"},
		[2]string{"", "perf: faster"},
		[2]string{"", "not a header"},
		[2]string{"", "feat: thing"},
	)

	got := Generate(commits, analyzer.Verdict{}, Options{})

	expected := "### Features\n" +
		"\n" +
		"* thing\n" +
		"\n" +
		"### Performance Improvements\n" +
		"\n" +
		"* faster\n" +
		"\n" +
		"### Documentation\n" +
		"\n" +
		"* guide\n" +
		"\n" +
		"### Other Changes\n" +
		"\n" +
		"* experiment\n"
	assert.Equal(t, expected, got)
}

func TestGenerateCommitLinks(t *testing.T) {
	commits := analyzer.NewCommits(0, [2]string{"abcdef0123", "fix: link"})

	got := Generate(commits, analyzer.Verdict{}, Options{CommitURL: "https://github.com/o/r/commit/%s"})
	assert.Equal(t, "### Bug Fixes\n\n* link ([abcdef0](https://github.com/o/r/commit/abcdef0123))\n", got)
}

func TestGenerateHiddenOverride(t *testing.T) {
	commits := analyzer.NewCommits(0, [2]string{"", "feat: a"}, [2]string{"", "ci: b"})

	got := Generate(commits, analyzer.Verdict{}, Options{Hidden: []string{"feat"}})
	assert.Equal(t, "### Continuous Integration\n\n* b\n", got)
}

func TestGenerateEmpty(t *testing.T) {
	assert.Equal(t, "", Generate(nil, analyzer.Verdict{}, Options{}))
}

func TestGenerateDeterministic(t *testing.T) {
	commits := analyzer.NewCommits(0,
		[2]string{"", "fix(b): two"},
		[2]string{"", "fix(a): one"},
		[2]string{"", "feat: x"},
	)
	first := Generate(commits, analyzer.Verdict{}, Options{})
	for range 10 {
		assert.Equal(t, first, Generate(commits, analyzer.Verdict{}, Options{}))
	}
}
