package commitanalyzer

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan/commit-wizard/internal/analyzer"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/release"
	"github.com/alan/commit-wizard/internal/rules"
)

func TestAnalyzeCommits(t *testing.T) {
	tests := []struct {
		name     string
		table    rules.Table
		messages []string
		expected rules.Severity
	}{
		{name: "feature", table: rules.Extended(), messages: []string{"fix: a", "feat: b"}, expected: rules.Minor},
		{name: "breaking", table: rules.Extended(), messages: []string{"feat!: a", "fix: b"}, expected: rules.Major},
		{name: "patch only", table: rules.Extended(), messages: []string{"docs: a", "chore: b"}, expected: rules.Patch},
		{name: "default set ignores docs", table: rules.Default(), messages: []string{"docs: a"}, expected: rules.None},
		{name: "invalid", table: rules.Extended(), messages: []string{"update stuff"}, expected: rules.None},
		{name: "empty", table: rules.Extended(), expected: rules.None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := release.NewContext(zerolog.Nop())
			for i, m := range tt.messages {
				rc.Commits = append(rc.Commits, analyzer.NewCommit(string(rune('a'+i))+"000000", m, 0))
			}

			target := New(tt.table)
			severity, err := target.AnalyzeCommits(context.Background(), rc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, severity)
		})
	}
}

func TestVerifyConditions(t *testing.T) {
	rc := release.NewContext(zerolog.Nop())

	assert.NoError(t, New(rules.Default()).VerifyConditions(context.Background(), rc))
	err := New(rules.Table{{Severity: rules.Minor}}).VerifyConditions(context.Background(), rc)
	assert.ErrorIs(t, err, cwerrors.ErrConfig)
}

func TestCapabilities(t *testing.T) {
	target := New(rules.Default())
	assert.Equal(t, Name, target.Name())
	assert.True(t, target.Capabilities().Has(release.CanAnalyzeCommits))
	assert.False(t, target.Capabilities().Has(release.CanPublish))
}
