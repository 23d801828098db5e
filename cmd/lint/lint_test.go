package lint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan/commit-wizard/cmd"
	"github.com/alan/commit-wizard/internal/config"
	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/vcs"
)

func loadDefaults(string) (*cmd.Config, error) {
	return config.Defaults(), nil
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "feat: add login", expected: "feat: add login"},
		{
			name:     "git template",
			input:    "fix: correct typo\n\n# Please enter the commit message for your changes.\n# On branch main\n",
			expected: "fix: correct typo",
		},
		{name: "leading comment", input: "# comment\n\nfeat: add login\n", expected: "feat: add login"},
		{
			name:     "scissors",
			input:    "feat: add login\n\nbody\n" + scissors + "\ndiff --git a/x b/x\n",
			expected: "feat: add login\n\nbody",
		},
		{name: "only comments", input: "# nothing\n# here\n", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripComments(tt.input))
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		errText string
	}{
		{name: "valid", input: "feat(auth)!: drop sessions"},
		{name: "valid with comment", input: "# header\nfix: correct typo\n"},
		{
			name:    "not conventional",
			input:   "added stuff",
			wantErr: cwerrors.ErrGrammar,
			errText: `header "added stuff" does not match type(scope)!: subject`,
		},
		{
			name:    "too long",
			input:   "feat: " + strings.Repeat("a", 125),
			wantErr: cwerrors.ErrLength,
			errText: "header must not be longer than 120 characters, current length is 131 (11 over)",
		},
		{
			name:    "header longer than a scanner buffer",
			input:   "feat: " + strings.Repeat("a", 70000),
			wantErr: cwerrors.ErrLength,
		},
		{name: "crlf line endings", input: "fix: correct typo\r\n\r\n# comment\r\n"},
		{name: "empty", input: "# only a comment\n", wantErr: cwerrors.ErrGrammar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Message(tt.input, 120)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errText != "" {
				assert.EqualError(t, err, tt.errText)
			}
		})
	}
}

func runLint(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts := cmd.NewOptions()
	opts.Dir = dir
	opts.In = strings.NewReader(stdin)
	opts.Out = &out
	opts.Err = &out

	c := NewLintCmd(opts, loadDefaults)
	c.SetArgs(args)
	c.SetOut(&out)
	c.SetErr(&out)
	err := c.Execute()
	return out.String(), err
}

func TestLintCommand(t *testing.T) {
	dir := t.TempDir()
	msgFile := filepath.Join(dir, "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(msgFile, []byte("docs: describe setup\n\n# comment\n"), 0o600))
	badFile := filepath.Join(dir, "BAD_MSG")
	require.NoError(t, os.WriteFile(badFile, []byte("wip\n"), 0o600))

	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr error
	}{
		{name: "argument", args: []string{"feat: add login"}},
		{name: "invalid argument", args: []string{"add login"}, wantErr: cwerrors.ErrGrammar},
		{name: "file", args: []string{"--file", msgFile}},
		{name: "invalid file", args: []string{"-f", badFile}, wantErr: cwerrors.ErrGrammar},
		{name: "missing file", args: []string{"--file", filepath.Join(dir, "missing")}, wantErr: cwerrors.ErrIO},
		{name: "stdin", stdin: "fix: correct typo\n"},
		{name: "argument and file", args: []string{"--file", msgFile, "feat: x"}, wantErr: cwerrors.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runLint(t, dir, tt.stdin, tt.args...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLintHistory(t *testing.T) {
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	repo, err := vcs.New(r)
	require.NoError(t, err)

	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)}
	var hashes []string
	for i, m := range []string{"chore: init", "feat: add login", "fixed things", "fix: correct typo"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte{byte('a' + i)}, 0o644))
		require.NoError(t, repo.Stage("a.txt"))
		hash, err := repo.Commit(m, sig)
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}

	out, err := runLint(t, dir, "", "--from", hashes[2])
	require.NoError(t, err)
	assert.Contains(t, out, "1 commits since")

	_, err = runLint(t, dir, "", "--from", hashes[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, cwerrors.ErrGrammar)
	assert.Contains(t, err.Error(), "commit "+hashes[2][:7])
}
