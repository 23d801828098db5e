package analyzer

import (
	"strings"

	cc "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/alan/commit-wizard/internal/header"
)

// Commit is one commit under analysis. Commits whose header does not parse are
// kept with Valid set to false so they still flow through the pipeline.
type Commit struct {
	Hash         string
	Message      string
	Header       header.Header
	Valid        bool
	BreakingNote string
}

// ShortHash returns the first seven characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Breaking reports whether the commit carries a breaking marker or footer.
func (c Commit) Breaking() bool {
	return c.Valid && (c.Header.Breaking || c.BreakingNote != "")
}

// NewCommit parses message into a Commit. A header longer than maxLen or not
// matching the grammar yields an invalid commit rather than an error.
func NewCommit(hash, message string, maxLen int) Commit {
	c := Commit{Hash: hash, Message: message}
	h, err := header.Parse(message, maxLen)
	if err != nil {
		return c
	}
	c.Header = h
	c.Valid = true
	c.BreakingNote = breakingNote(message)
	return c
}

// NewCommits parses a list of (hash, message) pairs in order.
func NewCommits(maxLen int, pairs ...[2]string) []Commit {
	commits := make([]Commit, 0, len(pairs))
	for _, p := range pairs {
		commits = append(commits, NewCommit(p[0], p[1], maxLen))
	}
	return commits
}

// breakingNote extracts the text of a BREAKING CHANGE footer, if any. The
// footer parser runs in best effort mode so malformed bodies are tolerated.
func breakingNote(message string) string {
	if !strings.Contains(message, "BREAKING") {
		return ""
	}
	m := parser.NewMachine(cc.WithTypes(cc.TypesFreeForm), cc.WithBestEffort())
	msg, _ := m.Parse([]byte(strings.TrimSpace(message)))
	commit, ok := msg.(*cc.ConventionalCommit)
	if !ok || commit == nil {
		return ""
	}
	for key, values := range commit.Footers {
		normalized := strings.ReplaceAll(strings.ToLower(key), "-", " ")
		if normalized != "breaking change" || len(values) == 0 {
			continue
		}
		return strings.TrimSpace(strings.Join(values, "\n"))
	}
	return ""
}
