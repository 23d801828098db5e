// Package header parses, formats and validates structured commit headers of the
// form "type(scope)!: subject".
package header

import (
	"regexp"
	"strings"
	"unicode/utf8"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
)

// DefaultMaxLength is the header length limit used when none is configured.
const DefaultMaxLength = 120

// pattern captures type, the breaking marker after the type, scope, the breaking
// marker after the scope, and subject.
var pattern = regexp.MustCompile(`^(?P<type>\w+)(?P<bang1>!?)(?:\((?P<scope>[^)]+)\)(?P<bang2>!?))?: (?P<subject>.+)$`)

var (
	groupType    = pattern.SubexpIndex("type")
	groupBang1   = pattern.SubexpIndex("bang1")
	groupScope   = pattern.SubexpIndex("scope")
	groupBang2   = pattern.SubexpIndex("bang2")
	groupSubject = pattern.SubexpIndex("subject")
)

// Header is a parsed commit header. An empty Scope means no scope.
type Header struct {
	Type     string
	Breaking bool
	Scope    string
	Subject  string
}

// String renders the header in canonical form.
func (h Header) String() string {
	return Format(h)
}

// Format renders h as "type(scope)!: subject", omitting the parenthesis when
// there is no scope and the marker when the change is not breaking.
func Format(h Header) string {
	var b strings.Builder
	b.WriteString(h.Type)
	if h.Scope != "" {
		b.WriteString("(")
		b.WriteString(h.Scope)
		b.WriteString(")")
	}
	if h.Breaking {
		b.WriteString("!")
	}
	b.WriteString(": ")
	b.WriteString(h.Subject)
	return b.String()
}

// FirstLine returns the header line of a full commit message.
func FirstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Parse parses the first line of raw into a Header. It returns a
// *errors.LengthError when the line is longer than maxLen and a
// *errors.GrammarError when it does not match the grammar. A maxLen of zero
// or less selects DefaultMaxLength.
func Parse(raw string, maxLen int) (Header, error) {
	line := FirstLine(raw)
	if err := checkLength(line, maxLen); err != nil {
		return Header{}, err
	}

	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return Header{}, &cwerrors.GrammarError{Header: line}
	}

	// Both marker positions may be present at once; they mean the same thing.
	return Header{
		Type:     m[groupType],
		Breaking: m[groupBang1] == "!" || m[groupBang2] == "!",
		Scope:    m[groupScope],
		Subject:  m[groupSubject],
	}, nil
}

// Validate reports whether raw is a valid header within maxLen characters.
func Validate(raw string, maxLen int) error {
	_, err := Parse(raw, maxLen)
	return err
}

// Length is the rendered length of h in characters.
func Length(h Header) int {
	return utf8.RuneCountInString(Format(h))
}

// New builds a header from structured parts and validates the result.
func New(typ, scope, subject string, breaking bool, maxLen int) (Header, error) {
	h := Header{
		Type:     typ,
		Breaking: breaking,
		Scope:    strings.TrimSpace(scope),
		Subject:  strings.TrimSpace(subject),
	}
	if _, err := Parse(Format(h), maxLen); err != nil {
		return Header{}, err
	}
	return h, nil
}

// SubjectBudget is the number of subject characters that fit after
// "type(scope)!: " within maxLen.
func SubjectBudget(typ, scope string, breaking bool, maxLen int) int {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	prefix := utf8.RuneCountInString(typ) + 2
	if scope != "" {
		prefix += utf8.RuneCountInString(scope) + 2
	}
	if breaking {
		prefix++
	}
	return maxLen - prefix
}

func checkLength(line string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if n := utf8.RuneCountInString(line); n > maxLen {
		return &cwerrors.LengthError{Limit: maxLen, Actual: n}
	}
	return nil
}
