// Package prompt asks a contributor for the parts of a commit header.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	cwerrors "github.com/alan/commit-wizard/internal/errors"
	"github.com/alan/commit-wizard/internal/header"
)

// BreakType is the menu entry for a breaking feature.
const BreakType = "break"

// Separator frames the header in the confirmation step.
const Separator = "--------------------------------------------------------"

// AbortedMessage is printed when the contributor aborts.
const AbortedMessage = "Commit aborted."

const (
	confirmYes   = "yes"
	confirmAbort = "no"
)

// Choice is one entry of the type menu.
type Choice struct {
	Value       string
	Emoji       string
	Description string
}

// Label is the menu text, e.g. "🚀 feat:     A new feature".
func (c Choice) Label() string {
	return fmt.Sprintf("%s %-9s %s", c.Emoji, c.Value+":", c.Description)
}

// Choices is the type menu in display order.
var Choices = []Choice{
	{Value: "feat", Emoji: "🚀", Description: "A new feature"},
	{Value: "fix", Emoji: "🐛", Description: "A bug fix"},
	{Value: "docs", Emoji: "📚", Description: "Documentation only changes"},
	{Value: "style", Emoji: "🎨", Description: "Changes that do not affect the meaning of the code (white-space, formatting, etc)"},
	{Value: "refactor", Emoji: "🔨", Description: "A code change that neither fixes a bug nor adds a feature"},
	{Value: "perf", Emoji: "⚡️", Description: "A code change that improves performance"},
	{Value: "test", Emoji: "🔍", Description: "Adding missing tests or correcting existing tests"},
	{Value: "build", Emoji: "📦", Description: "Changes that affect the build system or external dependencies"},
	{Value: "ci", Emoji: "🤖", Description: "Changes to our CI configuration files and scripts"},
	{Value: "chore", Emoji: "🧹", Description: "Other changes that don't modify src or test files"},
	{Value: BreakType, Emoji: "💥", Description: "A change that breaks existing functionality"},
	{Value: "revert", Emoji: "⏪", Description: "Reverts a previous commit"},
}

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Answers collects the prompt results.
type Answers struct {
	Type    string
	Scope   string
	Subject string
}

// resolve maps the menu type to the header type and breaking marker.
func (a Answers) resolve() (string, bool) {
	if a.Type == BreakType {
		return "feat", true
	}
	return a.Type, false
}

// Budget is the subject length still available for a's type and scope.
func (a Answers) Budget(maxLen int) int {
	typ, breaking := a.resolve()
	return header.SubjectBudget(typ, strings.TrimSpace(a.Scope), breaking, maxLen)
}

// Header builds and validates the header described by a.
func (a Answers) Header(maxLen int) (header.Header, error) {
	typ, breaking := a.resolve()
	return header.New(typ, a.Scope, a.Subject, breaking, maxLen)
}

// Feedback renders "(n) subject" in green while the subject fits the budget
// and in red once it does not.
func Feedback(subject string, budget int) string {
	n := utf8.RuneCountInString(subject)
	text := fmt.Sprintf("(%d) %s", n, subject)
	if n > budget {
		return invalidStyle.Render(text)
	}
	return validStyle.Render(text)
}

// ValidateSubject rejects empty subjects and subjects over budget.
func ValidateSubject(subject string, budget int) error {
	if strings.TrimSpace(subject) == "" {
		return errors.New("subject is required")
	}
	if n := utf8.RuneCountInString(subject); n > budget {
		return fmt.Errorf("subject length must be less than or equal to %d characters, current length is %d characters", budget, n)
	}
	return nil
}

// Preview frames the header between separator lines.
func Preview(h header.Header) string {
	return fmt.Sprintf("\n%s\n\n%s\n\n%s\n", Separator, header.Format(h), Separator)
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Run asks for type, scope and subject, then for confirmation. It returns
// ErrAborted when the contributor aborts and ErrNotInteractive without a
// terminal.
func Run(ctx context.Context, maxLen int) (header.Header, error) {
	if !Interactive() {
		return header.Header{}, cwerrors.ErrNotInteractive
	}

	var answers Answers
	confirm := confirmYes

	options := make([]huh.Option[string], len(Choices))
	for i, c := range Choices {
		options[i] = huh.NewOption(c.Label(), c.Value)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select the type of change that you're committing:").
				Options(options...).
				Value(&answers.Type),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("What is the scope of this change (e.g. component or file name): (press enter to skip)").
				Value(&answers.Scope),
			huh.NewInput().
				TitleFunc(func() string {
					return fmt.Sprintf("Write a short, imperative tense description of the change (max %d chars):", answers.Budget(maxLen))
				}, &answers.Scope).
				DescriptionFunc(func() string {
					return Feedback(answers.Subject, answers.Budget(maxLen))
				}, &answers.Subject).
				Validate(func(s string) error {
					return ValidateSubject(s, answers.Budget(maxLen))
				}).
				Value(&answers.Subject),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Are you sure you want to proceed with the commit above?").
				DescriptionFunc(func() string {
					h, err := answers.Header(maxLen)
					if err != nil {
						return err.Error()
					}
					return Preview(h)
				}, &answers).
				Options(
					huh.NewOption("Yes", confirmYes),
					huh.NewOption("Abort commit", confirmAbort),
				).
				Value(&confirm),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return header.Header{}, cwerrors.ErrAborted
		}
		return header.Header{}, cwerrors.Wrap(err, "commit prompt failed")
	}
	if confirm == confirmAbort {
		return header.Header{}, cwerrors.ErrAborted
	}
	return answers.Header(maxLen)
}
