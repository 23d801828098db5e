package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, so it can be used inline:
//
//	return errors.Wrap(repo.Push(ctx), "failed to push release tag")
//
// The chain is preserved and errors.Is keeps matching the sentinels.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
