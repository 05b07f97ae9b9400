package portal

import "errors"

// fatalError marks an error belonging to the Fatal category of the error
// taxonomy: the process is expected to log it and exit non-zero rather
// than recover.
type fatalError struct {
	msg string
}

func (e *fatalError) Error() string { return e.msg }

func newFatalError(msg string) error { return &fatalError{msg: msg} }

// IsFatal reports whether err belongs to the Fatal category.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
