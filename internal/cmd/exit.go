package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/millrace/flowbroker/internal/observability"
)

// exitCodeError carries a process exit code through cobra's error
// return path so Execute can map it.
type exitCodeError struct {
	code int
	msg  string
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

// exitError logs the failure and returns an error that terminates the
// process with the given foundry exit code.
func exitError(code int, msg string, err error) error {
	observability.CLILogger.Error(msg, zap.Error(err))
	return &exitCodeError{code: code, msg: msg, err: err}
}
