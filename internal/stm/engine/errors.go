package engine

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

var (
	// ErrNested is returned after the Fatal report when Atomically is called
	// from inside a transaction and the logger's fatal hook returns.
	ErrNested = errors.New("engine: nested transaction")

	// ErrTxDone is raised when a Tx is used after its transaction ended.
	ErrTxDone = errors.New("engine: transaction already finished")
)

// RecoveryError is returned by Atomically when a transaction ended on the
// recovery path.
type RecoveryError struct {
	// Errno is the code passed to Tx.Recover, or derived from Err.
	Errno syscall.Errno

	// Err is the error returned by the transaction function, if that is
	// what triggered recovery.
	Err error
}

func (e *RecoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction recovered (errno %d): %v", int(e.Errno), e.Err)
	}
	return fmt.Sprintf("transaction recovered: %v", e.Errno)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// IsRecovery reports whether err carries a RecoveryError and returns its
// code.
func IsRecovery(err error) (syscall.Errno, bool) {
	var re *RecoveryError
	if errors.As(err, &re) {
		return re.Errno, true
	}
	return 0, false
}

// Control-flow signals raised inside the transaction function and caught by
// the retry loop in Atomically.
type (
	restartSignal struct{}

	recoverSignal struct {
		code syscall.Errno
	}
)
