package memory

import (
	"syscall"

	"github.com/pkg/errors"
)

var (
	// ErrNoSpace indicates that no free block large enough was found.
	ErrNoSpace = errors.New("memory: no free block large enough")

	// ErrBadSize indicates a negative allocation size.
	ErrBadSize = errors.New("memory: invalid allocation size")

	// ErrBadPointer indicates a release of an address that is not a live block.
	ErrBadPointer = errors.New("memory: release of unknown pointer")

	// ErrFault indicates an access outside the arena.
	ErrFault = errors.New("memory: access outside arena")
)

// Errno maps an allocator error to the errno code a recovered transaction
// reports. Errors that already carry a syscall.Errno keep it.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	switch errors.Cause(err) {
	case ErrBadSize:
		return syscall.EINVAL
	case ErrBadPointer, ErrFault:
		return syscall.EFAULT
	default:
		return syscall.ENOMEM
	}
}
