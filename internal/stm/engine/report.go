package engine

import (
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/goroutine"
)

// Violation is a kind of protocol violation.
type Violation int

const (
	// ViolationNested is a transaction started inside another one.
	ViolationNested Violation = iota
	// ViolationLogFull is an append to a full undo/redo log.
	ViolationLogFull
	// ViolationFault is an access outside the address space.
	ViolationFault
	// ViolationTxDone is a Tx used after its transaction ended.
	ViolationTxDone
)

func (v Violation) String() string {
	switch v {
	case ViolationNested:
		return "nested-transaction"
	case ViolationLogFull:
		return "log-overflow"
	case ViolationFault:
		return "address-fault"
	case ViolationTxDone:
		return "stale-transaction"
	default:
		return "unknown"
	}
}

// violation reports a protocol violation. With a production logger this
// terminates the process.
func (e *Engine) violation(v Violation, ctx *goroutine.TxContext, msg string, fields ...zap.Field) {
	fields = append(fields, zap.Stringer("violation", v))
	if ctx != nil {
		fields = append(fields,
			zap.Uint64("owner", uint64(ctx.ID)),
			zap.Int64("goroutine", ctx.GID),
			zap.Int("attempt", ctx.Attempt()),
			zap.Int("log-entries", ctx.Log.Len()),
			zap.Int("owned-words", len(ctx.Owned())),
		)
	}
	e.lg.Fatal(msg, fields...)
}
