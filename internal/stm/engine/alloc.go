package engine

import (
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/memory"
	"github.com/kolkov/simpletm/internal/stm/txlog"
)

// AppendToLog registers a compensating action pair for the current attempt.
// apply runs if the transaction commits, undo if the attempt rolls back;
// either may be nil. Overflowing the log is a protocol violation.
func (t *Tx) AppendToLog(apply, undo txlog.Action, payload uintptr) {
	t.check()
	if err := t.ctx.Log.Append(apply, undo, payload); err != nil {
		t.e.violation(ViolationLogFull, t.ctx, "undo/redo log overflow",
			zap.Int("capacity", t.ctx.Log.Cap()), zap.Error(err))
		panic(err)
	}
}

// AllocTx allocates size bytes. The block is released again if the attempt
// rolls back.
//
// When the allocator fails, the errno slot is set to the failure code and
// the transaction takes the recovery path with that code; AllocTx does not
// return in that case.
func (t *Tx) AllocTx(size int) uintptr {
	t.check()
	t.ctx.SaveErrno()

	addr, err := t.e.alloc.Allocate(size)
	if err != nil {
		code := memory.Errno(err)
		t.ctx.SetErrno(code)
		t.e.stats.allocFails.Inc()
		allocEvents.WithLabelValues(allocFailure).Inc()
		t.e.lg.Debug("transactional allocation failed",
			zap.Int("size", size), zap.Error(err))
		t.Recover(code)
	}

	if err := t.ctx.Log.Append(nil, t.e.release, addr); err != nil {
		t.e.release(addr)
		t.e.violation(ViolationLogFull, t.ctx, "undo/redo log overflow",
			zap.Int("capacity", t.ctx.Log.Cap()), zap.Error(err))
		panic(err)
	}
	t.e.stats.allocs.Inc()
	allocEvents.WithLabelValues(allocSuccess).Inc()
	return addr
}

// FreeTx releases the block at addr when the transaction commits. Freeing 0
// is a no-op.
func (t *Tx) FreeTx(addr uintptr) {
	t.check()
	if addr == 0 {
		return
	}
	t.AppendToLog(t.e.release, nil, addr)
	t.e.stats.frees.Inc()
	allocEvents.WithLabelValues(allocFree).Inc()
}
