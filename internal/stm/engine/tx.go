package engine

import (
	"syscall"

	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/goroutine"
	"github.com/kolkov/simpletm/internal/stm/memory"
)

// Tx is the handle a transaction function uses to access memory. It is only
// valid inside the function it was passed to.
type Tx struct {
	e    *Engine
	ctx  *goroutine.TxContext
	done bool
}

type outcome int

const (
	committed outcome = iota
	restarted
	recovered
)

// Atomically runs fn as a transaction and returns once an attempt has
// committed or recovered. It returns nil on commit and a *RecoveryError on
// recovery.
func (e *Engine) Atomically(fn func(tx *Tx) error) error {
	ctx := e.contexts.Current()
	if !ctx.Begin() {
		e.violation(ViolationNested, ctx, "transaction started inside a transaction")
		return ErrNested
	}
	defer ctx.End()

	tx := &Tx{e: e, ctx: ctx}
	defer func() { tx.done = true }()

	for {
		out, err := e.attempt(tx, fn)
		switch out {
		case committed:
			e.finished(ctx)
			return nil
		case recovered:
			e.finished(ctx)
			return err
		}

		n := ctx.NextAttempt()
		if t := e.cfg.RestartWarnThreshold; t > 0 && n == t {
			e.lg.Warn("transaction keeps restarting",
				zap.Uint64("owner", uint64(ctx.ID)),
				zap.Int64("goroutine", ctx.GID),
				zap.Int("attempts", n),
			)
		}
	}
}

// attempt runs fn once and settles the attempt: it commits, or rolls back
// and reports why.
func (e *Engine) attempt(tx *Tx, fn func(tx *Tx) error) (out outcome, err error) {
	ctx := tx.ctx
	settled := false

	defer func() {
		if settled {
			return
		}
		r := recover()
		switch sig := r.(type) {
		case restartSignal:
			e.rollback(ctx)
			e.stats.restarts.Inc()
			txEvents.WithLabelValues(eventRestart).Inc()
			out = restarted
		case recoverSignal:
			e.rollback(ctx)
			e.recovered(ctx, sig.code)
			out, err = recovered, &RecoveryError{Errno: sig.code}
		default:
			// A foreign panic or runtime.Goexit. Either way the attempt
			// must not keep its words.
			e.rollback(ctx)
			e.stats.aborts.Inc()
			txEvents.WithLabelValues(eventAbort).Inc()
			if r != nil {
				panic(r)
			}
		}
	}()

	ferr := fn(tx)
	settled = true

	if ferr != nil {
		code := memory.Errno(ferr)
		e.rollback(ctx)
		e.recovered(ctx, code)
		return recovered, &RecoveryError{Errno: code, Err: ferr}
	}
	e.commit(ctx)
	return committed, nil
}

// commit publishes the attempt: buffered words first, then logged actions.
func (e *Engine) commit(ctx *goroutine.TxContext) {
	defer ctx.Log.Reset()
	for _, w := range ctx.Owned() {
		e.dir.Release(w, ctx.ID, true)
	}
	ctx.Forget()
	ctx.Log.Apply()
	ctx.DropSavedErrno()

	e.stats.commits.Inc()
	txEvents.WithLabelValues(eventCommit).Inc()
}

// rollback reverts the attempt: words, logged actions, then errno.
func (e *Engine) rollback(ctx *goroutine.TxContext) {
	defer ctx.Log.Reset()
	for _, w := range ctx.Owned() {
		e.dir.Release(w, ctx.ID, false)
	}
	ctx.Forget()
	ctx.Log.Undo()
	ctx.RestoreErrno()
}

func (e *Engine) recovered(ctx *goroutine.TxContext, code syscall.Errno) {
	ctx.SetRecoveryErrno(code)
	e.stats.recoveries.Inc()
	txEvents.WithLabelValues(eventRecover).Inc()
	e.lg.Debug("transaction recovered",
		zap.Uint64("owner", uint64(ctx.ID)),
		zap.Int("attempt", ctx.Attempt()),
		zap.String("errno", code.Error()),
	)
}

func (e *Engine) finished(ctx *goroutine.TxContext) {
	txAttempts.Observe(float64(ctx.Attempt() + 1))
}

// Restart abandons the current attempt and runs the transaction again.
// It does not return.
func (t *Tx) Restart() {
	t.check()
	panic(restartSignal{})
}

// Recover abandons the transaction without retrying. Atomically returns a
// *RecoveryError carrying code. It does not return.
func (t *Tx) Recover(code syscall.Errno) {
	t.check()
	panic(recoverSignal{code: code})
}

// Resumed reports whether the current attempt follows a restart.
func (t *Tx) Resumed() bool {
	return t.ctx.Attempt() > 0
}

// Attempt returns the zero-based attempt number.
func (t *Tx) Attempt() int {
	return t.ctx.Attempt()
}

// SaveErrno snapshots the ambient errno so a rollback can put it back. Only
// the first call of an attempt takes effect.
func (t *Tx) SaveErrno() {
	t.ctx.SaveErrno()
}

// Errno returns the ambient errno of the calling goroutine.
func (t *Tx) Errno() syscall.Errno {
	return t.ctx.Errno()
}

// SetErrno sets the ambient errno of the calling goroutine.
func (t *Tx) SetErrno(code syscall.Errno) {
	t.ctx.SetErrno(code)
}

func (t *Tx) check() {
	if t.done {
		t.e.violation(ViolationTxDone, nil, "transaction handle used after the transaction ended")
		panic(ErrTxDone)
	}
}

// Errno returns the calling goroutine's ambient errno.
func (e *Engine) Errno() syscall.Errno {
	return e.contexts.Current().Errno()
}

// SetErrno sets the calling goroutine's ambient errno.
func (e *Engine) SetErrno(code syscall.Errno) {
	e.contexts.Current().SetErrno(code)
}

// RecoveryErrno returns the code of the calling goroutine's most recent
// recovered transaction.
func (e *Engine) RecoveryErrno() syscall.Errno {
	return e.contexts.Current().RecoveryErrno()
}
