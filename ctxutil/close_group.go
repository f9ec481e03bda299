// Copyright (c) 2025 BVK Chaitanya

package ctxutil

import (
	"context"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
)

// CloseGroup runs background goroutines that share a single cancellation
// context. Close cancels the context with os.ErrClosed and waits for all
// goroutines to return. The zero value is ready to use.
type CloseGroup struct {
	closeCtx  context.Context
	causeFunc context.CancelCauseFunc

	wg sync.WaitGroup

	once sync.Once
}

func (cg *CloseGroup) init() {
	cg.closeCtx, cg.causeFunc = context.WithCancelCause(context.Background())
}

func (cg *CloseGroup) Close() {
	cg.once.Do(cg.init)
	cg.causeFunc(os.ErrClosed)
	cg.wg.Wait()
}

func (cg *CloseGroup) Context() context.Context {
	cg.once.Do(cg.init)
	return cg.closeCtx
}

// Go runs f in a new goroutine. A panic in f is logged and swallowed.
func (cg *CloseGroup) Go(name string, f func(ctx context.Context)) {
	cg.once.Do(cg.init)

	cg.wg.Add(1)
	go func() {
		defer cg.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "goroutine", name, "panic", r)
				slog.Error(string(debug.Stack()))
			}
		}()
		f(cg.closeCtx)
	}()
}
