package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// CrashHandler receives a recovered panic value and its stack
type CrashHandler func(r any, stack []byte)

var crashHandler atomic.Pointer[CrashHandler]

// SetCrashHandler replaces the process crash handler, nil restores the default
func SetCrashHandler(h CrashHandler) {
	if h == nil {
		crashHandler.Store(nil)
		return
	}
	crashHandler.Store(&h)
}

// HandleCrash reports a recovered panic and terminates the process
func HandleCrash(r any) {
	if r == nil {
		return
	}
	stack := debug.Stack()
	if h := crashHandler.Load(); h != nil {
		(*h)(r, stack)
		return
	}

	fmt.Fprintf(os.Stderr, "\nCRASH DETECTED: %v\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", stack)
	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// PanicError wraps a recovered panic so it can travel as an error
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover converts a panic into *PanicError stored in errp
// Must be called directly by defer
func Recover(errp *error) {
	if r := recover(); r != nil {
		*errp = &PanicError{Value: r, Stack: debug.Stack()}
	}
}
