// Package debug provides a mutex-guarded, opt-in debug sink: silent by
// default, switched on by a build-time flag or the DEBUG environment
// variable, writing to whatever io.Writer the embedder configures.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug can be overridden at build time:
// go build -ldflags "-X github.com/fff-nvim/fff-core/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	debugOutput io.Writer
	debugMutex  sync.Mutex
)

// SetDebugOutput sets the writer for debug output. Pass nil to disable.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// IsDebugEnabled reports whether debug output is currently active.
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Log writes a component-tagged debug line, a no-op unless debug output
// is both enabled and configured.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format+"\n", append([]interface{}{component}, args...)...)
}

// LogWatcher is debug logging for the file watcher and event router.
func LogWatcher(format string, args ...interface{}) {
	Log("WATCHER", format, args...)
}

// LogIndex is debug logging for file index mutations.
func LogIndex(format string, args ...interface{}) {
	Log("INDEX", format, args...)
}

// LogSearch is debug logging for the scoring engine.
func LogSearch(format string, args ...interface{}) {
	Log("SEARCH", format, args...)
}
