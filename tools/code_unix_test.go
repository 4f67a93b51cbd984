//go:build unix

package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// TestCodeExecutorTimeoutReapsProcess checks that the interpreter is gone
// once the timeout result is returned.
func TestCodeExecutorTimeoutReapsProcess(t *testing.T) {
	requirePython(t)
	pidFile := filepath.Join(t.TempDir(), "pid")
	e := NewCodeExecutor(WithCodeTimeout(500 * time.Millisecond))

	code := fmt.Sprintf("import os, time\nopen(%q, 'w').write(str(os.getpid()))\ntime.sleep(30)", pidFile)
	result := e.Run(context.Background(), code)
	if result.Output != codeTimedOut {
		t.Fatalf("expected timeout, got %q", result.Output)
	}

	raw, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("interpreter never started: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		t.Fatalf("bad pid file: %v", err)
	}

	if err := syscall.Kill(pid, 0); err != syscall.ESRCH {
		t.Errorf("expected process %d to be gone, kill(0) returned %v", pid, err)
	}
}
