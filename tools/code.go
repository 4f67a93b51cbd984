// Python Code Executor Tool.
//
// Information Hiding:
// - Subprocess lifecycle hidden (process group, kill on timeout, reaping)
// - Environment reduced to PYTHONPATH
// - Output and failure mapping to model-facing text

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/richinex/llao1/model"
)

// Code executor defaults.
const (
	DefaultPython      = "python3"
	DefaultCodeTimeout = 5 * time.Second
)

// codeTimedOut is returned to the model when the bound expires.
const codeTimedOut = "Error: Code execution timed out"

// CodeExecutor runs Python snippets in a bounded subprocess.
// It is not a sandbox: the code runs with the caller's privileges.
type CodeExecutor struct {
	python  string
	timeout time.Duration
	dir     string
}

// CodeOption configures a CodeExecutor.
type CodeOption func(*CodeExecutor)

// WithPython sets the interpreter binary.
func WithPython(python string) CodeOption {
	return func(e *CodeExecutor) {
		if python != "" {
			e.python = python
		}
	}
}

// WithCodeTimeout sets the wall-clock bound.
func WithCodeTimeout(d time.Duration) CodeOption {
	return func(e *CodeExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWorkDir sets the working directory, which is also the PYTHONPATH.
// Defaults to the process working directory.
func WithWorkDir(dir string) CodeOption {
	return func(e *CodeExecutor) { e.dir = dir }
}

// NewCodeExecutor creates a code executor.
func NewCodeExecutor(opts ...CodeOption) *CodeExecutor {
	e := &CodeExecutor{
		python:  DefaultPython,
		timeout: DefaultCodeTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metadata returns the tool metadata.
func (e *CodeExecutor) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        string(model.ToolCodeExecutor),
		Description: fmt.Sprintf("Run Python code and return what it prints (limit %s)", e.timeout),
		Parameters: []ToolParameter{
			{
				Name:        "tool_input",
				ParamType:   "string",
				Description: "Python source passed to the interpreter with -c",
				Required:    true,
			},
		},
	}
}

// Execute runs the code and returns stdout on success.
func (e *CodeExecutor) Execute(ctx context.Context, call Call) ToolResult {
	return e.Run(ctx, call.Text())
}

// Run executes code. Non-zero exit yields "Error: " plus stderr; expiry of
// the bound kills the whole process group.
func (e *CodeExecutor) Run(ctx context.Context, code string) ToolResult {
	dir := e.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return FailureResult("Error: "+err.Error(), err)
		}
		dir = wd
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.python, "-c", code)
	cmd.Dir = dir
	cmd.Env = []string{"PYTHONPATH=" + dir}
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureResult(codeTimedOut, fmt.Errorf("code execution exceeded %s", e.timeout))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return FailureResult("Error: "+stderr.String(),
				fmt.Errorf("exit code %d", exitErr.ExitCode()))
		}
		return FailureResult("Error: "+err.Error(), err)
	}

	return SuccessResult(stdout.String())
}
