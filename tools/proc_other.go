//go:build !unix

package tools

import "os/exec"

// setProcessGroup leaves the default cancellation, which kills the direct
// child only.
func setProcessGroup(cmd *exec.Cmd) {}
