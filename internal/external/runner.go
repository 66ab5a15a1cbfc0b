// Package external drives the command-line tools and browser used for
// document format conversion and archive extraction.
package external

import (
	"context"
	"os"
	"os/exec"
)

// Runner executes an external command.
type Runner interface {
	// Run executes name with args. env entries are added to the current
	// process environment for the child only. It returns combined output.
	Run(ctx context.Context, name string, args []string, env []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}
