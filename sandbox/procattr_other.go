//go:build !unix

package sandbox

import "os/exec"

// configureProcessGroup keeps the default exec.CommandContext behavior
// (kill the direct child) on platforms without process groups.
func configureProcessGroup(_ *exec.Cmd) {}

func killProcessGroup(_ *exec.Cmd) error {
	return nil
}
