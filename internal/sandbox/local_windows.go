//go:build windows

package sandbox

import "os/exec"

func setProcGroup(cmd *exec.Cmd) {
	// No process groups on Windows; Capabilities.GroupKill reports the
	// gap so callers know threads spawned by the job may briefly outlive
	// the kill below.
}

func killGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		cmd.Process.Kill()
	}
}
