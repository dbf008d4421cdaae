// Package hooks generates git hook scripts that run commands through the
// CLI in hook mode.
package hooks

import (
	"strings"
)

const banner = `printf "\x1b[0;34m%s\x1b[39;49;00m\n" "Run hook in Uniform CLI"`

// GenerateHookScript returns a bash script that runs every script through
// binary in hook mode without a TTY, stopping at the first failure.
func GenerateHookScript(scripts []string, binary string) string {
	lines := []string{
		"#!/bin/bash",
		"set -e",
		banner,
	}
	for _, s := range scripts {
		lines = append(lines, binary+" --mode=hook --no-tty "+s)
	}
	return strings.Join(lines, "\n")
}
