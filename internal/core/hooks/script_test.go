package hooks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHookScript(t *testing.T) {
	script := GenerateHookScript([]string{"exec web composer test", "exec api make lint"}, "/usr/local/bin/uniform")

	lines := strings.Split(script, "\n")
	assert.Equal(t, []string{
		"#!/bin/bash",
		"set -e",
		`printf "\x1b[0;34m%s\x1b[39;49;00m\n" "Run hook in Uniform CLI"`,
		"/usr/local/bin/uniform --mode=hook --no-tty exec web composer test",
		"/usr/local/bin/uniform --mode=hook --no-tty exec api make lint",
	}, lines)
}

func TestGenerateHookScript_NoScripts(t *testing.T) {
	script := GenerateHookScript(nil, "uniform")
	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\nset -e\n"))
	assert.Equal(t, 3, strings.Count(script, "\n")+1)
}
