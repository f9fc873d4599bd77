package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// maxStderr bounds how much of a failing command's stderr ends up in errors.
	maxStderr = 512
	// waitDelay bounds the wait for children that keep the output pipes open.
	waitDelay = 5 * time.Second
)

// Command runs an external program and decodes the JSON it prints on stdout.
type Command struct {
	binary string
	prefix []string
}

// NewCommand runs binary with prefix placed before every call's arguments.
func NewCommand(binary string, prefix ...string) *Command {
	return &Command{binary: binary, prefix: prefix}
}

func (c *Command) RunJSON(ctx context.Context, out any, args ...string) error {
	argv := append(append([]string{}, c.prefix...), args...)
	cmd := exec.CommandContext(ctx, c.binary, argv...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s interrupted", c.name())
		}
		return errors.Wrapf(err, "%s failed: %s", c.name(), tail(stderr.String()))
	}

	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return errors.Wrapf(err, "%s printed invalid json", c.name())
	}
	return nil
}

// name is the script for interpreters and the binary otherwise.
func (c *Command) name() string {
	if len(c.prefix) > 0 && !strings.HasPrefix(c.prefix[0], "-") {
		return filepath.Base(c.prefix[0])
	}
	return filepath.Base(c.binary)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[len(s)-maxStderr:]
	}
	return s
}
