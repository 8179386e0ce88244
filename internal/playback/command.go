package playback

import (
	"bytes"
	"context"
	"fmt"
)

// commandArgs holds extra flags per utility; the file path is appended.
var commandArgs = map[string][]string{
	"afplay": nil,
	"aplay":  {"-q"},
	"paplay": nil,
}

// CommandPlayer plays files through a command-line utility.
type CommandPlayer struct {
	name string
	path string
	args []string
	// run is swapped in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandPlayer resolves the utility name with lookPath.
func NewCommandPlayer(name string, lookPath LookPathFunc) (*CommandPlayer, error) {
	path, err := lookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoPlayerAvailable, name, err)
	}
	return &CommandPlayer{
		name: name,
		path: path,
		args: commandArgs[name],
		run:  runCombined,
	}, nil
}

// Name returns the utility name.
func (c *CommandPlayer) Name() string {
	return c.name
}

// Play runs the utility and waits for it to exit.
func (c *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string{}, c.args...), path)
	out, err := c.run(ctx, c.path, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrPlaybackFailed, c.name, err, bytes.TrimSpace(out))
	}
	return nil
}
