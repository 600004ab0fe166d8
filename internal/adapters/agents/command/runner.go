// Package command adapts external model and renderer programs to the agent ports.
// Every program reads one JSON request on stdin and writes its answer on stdout.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

var ErrUnavailable = errors.New("agent command unavailable")

type runFunc func(ctx context.Context, input []byte, name string, args ...string) (stdout []byte, stderr string, err error)

// Command is an executable plus its fixed arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("agent command is empty")
	}

	return Command{Name: fields[0], Args: fields[1:]}, nil
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

func runAgentCommand(ctx context.Context, input []byte, name string, args ...string) ([]byte, string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s", ErrUnavailable, name)
		}
		return nil, "", fmt.Errorf("locate %s command: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if len(input) > 0 {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.Bytes(), strings.TrimSpace(stderr.String()), err
}

// call marshals request, runs command and returns its raw stdout.
func call(ctx context.Context, run runFunc, command Command, request any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", command.Name, err)
	}

	stdout, stderr, err := run(ctx, input, command.Name, command.Args...)
	if err != nil {
		return nil, formatError(command, err, stderr)
	}

	return stdout, nil
}

func formatError(command Command, err error, stderr string) error {
	stderr = strings.ToValidUTF8(stderr, string(utf8.RuneError))
	if stderr == "" {
		return fmt.Errorf("run %s: %w", command.Name, err)
	}

	return fmt.Errorf("run %s: %w: %s", command.Name, err, stderr)
}

func mustJSON(value any) []byte {
	data, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("encode %T: %v", value, err))
	}

	return data
}
