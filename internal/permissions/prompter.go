package permissions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user to grant a capability. The decision is
// asynchronous from the caller's point of view: Prompt blocks until the
// user answers or the context is cancelled.
type Prompter interface {
	Prompt(ctx context.Context, capability Capability) (bool, error)
}

// ConsolePrompter asks on an interactive terminal.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewConsolePrompter creates a prompter reading answers from in and writing
// the question to out.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{In: in, Out: out}
}

// Prompt prints the question and reads a y/N answer. Anything except an
// explicit yes is a denial.
func (p *ConsolePrompter) Prompt(ctx context.Context, capability Capability) (bool, error) {
	fmt.Fprintf(p.Out, "Allow access to %s? [y/N]: ", capability)

	type answer struct {
		granted bool
		err     error
	}
	ch := make(chan answer, 1)

	go func() {
		reader := bufio.NewReader(p.In)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			ch <- answer{err: err}
			return
		}
		line = strings.ToLower(strings.TrimSpace(line))
		ch <- answer{granted: line == "y" || line == "yes"}
	}()

	select {
	case a := <-ch:
		return a.granted, a.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// StaticPrompter answers every prompt with a fixed decision. Used for
// headless deployments where the grant policy comes from configuration.
type StaticPrompter struct {
	Granted bool
}

// Prompt returns the configured decision.
func (p *StaticPrompter) Prompt(ctx context.Context, capability Capability) (bool, error) {
	return p.Granted, nil
}
