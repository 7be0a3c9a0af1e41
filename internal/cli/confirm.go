package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdinConfirmer reads one line from the operator and compares it against the
// exact expected token. Anything else is a cancellation, not an error.
type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

func newStdinConfirmer() *stdinConfirmer {
	return &stdinConfirmer{in: os.Stdin, out: os.Stderr}
}

// Confirm prints the prompt and blocks for one line of input.
func (c *stdinConfirmer) Confirm(prompt, expected string) (bool, error) {
	fmt.Fprintf(c.out, "%s Type %q to continue: ", prompt, expected)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == expected, nil
}
