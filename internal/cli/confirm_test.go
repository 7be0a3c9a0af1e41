package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmExactToken(t *testing.T) {
	var out bytes.Buffer
	c := &stdinConfirmer{in: strings.NewReader("yes\n"), out: &out}

	ok, err := c.Confirm("Apply?", "yes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), `Type "yes" to continue`)
}

func TestConfirmRejectsAnythingElse(t *testing.T) {
	for _, input := range []string{"y\n", "\n", "no\n", "YES\n", "yes please\n"} {
		c := &stdinConfirmer{in: strings.NewReader(input), out: &bytes.Buffer{}}

		ok, err := c.Confirm("Apply?", "yes")
		require.NoError(t, err, "input %q", input)
		assert.False(t, ok, "input %q must cancel", input)
	}
}

func TestConfirmEOFCancels(t *testing.T) {
	c := &stdinConfirmer{in: strings.NewReader(""), out: &bytes.Buffer{}}

	ok, err := c.Confirm("Apply?", "yes")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmTrimsWhitespace(t *testing.T) {
	c := &stdinConfirmer{in: strings.NewReader("  yes  \n"), out: &bytes.Buffer{}}

	ok, err := c.Confirm("Apply?", "yes")
	require.NoError(t, err)
	assert.True(t, ok)
}
