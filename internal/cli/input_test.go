package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  hello  \nnext\n")), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "Name\n> ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Name", &out)
	require.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("first line\nsecond line\n\nafter\n"))

	got, err := GetMultiline(r, "Text", &out)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", got)

	rest, _ := r.ReadString('\n')
	assert.Equal(t, "after\n", rest, "reading stops at the empty line")
}

func TestGetMultiline_EOF(t *testing.T) {
	got, err := GetMultiline(bufio.NewReader(strings.NewReader("only")), "Text", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "only", got)
}

func TestGetPIN(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(fd int) ([]byte, error) { return []byte("12345"), nil }
	var out bytes.Buffer
	p, err := GetPIN("Enter PIN", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), p)
	assert.Equal(t, "Enter PIN: \n", out.String())

	readPassword = func(fd int) ([]byte, error) { return nil, errors.New("no tty") }
	_, err = GetPIN("Enter PIN", &bytes.Buffer{})
	require.Error(t, err)
}
