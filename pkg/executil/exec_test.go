package executil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Shell(t *testing.T) {
	e := &RealExecutor{}

	out, err := Shell(context.Background(), e, strings.NewReader("hello from stdin"), "tr a-z A-Z")
	require.NoError(t, err)
	assert.Equal(t, "HELLO FROM STDIN", string(out))
}

func TestRealExecutor_StderrInError(t *testing.T) {
	e := &RealExecutor{}

	_, err := Shell(context.Background(), e, nil, "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRecordingExecutor(t *testing.T) {
	e := &RecordingExecutor{
		Outputs: map[string][]byte{"sh": []byte("reply")},
		Errors:  map[string]error{"false": errors.New("failed")},
	}

	out, err := Shell(context.Background(), e, strings.NewReader("input"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "reply", string(out))

	_, err = e.Run(context.Background(), nil, "false")
	require.Error(t, err)

	recorded := e.Recorded()
	require.Len(t, recorded, 2)
	assert.Equal(t, RecordedCommand{Cmd: "sh", Args: []string{"-c", "cat"}, Stdin: "input"}, recorded[0])
	assert.Equal(t, "false", recorded[1].Cmd)
	assert.Empty(t, recorded[1].Stdin)

	e.Reset()
	assert.Empty(t, e.Recorded())
}
