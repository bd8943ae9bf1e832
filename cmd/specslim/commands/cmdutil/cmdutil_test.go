package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStdin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "dash is stdin", path: "-", expected: true},
		{name: "empty is not stdin", path: "", expected: false},
		{name: "file path is not stdin", path: "spec.yaml", expected: false},
		{name: "double dash is not stdin", path: "--", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsStdin(tt.path))
			assert.Equal(t, tt.expected, IsStdout(tt.path))
		})
	}
}

func TestArgAt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a.yaml", InputFileFromArgs([]string{"a.yaml", "b.yaml"}))
	assert.Equal(t, "-", InputFileFromArgs(nil))
	assert.Equal(t, "b.yaml", ArgAt([]string{"a.yaml", "b.yaml"}, 1, ""))
	assert.Empty(t, ArgAt([]string{"a.yaml"}, 1, ""))
}

func TestStdinOrFileArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		piped   bool
		wantErr bool
	}{
		{name: "one file", args: []string{"a.yaml"}},
		{name: "no args and piped", piped: true},
		{name: "no args and terminal", wantErr: true},
		{name: "too many", args: []string{"a.yaml", "b.yaml", "c.yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			validate := stdinOrFileArgs(1, 2, func() bool { return tt.piped })
			err := validate(&cobra.Command{}, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
