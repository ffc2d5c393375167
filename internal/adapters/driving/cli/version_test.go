package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "driftline version")
}

func TestSetVersion(t *testing.T) {
	old := version
	defer SetVersion(old)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	// Empty input keeps the current value
	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}
