package cmd_test

import (
	"bytes"
	"testing"

	"github.com/GoCodeAlone/modactivator/cmd/modactivator/cmd"
	"github.com/stretchr/testify/assert"
)

func TestRootCommand(t *testing.T) {
	rootCmd := cmd.NewRootCommand()
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "modactivator", rootCmd.Use)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--help"})
	err := rootCmd.Execute()
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "module lifecycle plans")
	assert.Contains(t, buf.String(), "simulate")
}

func TestVersionInfo(t *testing.T) {
	assert.Contains(t, cmd.PrintVersion(), "modactivator v")
}
