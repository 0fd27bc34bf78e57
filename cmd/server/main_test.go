package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	req := require.New(t)
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	req.NoError(err)
	req.Equal("serve", serve.Name())

	chat, _, err := root.Find([]string{"chat"})
	req.NoError(err)
	req.NotNil(chat.Flags().Lookup("room"))

	// Serve flags are accepted without naming the subcommand.
	req.NotNil(root.Flags().Lookup("addr"))
	req.NotNil(root.Flags().Lookup("no-metrics"))
	req.NotNil(root.PersistentFlags().Lookup("config"))
}
