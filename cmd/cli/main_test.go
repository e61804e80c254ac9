package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/config"
	"bertrand-replay/internal/data"
)

func TestUsage_ExampleFilesExist(t *testing.T) {
	var buf bytes.Buffer
	usage(&buf)
	assert.Contains(t, buf.String(), exampleMarkets)
	assert.Contains(t, buf.String(), exampleMarketID)

	root := filepath.Join("..", "..")
	cfg, err := config.Load(filepath.Join(root, exampleConfig))
	require.NoError(t, err)
	cdc, err := codec.New(cfg.Market.ToModelParams())
	require.NoError(t, err)

	f, err := data.LoadMarkets([]string{filepath.Join(root, exampleMarkets)})
	require.NoError(t, err)
	markets, err := data.BuildMarkets(f.Markets, cdc)
	require.NoError(t, err)

	var ids []string
	for _, m := range markets {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, exampleMarketID)
}
