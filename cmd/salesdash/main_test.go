package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitshop/salesdash/internal/app"
	_ "github.com/bitshop/salesdash/internal/testing/guard"
)

func TestHandlerOptionsFromConfig(t *testing.T) {
	t.Setenv("APP_REQUEST_TIMEOUT", "45s")
	t.Setenv("SALES_PAGE_SIZE", "25")
	t.Setenv("SALES_TITLE", "Vendas Sul")
	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	opts := handlerOptions(cfg)
	assert.Equal(t, 45*time.Second, opts.RequestTimeout)
	assert.Equal(t, 25, opts.PageSize)
	assert.Equal(t, "Vendas Sul", opts.Title)
	assert.Equal(t, "vendas_filtradas.xlsx", opts.ExportFilename)
}
