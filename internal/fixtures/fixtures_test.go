// File: internal/fixtures/fixtures_test.go
package fixtures_test

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexbolt9/limpet-cli/internal/fixtures"
)

func TestEmbeddedPagesArePresent(t *testing.T) {
	for _, page := range []string{fixtures.MockWebsite, fixtures.MockLogin, fixtures.LoginSuccess} {
		data, err := fs.ReadFile(fixtures.FS(), page)
		require.NoError(t, err, page)
		assert.NotEmpty(t, data, page)
	}
}

func TestServerServesEmbeddedPages(t *testing.T) {
	srv, err := fixtures.NewServer("127.0.0.1:0")
	require.NoError(t, err)
	srv.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
	}()

	resp, err := http.Get(srv.URL(fixtures.MockWebsite))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `data-testid="hamburger-menu"`)
	assert.Contains(t, string(body), `id="export-btn"`)
}

func TestServerURLJoinsBase(t *testing.T) {
	srv, err := fixtures.NewServer("127.0.0.1:0")
	require.NoError(t, err)
	srv.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	assert.Equal(t, srv.BaseURL()+"/"+fixtures.MockLogin, srv.URL(fixtures.MockLogin))
}
