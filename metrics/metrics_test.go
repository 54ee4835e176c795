package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dcore/render"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.Presented("screen1", 3*time.Millisecond)
	c.Presented("screen1", 5*time.Millisecond)
	c.Reused("screen1")
	c.Skipped("screen2", render.SkipNoInput)
	c.StateChanged("screen1", render.Degraded)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.presented.WithLabelValues("screen1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reused.WithLabelValues("screen1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.skipped.WithLabelValues("screen2", render.SkipNoInput)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.state.WithLabelValues("screen1")))

	// registering twice fails
	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	c.Presented("s", time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `dcore_frames_presented_total{screen="s"} 1`))
}
