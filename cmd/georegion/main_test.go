package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/andreiashu/georegion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowRegion(t *testing.T) {
	g := &Globals{Locale: "en"}
	us, err := lookup(g, "world.us")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, showRegion(&buf, us, 5))
	out := buf.String()
	assert.Contains(t, out, "world.us")
	assert.Contains(t, out, "United States of America")
	assert.Contains(t, out, "USA")
	assert.Contains(t, out, "world/us.yml")
}

func TestLookupRoot(t *testing.T) {
	g := &Globals{Locale: "en"}
	for _, p := range []string{"", "world"} {
		r, err := lookup(g, p)
		require.NoError(t, err)
		assert.True(t, r.IsRoot())
		assert.Equal(t, "world", label(r))
	}
}

func TestOptions(t *testing.T) {
	g := &Globals{Locale: "de", Strict: true, LocaleDir: []string{"a", "b"}}
	// strict, two locale dirs, locale
	assert.Len(t, g.options(), 4)
}

func TestPrintMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, georegion.RegisterMetrics(reg))

	g := &Globals{Locale: "en"}
	_, err := lookup(g, "ca.on")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printMetrics(&buf, reg))
	out := buf.String()
	assert.Contains(t, out, "georegion_regions_built_total")
	assert.True(t, strings.Contains(out, `layer="base"`), out)
}
