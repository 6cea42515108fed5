package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "Zürich ...", truncate("Zürich news today", 10))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	old := output
	defer func() { output = old }()

	output = "xml"
	assert.Error(t, render(struct{}{}, func() {}))

	called := false
	output = "table"
	assert.NoError(t, render(struct{}{}, func() { called = true }))
	assert.True(t, called)
}

func TestCommandsRegistered(t *testing.T) {
	for _, c := range []struct {
		name string
		use  string
	}{
		{"cycle", cycleCmd().Use},
		{"scrape", scrapeCmd().Use},
		{"articles", articlesCmd().Use},
		{"sweep", sweepCmd().Use},
		{"serve", serveCmd().Use},
	} {
		assert.Contains(t, c.use, c.name)
	}
	assert.NotNil(t, articlesCmd().Flags().Lookup("keyword"))
	assert.NotNil(t, serveCmd().Flags().Lookup("interval"))
}
