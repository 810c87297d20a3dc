package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"igproxy/pkg/models"
)

func newTestPrinter(quiet bool) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, quiet), &out, &errOut
}

func TestPrinterMessages(t *testing.T) {
	p, out, errOut := newTestPrinter(false)

	p.Success("Cache opened")
	p.Info("Listening", ":8787")
	p.Warning("Rate limiting disabled")
	p.Error("Failed to start", errors.New("address in use"))

	assert.Contains(t, out.String(), "Cache opened")
	assert.Contains(t, out.String(), "Listening")
	assert.Contains(t, out.String(), ":8787")
	assert.Contains(t, out.String(), "Rate limiting disabled")
	assert.Contains(t, errOut.String(), "Failed to start: address in use")
	assert.NotContains(t, out.String(), "Failed to start")
}

func TestQuietPrinterOnlyReportsErrors(t *testing.T) {
	p, out, errOut := newTestPrinter(true)

	p.Logo()
	p.Success("done")
	p.Info("a", "b")
	p.Panel("Settings", []Field{{Label: "addr", Value: ":8787"}})
	p.Error("broken")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "broken")
}

func TestRenderMedia(t *testing.T) {
	p, _, _ := newTestPrinter(false)

	text := p.RenderMedia([]models.MediaItem{
		models.Profile(models.ProfileInfo{Username: "someone", FullName: "Some One", PostsCount: 3, Followers: 10}),
		models.Image("https://cdn.example/a.jpg"),
		models.Video("https://cdn.example/b.mp4"),
	})

	assert.Contains(t, text, "@someone")
	assert.Contains(t, text, "Some One")
	assert.Contains(t, text, "Followers")
	assert.Contains(t, text, "https://cdn.example/a.jpg")
	assert.Contains(t, text, "https://cdn.example/b.mp4")
	assert.Contains(t, text, "2 media item(s)")
}

func TestRenderMediaEmpty(t *testing.T) {
	p, _, _ := newTestPrinter(false)
	assert.Contains(t, p.RenderMedia(nil), "No media found")
}
