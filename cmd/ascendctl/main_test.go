package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeFor("cert.PDF", []byte("anything")))
	assert.Equal(t, "image/png", mimeFor("cert", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "remind", "extract"} {
		assert.True(t, names[want], want)
	}
}

func TestExtractRejectsUnknownType(t *testing.T) {
	docType = "fire"
	defer func() { docType = "public_liability" }()
	err := extractCmd.RunE(extractCmd, []string{"missing.pdf"})
	assert.EqualError(t, err, `unknown document type "fire"`)
}
