package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bismuthai/codegraph/pkg/ingest"
)

func TestDetectProjectGo(t *testing.T) {
	info := ingest.DetectProject(map[string][]byte{
		"go.mod":  []byte("module github.com/example/widget\n\ngo 1.23\n"),
		"main.go": []byte("package main\n"),
	})
	assert.Equal(t, "go", info.Type)
	assert.Equal(t, "github.com/example/widget", info.Name)
}

func TestDetectProjectUnknown(t *testing.T) {
	info := ingest.DetectProject(map[string][]byte{"README.md": []byte("hello")})
	assert.Equal(t, "unknown", info.Type)
}
