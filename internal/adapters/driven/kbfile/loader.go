// Package kbfile loads the knowledge base from a YAML or JSON file and watches it for changes.
package kbfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.KnowledgeSource = (*Loader)(nil)

// Loader reads the knowledge base from a file on every Load call
type Loader struct {
	path string
}

// NewLoader creates a loader for path. The format is chosen by extension:
// .yaml/.yml for YAML, .json for JSON.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: knowledge base path is required", domain.ErrInvalidInput)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("%w: unsupported knowledge base format %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
	return &Loader{path: path}, nil
}

// Load reads and decodes the file
func (l *Loader) Load(ctx context.Context) (*domain.KnowledgeBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Decode(filepath.Ext(l.path), data)
}

// Location returns the file path
func (l *Loader) Location() string {
	return l.path
}

// Decode parses data in the format named by ext (".yaml", ".yml" or ".json")
func Decode(ext string, data []byte) (*domain.KnowledgeBase, error) {
	var kb domain.KnowledgeBase

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &kb); err != nil {
			return nil, fmt.Errorf("decode knowledge base json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &kb); err != nil {
			return nil, fmt.Errorf("decode knowledge base yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported knowledge base format %q", domain.ErrInvalidInput, ext)
	}

	if strings.TrimSpace(kb.Business.Name) == "" {
		return nil, fmt.Errorf("%w: business.name is required", domain.ErrInvalidInput)
	}
	return &kb, nil
}
