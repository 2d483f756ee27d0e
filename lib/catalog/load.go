// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by Load for file extensions it does
// not recognize.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Document is the serializable form of a catalog.
type Document struct {
	Venues []Venue       `json:"venues" yaml:"venues"`
	Events []EventRecord `json:"events" yaml:"events"`
}

// sourceDocument is what authors write. Events may declare their
// gallery as a folder plus image count instead of listing every URI.
type sourceDocument struct {
	Venues []Venue        `json:"venues" yaml:"venues"`
	Events []sourceRecord `json:"events" yaml:"events"`
}

type sourceRecord struct {
	EventRecord `yaml:",inline"`

	GalleryFolder string `json:"gallery_folder,omitempty" yaml:"gallery_folder,omitempty"`
	GalleryCount  int    `json:"gallery_count,omitempty" yaml:"gallery_count,omitempty"`
}

// GalleryURIs expands a gallery folder into count image URIs
// ("/images/events/<folder>/gallery-<n>.webp", n starting at 1).
func GalleryURIs(folder string, count int) []string {
	if folder == "" || count <= 0 {
		return nil
	}
	uris := make([]string, count)
	for index := range uris {
		uris[index] = fmt.Sprintf("/images/events/%s/gallery-%d.webp", folder, index+1)
	}
	return uris
}

func (source sourceDocument) build() (*Catalog, error) {
	events := make([]EventRecord, 0, len(source.Events))
	for _, record := range source.Events {
		event := record.EventRecord
		if record.GalleryFolder != "" {
			if len(event.Gallery) > 0 {
				return nil, fmt.Errorf("%w: event %q sets both gallery and gallery_folder",
					ErrInvalidRecord, event.ID)
			}
			event.Gallery = GalleryURIs(record.GalleryFolder, record.GalleryCount)
		}
		events = append(events, event)
	}
	return New(events, source.Venues)
}

// ParseJSONC parses a catalog written as JSON with comments and
// trailing commas. Unknown fields are rejected so that typos in
// hand-edited files surface immediately.
func ParseJSONC(data []byte) (*Catalog, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var source sourceDocument
	if err := decoder.Decode(&source); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return source.build()
}

// ParseYAML parses a catalog written as YAML. Unknown fields are
// rejected.
func ParseYAML(data []byte) (*Catalog, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var source sourceDocument
	if err := decoder.Decode(&source); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return source.build()
}

// Load reads a catalog file, choosing the parser by extension:
// .jsonc and .json, .yaml and .yml, or a compiled snapshot
// ([SnapshotExtension]).
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var catalog *Catalog
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".jsonc", ".json":
		catalog, err = ParseJSONC(data)
	case ".yaml", ".yml":
		catalog, err = ParseYAML(data)
	case SnapshotExtension:
		catalog, err = DecodeSnapshot(data)
	default:
		return nil, fmt.Errorf("%w: %q (want .jsonc, .json, .yaml, .yml or %s)",
			ErrUnsupportedFormat, extension, SnapshotExtension)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}
