// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termmap

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/tidwall/jsonc"

	"github.com/takeone-collective/archive/lib/mapengine"
)

//go:embed builtin_style.jsonc
var builtinStyleSource []byte

// maxStyleSize bounds style documents read from disk or the network.
const maxStyleSize = 1 << 20

// MarkerStyle is the glyph and color for one marker state.
type MarkerStyle struct {
	Glyph string `json:"glyph"`
	Color string `json:"color"`
}

// StyleDocument is a terminal map style, written as JSONC.
type StyleDocument struct {
	Name           string `json:"name"`
	Graticule      string `json:"graticule"`
	GraticuleGlyph string `json:"graticule_glyph"`
	Label          string `json:"label"`
	Markers        struct {
		Normal   MarkerStyle `json:"normal"`
		Hovered  MarkerStyle `json:"hovered"`
		Selected MarkerStyle `json:"selected"`
	} `json:"markers"`
}

// Marker returns the style for state.
func (document StyleDocument) Marker(state mapengine.MarkerState) MarkerStyle {
	switch state {
	case mapengine.MarkerSelected:
		return document.Markers.Selected
	case mapengine.MarkerHovered:
		return document.Markers.Hovered
	default:
		return document.Markers.Normal
	}
}

// ParseStyle parses and validates a style document. Glyphs must be a
// single terminal cell wide so markers land on their projected cell.
func ParseStyle(data []byte) (StyleDocument, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var document StyleDocument
	if err := decoder.Decode(&document); err != nil {
		return StyleDocument{}, fmt.Errorf("parsing map style: %w", err)
	}

	var errs []error
	if document.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if document.GraticuleGlyph != "" && ansi.StringWidth(document.GraticuleGlyph) != 1 {
		errs = append(errs, fmt.Errorf("graticule_glyph %q must be one cell wide", document.GraticuleGlyph))
	}
	for _, marker := range []struct {
		state string
		style MarkerStyle
	}{
		{"normal", document.Markers.Normal},
		{"hovered", document.Markers.Hovered},
		{"selected", document.Markers.Selected},
	} {
		if ansi.StringWidth(marker.style.Glyph) != 1 {
			errs = append(errs, fmt.Errorf("markers.%s.glyph %q must be one cell wide", marker.state, marker.style.Glyph))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return StyleDocument{}, fmt.Errorf("invalid map style: %w", err)
	}
	return document, nil
}

// BuiltinStyle returns the embedded default style.
func BuiltinStyle() StyleDocument {
	document, err := ParseStyle(builtinStyleSource)
	if err != nil {
		panic("termmap: embedded style is invalid: " + err.Error())
	}
	return document
}

// StyleRequestURL returns the URL a remote style is fetched from: the
// configured URL with apiKey appended as the api_key query parameter.
func StyleRequestURL(raw, apiKey string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing style URL: %w", err)
	}
	if apiKey != "" {
		query := parsed.Query()
		query.Set("api_key", apiKey)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

// fetchStyle resolves style to a document: the built-in style when no
// URL is configured, a local file, or an HTTP(S) resource.
func (engine *Engine) fetchStyle(ctx context.Context, style mapengine.Style) (StyleDocument, error) {
	if style.URL == "" {
		return BuiltinStyle(), nil
	}

	parsed, err := url.Parse(style.URL)
	if err != nil {
		return StyleDocument{}, fmt.Errorf("parsing style URL: %w", err)
	}

	var data []byte
	switch parsed.Scheme {
	case "http", "https":
		data, err = engine.fetchRemoteStyle(ctx, style)
	case "file":
		data, err = readStyleFile(parsed.Path)
	case "":
		data, err = readStyleFile(style.URL)
	default:
		return StyleDocument{}, fmt.Errorf("unsupported style URL scheme %q", parsed.Scheme)
	}
	if err != nil {
		return StyleDocument{}, err
	}
	return ParseStyle(data)
}

func (engine *Engine) fetchRemoteStyle(ctx context.Context, style mapengine.Style) ([]byte, error) {
	requestURL, err := StyleRequestURL(style.URL, style.APIKey)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building style request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := engine.client.Do(request)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		var urlError *url.Error
		if errors.As(err, &urlError) {
			err = urlError.Err
		}
		return nil, fmt.Errorf("fetching style from %s: %w", parsedHost(style.URL), err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching style from %s: %s", parsedHost(style.URL), response.Status)
	}
	data, err := io.ReadAll(io.LimitReader(response.Body, maxStyleSize))
	if err != nil {
		return nil, fmt.Errorf("reading style response: %w", err)
	}
	return data, nil
}

func readStyleFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening style: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxStyleSize))
	if err != nil {
		return nil, fmt.Errorf("reading style: %w", err)
	}
	return data, nil
}

func parsedHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "style server"
	}
	return parsed.Host
}
