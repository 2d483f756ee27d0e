// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package termmap is a [mapengine.Engine] that draws venue markers on
// a Web Mercator grid in the terminal. It does not render tiles: the
// background is a graticule pinned to world coordinates, which is
// enough to read relative positions and see the camera move.
//
// Styles resolve on a background goroutine. Failures to fetch a
// remote style are reported as non-fatal error events and retried
// with exponential backoff; when the attempts are spent the built-in
// style is used, so an instance always loads unless disposed. A
// terminal with no color support cannot distinguish marker states and
// fails construction with [mapengine.ErrUnsupportedContext].
package termmap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/takeone-collective/archive/lib/clock"
	"github.com/takeone-collective/archive/lib/mapengine"
)

// Defaults for [Options] fields left zero.
const (
	DefaultStyleAttempts = 3
	DefaultRetryBackoff  = 500 * time.Millisecond
	defaultFetchTimeout  = 10 * time.Second
)

// Options configure an [Engine].
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger

	// Profile is the terminal's color profile, normally
	// termenv.EnvColorProfile().
	Profile termenv.Profile

	// HTTPClient fetches remote styles.
	HTTPClient *http.Client

	// StyleAttempts is how many times a style is fetched before
	// falling back to the built-in style. RetryBackoff is the delay
	// before the second attempt; it doubles after each failure.
	StyleAttempts int
	RetryBackoff  time.Duration
}

// Engine constructs terminal map instances.
type Engine struct {
	clock    clock.Clock
	logger   *slog.Logger
	profile  termenv.Profile
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// New returns an engine.
func New(options Options) *Engine {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	if options.StyleAttempts <= 0 {
		options.StyleAttempts = DefaultStyleAttempts
	}
	if options.RetryBackoff <= 0 {
		options.RetryBackoff = DefaultRetryBackoff
	}
	return &Engine{
		clock:    options.Clock,
		logger:   options.Logger,
		profile:  options.Profile,
		client:   options.HTTPClient,
		attempts: options.StyleAttempts,
		backoff:  options.RetryBackoff,
	}
}

// Construct implements [mapengine.Engine]. The returned instance
// starts resolving its style immediately.
func (engine *Engine) Construct(container mapengine.Container, style mapengine.Style) (mapengine.Instance, error) {
	if engine.profile == termenv.Ascii {
		return nil, fmt.Errorf("terminal reports no color support: %w", mapengine.ErrUnsupportedContext)
	}

	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(engine.profile)

	ctx, cancel := context.WithCancel(context.Background())
	instance := &Instance{
		clock:     engine.clock,
		logger:    engine.logger,
		renderer:  renderer,
		container: container,
		camera:    camera{Center: style.Center, Zoom: style.Zoom},
		callbacks: make(map[mapengine.EventKind][]func(error)),
		cancel:    cancel,
	}
	go engine.resolve(ctx, instance, style)
	return instance, nil
}

// resolve fetches the style with retries and loads the instance.
func (engine *Engine) resolve(ctx context.Context, instance *Instance, style mapengine.Style) {
	backoff := engine.backoff
	for attempt := 1; ; attempt++ {
		document, err := engine.fetchStyle(ctx, style)
		if err == nil {
			instance.load(document)
			return
		}
		if ctx.Err() != nil {
			return
		}
		instance.emit(mapengine.EventError, fmt.Errorf("map style attempt %d of %d: %w", attempt, engine.attempts, err))
		if attempt >= engine.attempts {
			engine.logger.Warn("map style unavailable, using built-in style", "attempts", attempt)
			instance.load(BuiltinStyle())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-engine.clock.After(backoff):
		}
		backoff *= 2
	}
}
