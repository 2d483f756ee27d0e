// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"

	"github.com/takeone-collective/archive/lib/catalog"
)

// ModalState is the detail overlay's position in its lifecycle.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalEvent
	ModalFullScreen
)

func (state ModalState) String() string {
	switch state {
	case ModalClosed:
		return "closed"
	case ModalEvent:
		return "event"
	case ModalFullScreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("modal(%d)", int(state))
	}
}

// ClickTarget identifies which layer of the overlay received a click.
type ClickTarget int

const (
	// TargetBackdrop is the area around the content box.
	TargetBackdrop ClickTarget = iota
	// TargetContent is anything inside the content box. Content
	// clicks are consumed and never reach the backdrop.
	TargetContent
)

// Modal is the event detail and gallery controller.
//
//	closed --Open--> event --OpenFullScreen--> fullscreen
//	  ^                |  ^                        |
//	  +--Close/backdrop+  +---CloseFullScreen------+
//	                         backdrop
type Modal struct {
	state        ModalState
	event        catalog.EventRecord
	galleryIndex int
	media        string
}

// State returns the current state.
func (modal *Modal) State() ModalState { return modal.state }

// Event returns the open event, if any.
func (modal *Modal) Event() (catalog.EventRecord, bool) {
	if modal.state == ModalClosed {
		return catalog.EventRecord{}, false
	}
	return modal.event, true
}

// GalleryIndex is the selected gallery image. Zero for an empty
// gallery.
func (modal *Modal) GalleryIndex() int { return modal.galleryIndex }

// CurrentImage returns the selected gallery URI.
func (modal *Modal) CurrentImage() (string, bool) {
	if modal.state == ModalClosed || len(modal.event.Gallery) == 0 {
		return "", false
	}
	return modal.event.Gallery[modal.galleryIndex], true
}

// FullScreenMedia returns the URI shown full-screen, or "".
func (modal *Modal) FullScreenMedia() string {
	if modal.state != ModalFullScreen {
		return ""
	}
	return modal.media
}

// Open shows event with the gallery at its first image, replacing
// whatever was open.
func (modal *Modal) Open(event catalog.EventRecord) {
	modal.state = ModalEvent
	modal.event = event
	modal.galleryIndex = 0
	modal.media = ""
}

// Close returns to the closed state from anywhere.
func (modal *Modal) Close() {
	*modal = Modal{}
}

// Next selects the following gallery image, wrapping to the first.
func (modal *Modal) Next() {
	modal.step(1)
}

// Prev selects the preceding gallery image, wrapping to the last.
func (modal *Modal) Prev() {
	modal.step(-1)
}

func (modal *Modal) step(delta int) {
	count := len(modal.event.Gallery)
	if modal.state != ModalEvent || count == 0 {
		return
	}
	modal.galleryIndex = ((modal.galleryIndex+delta)%count + count) % count
}

// Jump selects a thumbnail directly, clamped to the gallery bounds.
func (modal *Modal) Jump(index int) {
	count := len(modal.event.Gallery)
	if modal.state != ModalEvent || count == 0 {
		return
	}
	modal.galleryIndex = max(0, min(index, count-1))
}

// OpenFullScreen shows media full-screen. Only reachable from the
// event view; returns false otherwise.
func (modal *Modal) OpenFullScreen(media string) bool {
	if modal.state != ModalEvent || media == "" {
		return false
	}
	modal.state = ModalFullScreen
	modal.media = media
	return true
}

// CloseFullScreen returns to the event view.
func (modal *Modal) CloseFullScreen() {
	if modal.state != ModalFullScreen {
		return
	}
	modal.state = ModalEvent
	modal.media = ""
}

// Click routes a pointer click. A backdrop click dismisses the top
// layer: full-screen media returns to the event, the event closes.
// Content clicks are consumed. Returns whether the state changed.
func (modal *Modal) Click(target ClickTarget) bool {
	if target != TargetBackdrop {
		return false
	}
	switch modal.state {
	case ModalFullScreen:
		modal.CloseFullScreen()
		return true
	case ModalEvent:
		modal.Close()
		return true
	default:
		return false
	}
}
