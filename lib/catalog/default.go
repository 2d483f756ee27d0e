// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	_ "embed"
	"sync"
)

//go:embed default_catalog.jsonc
var defaultCatalogSource []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the built-in archive catalog: nine TakeONE events
// across five venues in South Tyrol. Used when no --catalog is given.
// Panics if the embedded document is invalid, which the package tests
// rule out.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		catalog, err := ParseJSONC(defaultCatalogSource)
		if err != nil {
			panic("catalog: embedded default catalog is invalid: " + err.Error())
		}
		defaultCatalog = catalog
	})
	return defaultCatalog
}
