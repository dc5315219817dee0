// Package all wires the built-in storage backends into the storage factory.
//
// It exists purely for side effects: a blank import runs each backend's init,
// which registers its factory with the storage package. The only built-in
// kind is "postgres" (jsonload/internal/storage/postgres).
//
// Typical usage (in cmd/jsonload or a similar wiring layer):
//
//	import _ "jsonload/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", ...})
package all

import (
	_ "jsonload/internal/storage/postgres"
)
