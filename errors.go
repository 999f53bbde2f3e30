package geoscore

import "errors"

// ErrNotReady is returned by lookups issued before any successful load.
// Load the artifacts and call Load (or the daemon's /reload) first.
var ErrNotReady = errors.New("geoscore: catalog not loaded yet")
