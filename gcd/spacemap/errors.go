package spacemap

import "errors"

var (
	// errStaleHandle indicates a handle whose slot was released or reused.
	errStaleHandle = errors.New("spacemap: stale entry handle")

	// errCorrupt indicates Validate found a broken map invariant.
	errCorrupt = errors.New("spacemap: corrupt map")

	// errNotAvailable stops a run walk at the first entry an allocation cannot use.
	errNotAvailable = errors.New("spacemap: entry not available")
)
