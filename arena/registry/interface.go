package registry

import "github.com/joshuapare/arenakit/arena/dirty"

// DirtyTracker is a type alias for the canonical interface defined in arena/dirty.
type DirtyTracker = dirty.DirtyTracker
