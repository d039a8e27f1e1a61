package state

import "time"

// timeNow is a package-level variable for testability.
// Tests replace it to control transition and creation timestamps.
var timeNow = time.Now
