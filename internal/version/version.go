package version

import "time"

// Build identity, overridable via -ldflags.
var (
	AppName = "Wallflower"
	Version = "dev"
)

// StartTime is when this process came up; status surfaces report uptime
// relative to it.
var StartTime = time.Now()

// Uptime returns time since process start, truncated to seconds.
func Uptime() time.Duration {
	return time.Since(StartTime).Truncate(time.Second)
}
