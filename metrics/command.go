package metrics

import (
	"time"
)

var (
	commandsTotal   = LazyLoadCounterVec("commands_total", []string{"program", "command", "status"})
	commandDuration = LazyLoadHistogramVec("command_duration_ms", []string{"program", "command"}, BucketCommandMs)
)

// ObserveCommand counts one command and records how long it took.
func ObserveCommand(program, command, status string, took time.Duration) {
	commandsTotal().AddWithLabel(1, map[string]string{"program": program, "command": command, "status": status})
	commandDuration().ObserveWithLabels(took.Milliseconds(), map[string]string{"program": program, "command": command})
}
