package probe

import "time"

// Defaults for the probe command.
const (
	DefaultBaseURL = "http://localhost:3001"
	DefaultRounds  = 1
	DefaultTimeout = 60 * time.Second

	percentageMultiplier = 100
	maxMismatchesShown   = 20
)
