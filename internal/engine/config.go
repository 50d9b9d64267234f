package engine

import "time"

// #region config

// Config holds the scalar run parameters, consumed once at construction.
type Config struct {
	NumUsers      int
	MaxUsers      int // influx admission ceiling; 0 disables the cap
	Days          int
	BatchesPerDay int
	Seed          int64
	EnableInflux  bool

	// StartTime anchors batch timestamps. Zero means time.Now() at run
	// start; timestamps never feed back into the dynamics.
	StartTime time.Time
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		NumUsers:      500,
		MaxUsers:      1000,
		Days:          365,
		BatchesPerDay: 6,
		Seed:          42,
		EnableInflux:  false,
	}
}

// TotalBatches returns the number of time steps in the run.
func (c Config) TotalBatches() int {
	return c.Days * c.BatchesPerDay
}

// #endregion config
