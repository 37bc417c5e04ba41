package types

import (
	"time"

	"github.com/NotCoffee418/p1reader/pkg/telegram"
)

// PowerSample is one entry of the live rolling window. Power in Watts.
type PowerSample struct {
	Time     int64
	PowerIn  int64
	PowerOut int64
}

// Measurement is one weekly log sample. Energy in Wh (milli-kWh), power in W.
type Measurement struct {
	Time        int64
	EnergyInT1  int64
	EnergyInT2  int64
	PowerIn     int64
	EnergyOutT1 int64
	EnergyOutT2 int64
	PowerOut    int64
}

// PowerStats summarises the instantaneous power samples of one direction.
type PowerStats struct {
	Count int
	Sum   int64
	Min   int64
	Avg   float64
	Max   int64
}

// BatchSummary is a closed periodic batch window.
type BatchSummary struct {
	// First second covered by the window.
	Start int64
	// Second of the telegram that closed the window.
	End int64
	// Cumulative meter readings (tariff 1 + tariff 2) at close, in Wh.
	TotalImport int64
	TotalExport int64
	Import      PowerStats
	Export      PowerStats
}

// DetailRecord is one received telegram waiting for the detail export.
type DetailRecord struct {
	Received time.Time
	Telegram *telegram.Telegram
}
