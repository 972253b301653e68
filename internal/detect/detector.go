// Package detect holds the signal evaluators. Each detection family is one
// Detector implementation over the shared indicator functions; the scanner
// composes whichever set a loop is configured with. Evaluations run on
// closed candles only — the orchestrator drops the provisional last candle
// before building the Snapshot.
package detect

import "sentinel/models"

// Detector classifies one symbol's current market snapshot.
type Detector interface {
	Name() string
	Evaluate(snap models.Snapshot) models.Signal
}

func none(symbol string) models.Signal {
	return models.Signal{Symbol: symbol, Kind: models.SignalNone}
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
