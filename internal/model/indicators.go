package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorSet holds the rolling statistics derived for one bar.
// A None value means the window did not have enough history yet.
type IndicatorSet struct {
	Time     time.Time
	MAShort  optional.Option[float64]
	MAMid    optional.Option[float64]
	MALong   optional.Option[float64]
	AvgGain  optional.Option[float64]
	AvgLoss  optional.Option[float64]
	RSI      optional.Option[float64]
	VolumeMA optional.Option[float64]
}
