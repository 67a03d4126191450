package repository

// Interval is the bar resolution requested from a data source.
type Interval string

const (
	Interval1m    Interval = "1min"
	Interval5m    Interval = "5min"
	Interval15m   Interval = "15min"
	Interval30m   Interval = "30min"
	Interval60m   Interval = "60min"
	IntervalDaily Interval = "daily"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1m, Interval5m, Interval15m, Interval30m, Interval60m, IntervalDaily:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default interval.
func DefaultInterval() Interval { return Interval60m }

// NormalizeInterval converts a raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}

// IsIntraday reports whether iv is served by the intraday endpoint.
func (iv Interval) IsIntraday() bool { return iv != IntervalDaily }
