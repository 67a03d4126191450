package repository

import (
	"fmt"
	"regexp"
	"strings"

	"FinForecast/internal/domain"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^]{0,15}$`)

// NormalizeTicker upper-cases the symbol and rejects anything unsafe to use in
// an artifact key.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w %q", domain.ErrInvalidTicker, ticker)
	}
	return t, nil
}

func scalerKey(ticker string) string { return "scalers/" + ticker + ".json" }

func modelKey(ticker string) string { return "models/" + ticker + ".json" }
