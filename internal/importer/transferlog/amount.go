package transferlog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseWonAmount parses a comma-grouped won amount into its integer
// value. Format examples: "1,000,000" -> 1000000, "300000" -> 300000.
func parseWonAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(s, ",", "")
	clean = strings.TrimSuffix(clean, "원")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Round(0).IntPart(), nil
}
