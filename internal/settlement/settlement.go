package settlement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Grade is the contractor tier determining the platform fee percentage.
type Grade string

const (
	GradeNormal Grade = "normal"
	GradePrime  Grade = "prime"
)

var (
	rateNormal = decimal.NewFromFloat(0.055)
	ratePrime  = decimal.NewFromFloat(0.033)
	rateVAT    = decimal.NewFromFloat(0.10)
)

func (g Grade) Valid() bool {
	return g == GradeNormal || g == GradePrime
}

func (g Grade) FeeRate() decimal.Decimal {
	if g == GradePrime {
		return ratePrime
	}

	return rateNormal
}

var ErrInvalidGrade = errors.New("unknown contractor grade")

// Statement is a contractor's monthly payout breakdown.
type Statement struct {
	PartnerID uuid.UUID
	Year      int
	Month     time.Month
	Grade     Grade
	Volume    int64
	Fee       int64
	VAT       int64
	Net       int64
}

// Compute derives fee, VAT and net payout from a monthly contract volume.
// fee = floor(volume × rate), vat = floor(fee × 10%), net = volume − fee − vat.
func Compute(volume int64, grade Grade) (fee, vat, net int64) {
	v := decimal.NewFromInt(volume)

	fee = v.Mul(grade.FeeRate()).Floor().IntPart()
	vat = decimal.NewFromInt(fee).Mul(rateVAT).Floor().IntPart()
	net = volume - fee - vat

	return fee, vat, net
}
