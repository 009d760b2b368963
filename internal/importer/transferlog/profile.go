package transferlog

// Profile describes the column layout of one bank's transfer-log export.
// Adding a new bank is just adding a new Profile to the profiles slice.
type Profile struct {
	Name       string
	DateCol    string
	DateLayout string
	PayerCol   string
	MemoCol    string
	CreditCol  string
}

// requiredCols returns the column names that must be present for this
// profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.PayerCol, p.CreditCol}
}

// profiles is the ordered list of export formats to try during
// auto-detection. More specific profiles should come first to avoid
// false matches.
var profiles = []Profile{
	{
		Name:       "kookmin",
		DateCol:    "거래일시",
		DateLayout: "2006.01.02 15:04:05",
		PayerCol:   "보낸분/받는분",
		MemoCol:    "메모",
		CreditCol:  "입금액(원)",
	},
	{
		Name:       "shinhan",
		DateCol:    "거래일자",
		DateLayout: "2006-01-02",
		PayerCol:   "의뢰인명",
		MemoCol:    "적요",
		CreditCol:  "입금",
	},
}
