package striperepo

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies whose minor unit is not the cent. Everything else has two
// decimals.
var exponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "JPY": 0, "KMF": 0, "KRW": 0, "MGA": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
}

// MinorUnits is the number of decimals the processor expects for currency.
func MinorUnits(currency string) int32 {
	if e, ok := exponents[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// ToMinorUnits converts amount to the integer the processor charges. Amounts
// finer than the currency's minor unit are refused rather than rounded.
func ToMinorUnits(currency string, amount decimal.Decimal) (int64, error) {
	exp := MinorUnits(currency)
	if !amount.Equal(amount.Truncate(exp)) {
		return 0, fmt.Errorf("%s amount %s has more than %d decimals", strings.ToUpper(currency), amount, exp)
	}
	return amount.Shift(exp).IntPart(), nil
}
