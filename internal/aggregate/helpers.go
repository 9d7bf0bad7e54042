package aggregate

import "math/big"

const ratioScale = 18

func computeFeeRates(fee1, fee2, reserve1, reserve2 *big.Int) (*string, *string) {
	var feeRate1 *string
	var feeRate2 *string

	if rate := computeRateFromInt(fee1, reserve1); rate != "" {
		feeRate1 = &rate
	}
	if rate := computeRateFromInt(fee2, reserve2); rate != "" {
		feeRate2 = &rate
	}
	return feeRate1, feeRate2
}

func computeRateFromInt(fee, base *big.Int) string {
	if fee == nil || fee.Sign() == 0 || base == nil || base.Sign() == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(fee, base)
	return rat.FloatString(ratioScale)
}
