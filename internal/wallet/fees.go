package wallet

// processing fee charged on every withdrawal, in Naira
const processingFee = 15

// Fees is the breakdown for one withdrawal amount.
type Fees struct {
	Processing int64 `json:"processing_fee"`
	Provider   int64 `json:"provider_fee"`
	Total      int64 `json:"total_fee"`
}

// CalculateFees returns the provider + processing fee for an amount tier.
// Pure and total over all non-negative amounts.
func CalculateFees(amount int64) Fees {
	var provider int64
	switch {
	case amount <= 5000:
		provider = 10
	case amount <= 50000:
		provider = 25
	default:
		provider = 50
	}

	return Fees{
		Processing: processingFee,
		Provider:   provider,
		Total:      processingFee + provider,
	}
}
