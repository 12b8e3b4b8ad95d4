// Package money keeps the provider's minor-unit amounts (kobo) apart from
// the Naira amounts the ledger stores. Conversion happens only at the
// Paystack boundary; everything internal is Naira.
package money

// Kobo is an amount in NGN minor units as Paystack reports it.
type Kobo int64

// Naira is an amount in NGN major units, the ledger's canonical unit.
type Naira int64

// Naira truncates toward zero; Paystack charge amounts are whole-Naira
// multiples in practice.
func (k Kobo) Naira() Naira {
	return Naira(k / 100)
}

func (n Naira) Kobo() Kobo {
	return Kobo(n * 100)
}

func (n Naira) Int64() int64 {
	return int64(n)
}

func (k Kobo) Int64() int64 {
	return int64(k)
}
