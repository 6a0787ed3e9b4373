package valuation

import "fmt"

// Indian currency units.
const (
	lakh  = 100_000
	crore = 10_000_000
)

// FormatINR renders a raw rupee amount in Indian market convention:
// crores at or above one crore, lakhs below. Computation everywhere else
// stays in raw rupees.
func FormatINR(amount float64) string {
	if amount >= crore {
		return fmt.Sprintf("₹%.2f Cr", amount/crore)
	}
	return fmt.Sprintf("₹%.2f L", amount/lakh)
}
