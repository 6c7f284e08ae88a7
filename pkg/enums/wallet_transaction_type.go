package enums

import "fmt"

// WalletTransactionType is the signed direction of a ledger entry. The amount
// column is always positive; the type encodes the sign.
type WalletTransactionType string

const (
	WalletTransactionTypeCredit WalletTransactionType = "CREDIT"
	WalletTransactionTypeDebit  WalletTransactionType = "DEBIT"
	WalletTransactionTypeRefund WalletTransactionType = "REFUND"
	WalletTransactionTypeBonus  WalletTransactionType = "BONUS"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeCredit,
	WalletTransactionTypeDebit,
	WalletTransactionTypeRefund,
	WalletTransactionTypeBonus,
}

// String implements fmt.Stringer.
func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsCreditDirection reports whether the type increases the wallet balance.
func (w WalletTransactionType) IsCreditDirection() bool {
	return w == WalletTransactionTypeCredit || w == WalletTransactionTypeRefund || w == WalletTransactionTypeBonus
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
