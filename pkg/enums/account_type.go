package enums

import "slices"

// AccountType distinguishes token-bound accounts from signature-bound accounts.
type AccountType string

const (
	AccountTypeTraditional AccountType = "TRADITIONAL"
	AccountTypeWallet      AccountType = "WALLET"
)

var validAccountTypes = []AccountType{
	AccountTypeTraditional,
	AccountTypeWallet,
}

// IsValid reports whether the value matches a known account type.
func (v AccountType) IsValid() bool {
	return slices.Contains(validAccountTypes, v)
}

// ParseAccountType converts raw input into AccountType.
func ParseAccountType(value string) (AccountType, error) {
	return parse(validAccountTypes, "account type", value)
}
