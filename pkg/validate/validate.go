package validate

import (
	"net/mail"
	"strings"
)

const (
	MinAccountNumberLen = 10
	MaxAccountNumberLen = 15
)

var eWallets = map[string]string{
	"dana":      "DANA",
	"ovo":       "OVO",
	"gopay":     "GoPay",
	"shopeepay": "ShopeePay",
	"linkaja":   "LinkAja",
}

func IsEWallet(code string) bool {
	_, ok := eWallets[code]
	return ok
}

// EWalletName returns the display name, or the code itself when unknown.
func EWalletName(code string) string {
	if name, ok := eWallets[code]; ok {
		return name
	}
	return code
}

func EWallets() []string {
	return []string{"dana", "ovo", "gopay", "shopeepay", "linkaja"}
}

// IsAccountNumber accepts 10 to 15 decimal digits.
func IsAccountNumber(number string) bool {
	if len(number) < MinAccountNumberLen || len(number) > MaxAccountNumberLen {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func IsEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
