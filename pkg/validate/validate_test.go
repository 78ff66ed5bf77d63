package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEWallet(t *testing.T) {
	for _, code := range EWallets() {
		assert.True(t, IsEWallet(code), code)
	}
	assert.False(t, IsEWallet("paypal"))
	assert.False(t, IsEWallet("DANA"))
	assert.Equal(t, "ShopeePay", EWalletName("shopeepay"))
	assert.Equal(t, "paypal", EWalletName("paypal"))
}

func TestIsAccountNumber(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"0812345678", true},
		{"081234567890123", true},
		{"081234567", false},
		{"0812345678901234", false},
		{"08123456ab", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsAccountNumber(tt.number))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.True(t, IsEmail("budi@example.com"))
	assert.False(t, IsEmail("budi"))
	assert.False(t, IsEmail("Budi <budi@example.com>"))
	assert.Equal(t, "budi@example.com", NormalizeEmail("  Budi@Example.COM "))
}
