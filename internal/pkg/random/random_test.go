package random

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionID(t *testing.T) {
	pattern := regexp.MustCompile(`^txn-\d{13,}-[a-z0-9]{6}$`)
	for i := 0; i < 50; i++ {
		id := TransactionID()
		assert.Regexp(t, pattern, id)
		assert.GreaterOrEqual(t, len(id), 10)
		assert.LessOrEqual(t, len(id), 128)
	}
}

func TestAlphanumeric(t *testing.T) {
	s := Alphanumeric(32)
	assert.Len(t, s, 32)
	for _, r := range s {
		assert.Contains(t, lowerAlphanumeric, string(r))
	}
}

func TestExchangeKey(t *testing.T) {
	for i := 0; i < 50; i++ {
		key := ExchangeKey()
		assert.Len(t, key, 5)
		for _, r := range key {
			assert.Contains(t, keyAlphabet, string(r))
		}
	}
}

func TestAppendSuffix(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"near minimum", "abcdefg"},
		{"already long", "a-long-transaction-name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := AppendSuffix(tt.input)
			assert.True(t, strings.HasPrefix(out, tt.input+"-"))
			assert.GreaterOrEqual(t, len(out), 12)
			// At least 4 random characters after the separator.
			assert.GreaterOrEqual(t, len(out)-len(tt.input)-1, 4)
		})
	}
}
