package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	lowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
	keyAlphabet       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"

	// Transactions shorter than this get a random suffix appended.
	minTransactionLength = 12
	minSuffixLength      = 4
)

// TransactionID generates a transaction identifier of the form
// txn-<epoch-millis>-<6 random lowercase alphanumerics>, e.g.
// txn-1706471234567-a3f9b2. The result always satisfies the same
// length (10-128) and character-class bounds enforced on
// caller-supplied transaction ids.
func TransactionID() string {
	return fmt.Sprintf("txn-%d-%s", time.Now().UnixMilli(), Alphanumeric(6))
}

// Alphanumeric returns n random characters from [a-z0-9].
func Alphanumeric(n int) string {
	return fromAlphabet(lowerAlphanumeric, n)
}

// ExchangeKey returns a 5-character one-time key drawn from letters,
// digits and a small symbol set.
func ExchangeKey() string {
	return fromAlphabet(keyAlphabet, 5)
}

// AppendSuffix appends "-" plus at least 4 random alphanumeric characters to
// the given transaction text, padding it to a minimum total length of 12.
func AppendSuffix(transaction string) string {
	n := minSuffixLength
	if missing := minTransactionLength - len(transaction); missing > n {
		n = missing
	}
	return transaction + "-" + Alphanumeric(n)
}

func fromAlphabet(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic("random source unavailable: " + err.Error())
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
