package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type verifyRequest struct {
	PhoneCode     string `validate:"required,phonecode"`
	PhoneNumber   string `validate:"required,phonenum"`
	ReferenceID   string `validate:"required"`
	TransactionID string `validate:"omitempty,txnid"`
}

func valid() verifyRequest {
	return verifyRequest{
		PhoneCode:   "+1",
		PhoneNumber: "5551234567",
		ReferenceID: "ref-001",
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(valid()))

	withTxn := valid()
	withTxn.TransactionID = "txn-1706471234567-a3f9b2"
	assert.NoError(t, Struct(withTxn))
}

func TestStruct_PhoneCode(t *testing.T) {
	good := []string{"+1", "1", "+44", "+1876", "598"}
	for _, c := range good {
		req := valid()
		req.PhoneCode = c
		assert.NoError(t, Struct(req), "phone code %q", c)
	}

	bad := []string{"0", "+0", "+12345", "abc", "+1a"}
	for _, c := range bad {
		req := valid()
		req.PhoneCode = c
		assert.Error(t, Struct(req), "phone code %q", c)
	}
}

func TestStruct_PhoneNumber(t *testing.T) {
	good := []string{"1234", "5551234567", "123456789012345"}
	for _, n := range good {
		req := valid()
		req.PhoneNumber = n
		assert.NoError(t, Struct(req), "phone number %q", n)
	}

	bad := []string{"123", "1234567890123456", "555-1234", "phone"}
	for _, n := range bad {
		req := valid()
		req.PhoneNumber = n
		assert.Error(t, Struct(req), "phone number %q", n)
	}
}

func TestStruct_TransactionID(t *testing.T) {
	good := []string{"abcdefghij", "my txn_1 -ok", "txn-1706471234567-a3f9b2"}
	for _, id := range good {
		req := valid()
		req.TransactionID = id
		assert.NoError(t, Struct(req), "transaction id %q", id)
	}

	bad := []string{"short", "has!bang-chars", strings.Repeat("a", 129)}
	for _, id := range bad {
		req := valid()
		req.TransactionID = id
		assert.Error(t, Struct(req), "transaction id %q", id)
	}
}

func TestStruct_MissingRequired(t *testing.T) {
	req := valid()
	req.ReferenceID = ""
	err := Struct(req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceID")
}
