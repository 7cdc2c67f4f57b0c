package id

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Format(t *testing.T) {
	u := New()
	assert.Len(t, u, 26)
}

func TestNew_MonotonicWithinMillisecond(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = New()
	}
	require.True(t, sort.StringsAreSorted(ids), "ids must be strictly increasing")
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
}
