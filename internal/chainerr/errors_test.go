package chainerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_DirectError(t *testing.T) {
	err := New(PriceUnavailable, "no price for %s", "XAUUSD")

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, PriceUnavailable, kind)
	assert.Contains(t, err.Error(), "PriceUnavailable")
}

func TestKindOf_WrappedError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := fmt.Errorf("tick failed: %w", Wrap(BrokerTransient, cause, "closing order"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, BrokerTransient, kind)
}

func TestKindOf_ForeignError(t *testing.T) {
	_, ok := KindOf(fmt.Errorf("plain error"))
	assert.False(t, ok)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(PersistenceFailure, cause, "saving chain %s", "C1")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}
