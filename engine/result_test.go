package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComponentCountIsOk(t *testing.T) {
	r := ComponentCount(4, 1)
	require.True(t, r.Ok())
	require.Equal(t, ComponentCountKind, r.Kind)
	require.Equal(t, uint64(4), r.Count)
	require.Equal(t, 1, r.Iterations)
	require.Contains(t, r.String(), "ComponentCount(4)")
}

func TestErrorKindsAreNotOk(t *testing.T) {
	cases := []struct {
		name string
		r    Result
		kind ResultKind
	}{
		{"operator", OperatorError(errors.New("bad flags")), OperatorErrorKind},
		{"input", InputError(errors.New("dangling endpoint")), InputErrorKind},
		{"overflow", Overflow(errors.New("counter wrapped")), OverflowKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.False(t, tc.r.Ok())
			require.Equal(t, tc.kind, tc.r.Kind)
			require.Error(t, tc.r.Err)
			require.NotEmpty(t, tc.r.String())
		})
	}
}

func TestResultKindStringIsStable(t *testing.T) {
	require.Equal(t, "ComponentCount", ComponentCountKind.String())
	require.Equal(t, "OperatorError", OperatorErrorKind.String())
	require.Equal(t, "InputError", InputErrorKind.String())
	require.Equal(t, "Overflow", OverflowKind.String())
}
