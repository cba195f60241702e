package utils_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-credcheck/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestToStringSlice(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, utils.ToStringSlice([]any{"a", 1, "b", nil}))
	require.Empty(t, utils.ToStringSlice(nil))
}

func TestPointers(t *testing.T) {
	now := time.Now()
	require.Equal(t, now, utils.Value(utils.Ptr(now)))
	require.True(t, utils.Value[time.Time](nil).IsZero())
}
