package striperepo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int32(0), MinorUnits("jpy"))
	require.Equal(t, int32(3), MinorUnits("BHD"))
	require.Equal(t, int32(2), MinorUnits("EUR"))
	require.Equal(t, int32(2), MinorUnits("CHF"))
}

func TestToMinorUnits(t *testing.T) {
	n, err := ToMinorUnits("JPY", decimal.RequireFromString("1000"))
	require.NoError(t, err)
	require.Equal(t, int64(1000), n)

	n, err = ToMinorUnits("EUR", decimal.RequireFromString("12.30"))
	require.NoError(t, err)
	require.Equal(t, int64(1230), n)

	_, err = ToMinorUnits("EUR", decimal.RequireFromString("12.345"))
	require.Error(t, err)
	_, err = ToMinorUnits("JPY", decimal.RequireFromString("0.5"))
	require.Error(t, err)
}
