package nexo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorToMajor(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{1, "0.01"},
		{10, "0.1"},
		{99, "0.99"},
		{100, "1"},
		{12345, "123.45"},
		{9_999_999_999, "99999999.99"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, MinorToMajor(c.minor).String(), "minor=%d", c.minor)
	}
}

func TestMinorMajorRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	values := []int64{1, 2, 3, 7, 10, 29, 101, 12345, 1 << 40}
	for i := 0; i < 1000; i++ {
		values = append(values, r.Int63n(1<<50)+1)
	}
	for _, m := range values {
		got, err := MajorToMinor(MinorToMajor(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}

func TestMajorToMinorRejectsFractionalCents(t *testing.T) {
	_, err := MajorToMinor(decimal.RequireFromString("0.001"))
	require.Error(t, err)
}

func TestMajorToMinorRejectsOverflow(t *testing.T) {
	for _, v := range []string{"100000000000000000000.00", "-100000000000000000000", "92233720368547758.08"} {
		_, err := MajorToMinor(decimal.RequireFromString(v))
		require.Error(t, err, v)
	}

	got, err := MajorToMinor(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64), got)

	got, err = MajorToMinor(decimal.RequireFromString("-92233720368547758.08"))
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt64), got)
}
