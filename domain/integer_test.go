package domain_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/aspskema/domain"
)

func TestParseInt(t *testing.T) {
	cases := []struct {
		text string
		want int64
		err  error
	}{
		{"0", 0, nil},
		{"-12", -12, nil},
		{"+7", 7, nil},
		{" 42 ", 42, nil},
		{strconv.FormatInt(domain.MaxInt, 10), domain.MaxInt, nil},
		{strconv.FormatInt(domain.MinInt, 10), domain.MinInt, nil},
		{strconv.FormatInt(domain.MaxInt+1, 10), 0, domain.ErrOverflow},
		{strconv.FormatInt(domain.MinInt-1, 10), 0, domain.ErrOverflow},
		{"99999999999999999999999", 0, domain.ErrOverflow},
		{"", 0, domain.ErrNotANumber},
		{"1.5", 0, domain.ErrNotANumber},
		{"abc", 0, domain.ErrNotANumber},
	}
	for _, tc := range cases {
		got, err := domain.ParseInt(tc.text)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, tc.text)
			continue
		}
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseInt_RoundTrip(t *testing.T) {
	for _, v := range []int64{domain.MinInt, -1, 0, 1, 1 << 20, domain.MaxInt, domain.MaxInt + 1, domain.MinInt - 1, 1 << 40} {
		_, err := domain.ParseInt(strconv.FormatInt(v, 10))
		if domain.InRange(v) {
			assert.NoError(t, err, v)
		} else {
			assert.ErrorIs(t, err, domain.ErrOverflow, v)
		}
	}
}
