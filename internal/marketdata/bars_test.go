package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/mktabuse/internal/abuse"
)

const amznHistory = `Date,Open,High,Low,Close,Adj Close,Volume
2020-02-03,2010.599976,2048.500000,2000.250000,2004.199951,2004.199951,5899100
2020-02-04,2029.880005,2059.800049,2015.369995,2049.669922,2049.669922,5289300
2020-02-05,null,null,null,null,null,null
2020-02-06,2041.020020,2056.300049,2024.800049,2050.229980,2050.229980,3183000
`

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseBars_SkipsNullRows(t *testing.T) {
	bars, err := ParseBars(strings.NewReader(amznHistory))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, date("2020-02-03"), bars[0].Date)
	assert.True(t, bars[0].High.Equal(decimal.RequireFromString("2048.5")))
	assert.True(t, bars[0].Low.Equal(decimal.RequireFromString("2000.25")))
	assert.Equal(t, int64(5899100), bars[0].Volume)
	assert.Equal(t, date("2020-02-06"), bars[2].Date)
}

func TestParseBars_AcceptsTimeOfDay(t *testing.T) {
	in := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2020-02-03 00:00:00,1,2,1,2,2,100\n" +
		"2020-02-04T16:00:00,1,3,1,2,2,200\n"
	bars, err := ParseBars(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, date("2020-02-03"), bars[0].Date)
	assert.Equal(t, date("2020-02-04"), abuse.TruncateToDate(bars[1].Date))

	got := inWindow(bars, date("2020-02-04"), date("2020-02-04"))
	require.Len(t, got, 1)
	assert.Equal(t, int64(200), got[0].Volume)
}

func TestParseBars_Errors(t *testing.T) {
	header := "Date,Open,High,Low,Close,Adj Close,Volume\n"
	tests := []struct {
		name       string
		in         string
		validation bool
	}{
		{name: "empty", in: ""},
		{name: "missing columns", in: "Date,Close\n2020-02-03,1\n"},
		{name: "bad date", in: header + "03/02/2020,1,2,1,1,1,10\n", validation: true},
		{name: "bad price", in: header + "2020-02-03,1,x,1,1,1,10\n", validation: true},
		{name: "bad volume", in: header + "2020-02-03,1,2,1,1,1,many\n", validation: true},
		{name: "high below low", in: header + "2020-02-03,1,1,2,1,1,10\n", validation: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBars(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.Equal(t, tc.validation, errors.Is(err, abuse.ErrInputValidation))
		})
	}
}

func TestInWindow_Inclusive(t *testing.T) {
	bars, err := ParseBars(strings.NewReader(amznHistory))
	require.NoError(t, err)

	got := inWindow(bars, date("2020-02-04"), date("2020-02-06"))
	require.Len(t, got, 2)
	assert.Equal(t, date("2020-02-04"), got[0].Date)
	assert.Equal(t, date("2020-02-06"), got[1].Date)

	assert.Empty(t, inWindow(bars, date("2021-01-01"), date("2021-01-31")))
}

func TestFileBarSource_ResolvesStockPlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AMZN.csv"), []byte(amznHistory), 0o644))

	src := NewFileBarSource(filepath.Join(dir, "{stock}.csv"))
	bars, err := src.FetchBars(context.Background(), "AMZN", date("2020-02-01"), date("2020-02-04"))
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = src.FetchBars(context.Background(), "MSFT", date("2020-02-01"), date("2020-02-04"))
	assert.Error(t, err)
}
