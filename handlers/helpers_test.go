package handlers

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtoiOr(t *testing.T) {
	assert.Equal(t, 5, atoiOr("5", 1))
	assert.Equal(t, 1, atoiOr("", 1))
	assert.Equal(t, 1, atoiOr("abc", 1))
	assert.Equal(t, -3, atoiOr("-3", 1))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", d)

	_, err = parseDate("10/01/2024")
	assert.Error(t, err)

	_, err = parseDate("")
	assert.Error(t, err)
}

func TestDateRangeInclusive(t *testing.T) {
	days, err := dateRange("2024-01-10", "2024-01-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-01-11", "2024-01-12"}, days)
}

func TestDateRangeSingleDay(t *testing.T) {
	days, err := dateRange("2024-02-29", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29"}, days)
}

func TestDateRangeCrossesMonth(t *testing.T) {
	days, err := dateRange("2024-01-30", "2024-02-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02"}, days)
}

func TestDateRangeEndBeforeStart(t *testing.T) {
	_, err := dateRange("2024-01-12", "2024-01-10")
	assert.Error(t, err)
}

func TestMapsURL(t *testing.T) {
	lat, lng := 13.7563, 100.5018
	assert.Equal(t, "https://www.google.com/maps?q=13.7563,100.5018", mapsURL(&lat, &lng))
	assert.Equal(t, "", mapsURL(nil, &lng))
	assert.Equal(t, "", mapsURL(&lat, nil))
	assert.Equal(t, "", mapsURL(nil, nil))
}

func TestCSVRecordsColumnOrder(t *testing.T) {
	recs := csvRecords(nil)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{
		"Date", "Person", "Role", "Status",
		"Punch In", "In Location", "Punch Out", "Out Location",
		"Notes", "Recorded At",
	}, recs[0])
}

func TestCSVQuotesEmbeddedDoubleQuotes(t *testing.T) {
	status := "present"
	in := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	lat, lng := 13.7563, 100.5018
	rows := []logRow{{
		AttendanceDate: "2024-01-10",
		FullName:       "Somchai P.",
		PersonRole:     "Engineer",
		Status:         &status,
		Notes:          `He said "hi"`,
		PunchInTime:    &in,
		PunchInLat:     &lat,
		PunchInLng:     &lng,
		CreatedAt:      in,
	}}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(csvRecords(rows)))

	assert.Contains(t, buf.String(), `"He said ""hi"""`)

	// and it round-trips
	parsed, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, `He said "hi"`, parsed[1][8])
	assert.Equal(t, "https://www.google.com/maps?q=13.7563,100.5018", parsed[1][5])
	assert.Equal(t, "09:00:00", parsed[1][4])
}
