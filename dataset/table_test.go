package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,name,price,longitude,latitude,last_review
1,"Cozy, bright room",50,-73.9,40.7,2019-05-21
2,Loft,200,-73.95,40.72,
3,Studio,075.50,-74.0,40.8,not-a-date
`

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := Read(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestReadKeepsColumnsAndRawValues(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, []string{"id", "name", "price", "longitude", "latitude", "last_review"}, tbl.Names())
	assert.Equal(t, 3, tbl.Len())

	prices, err := tbl.Column("price")
	require.NoError(t, err)
	assert.Equal(t, []string{"50", "200", "075.50"}, prices)

	reviews, err := tbl.Column("last_review")
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-05-21", "", "not-a-date"}, reviews)
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ragged row", "a,b\n1,2,3\n"},
		{"bare quote", "a,b\n1,\"x\"y\n"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
		})
	}
}

func TestReadFileReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := ReadFile(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestHeaderOnlyTable(t *testing.T) {
	tbl := mustRead(t, "price,longitude\n")

	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []string{"price", "longitude"}, tbl.Names())

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.Equal(t, "price,longitude\n", buf.String())
}

func TestRequire(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.NoError(t, tbl.Require("price", "latitude"))

	err := tbl.Require("price", "room_type", "host_id")
	var mc *MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "room_type", mc.Column)
}

func TestFilterDoesNotTouchSource(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	out, err := tbl.Filter("id", func(v string) bool { return v != "2" })
	require.NoError(t, err)

	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 3, tbl.Len())
	ids, _ := out.Column("id")
	assert.Equal(t, []string{"1", "3"}, ids)
}

func TestFilterNothingKept(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	out, err := tbl.Filter("id", func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, tbl.Names(), out.Names())
	assert.Equal(t, [][]string{tbl.Names()}, out.Records())
}

func TestFilterMissingColumn(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	_, err := tbl.Filter("room_type", func(string) bool { return true })
	var mc *MissingColumnError
	assert.True(t, errors.As(err, &mc))
}

func TestSelectMaskLength(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	_, err := tbl.Select([]bool{true})
	assert.Error(t, err)
}

func TestReplace(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	out, err := tbl.Replace("last_review", []string{"2019-05-21", "", ""})
	require.NoError(t, err)

	got, _ := out.Column("last_review")
	assert.Equal(t, []string{"2019-05-21", "", ""}, got)
	orig, _ := tbl.Column("last_review")
	assert.Equal(t, "not-a-date", orig[2])
	assert.Equal(t, tbl.Names(), out.Names())

	_, err = tbl.Replace("last_review", []string{"x"})
	assert.Error(t, err)
}

func TestWriteFileRoundTrip(t *testing.T) {
	tbl := mustRead(t, sampleCSV)
	path := filepath.Join(t.TempDir(), "out", "clean_sample.csv")

	require.NoError(t, tbl.WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "id,name,price,longitude,latitude,last_review", lines[0])
	assert.Equal(t, `1,"Cozy, bright room",50,-73.9,40.7,2019-05-21`, lines[1])

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Records(), back.Records())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestHeadersKeptAsRead(t *testing.T) {
	tests := []struct {
		name   string
		header string
		row    string
		price  string
	}{
		{"duplicate", "price,price,longitude,latitude,last_review", "50,1,-73.9,40.7,2019-01-01", "50"},
		{"empty", ",price,longitude,latitude,last_review", "7,50,-73.9,40.7,2019-01-01", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, body := range []string{tt.header + "\n", tt.header + "\n" + tt.row + "\n"} {
				tbl := mustRead(t, body)

				assert.Equal(t, strings.Split(tt.header, ","), tbl.Names())
				require.NoError(t, tbl.Require("price", "longitude", "latitude", "last_review"))

				var buf bytes.Buffer
				require.NoError(t, tbl.Write(&buf))
				assert.Equal(t, body, buf.String())
			}

			tbl := mustRead(t, tt.header+"\n"+tt.row+"\n")
			price, err := tbl.Column("price")
			require.NoError(t, err)
			assert.Equal(t, []string{tt.price}, price)

			out, err := tbl.Replace("last_review", []string{""})
			require.NoError(t, err)
			assert.Equal(t, strings.Split(tt.header, ","), out.Records()[0])
		})
	}
}

func TestListings(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	ls := tbl.Listings()
	require.Len(t, ls, 3)

	assert.Equal(t, "1", ls[0].ID)
	assert.Equal(t, "Cozy, bright room", ls[0].Name)
	assert.Equal(t, 50.0, ls[0].Price)
	assert.Equal(t, -73.9, ls[0].Longitude)
	require.NotNil(t, ls[0].LastReview)
	assert.Equal(t, "2019-05-21", ls[0].LastReview.Format("2006-01-02"))

	assert.Nil(t, ls[1].LastReview)
	assert.Nil(t, ls[2].LastReview)
	assert.Empty(t, ls[0].RoomType)
}
