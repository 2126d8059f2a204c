package output

import (
	"bytes"
	"testing"
	"time"

	"geomancer/core/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *merge.Table {
	return &merge.Table{
		Header: []string{"Name", "City", "Total Population (City)"},
		Rows: [][]any{
			{"Alice", "Chicago, IL", 2700000},
			{"Bob", "", ""},
			{"Carol", "Peoria, IL", 112.5},
		},
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFor("a.xlsx"))
	assert.Equal(t, FormatXLSX, FormatFor("a.XLSM"))
	assert.Equal(t, FormatCSV, FormatFor("a.xls"))
	assert.Equal(t, FormatCSV, FormatFor("a.csv"))
	assert.Equal(t, FormatCSV, FormatFor("noext"))
	assert.Equal(t, ContentTypeXLSX, ContentType("x.xlsx"))
	assert.Equal(t, ContentTypeCSV, ContentType("x.csv"))
}

func TestEncode_CSV(t *testing.T) {
	data, err := Encode(FormatCSV, sampleTable())
	require.NoError(t, err)
	assert.Equal(t,
		"Name,City,Total Population (City)\nAlice,\"Chicago, IL\",2700000\nBob,,\nCarol,\"Peoria, IL\",112.5\n",
		string(data))
}

func TestEncode_XLSX(t *testing.T) {
	data, err := Encode(FormatXLSX, sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "City", "Total Population (City)"}, rows[0])
	assert.Equal(t, []string{"Alice", "Chicago, IL", "2700000"}, rows[1])
	assert.Equal(t, "112.5", rows[3][2])
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(".ods", sampleTable())
	assert.Error(t, err)
}

func TestArtifactName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("CST", -6*3600))

	tests := []struct {
		in   string
		want string
	}{
		{"cities.csv", "cities_20240305T203000Z_0123abcd.csv"},
		{"Counties 2020.xlsx", "Counties_2020_20240305T203000Z_0123abcd.xlsx"},
		{"../../etc/passwd", "passwd_20240305T203000Z_0123abcd.csv"},
		{".xlsx", "geomancer_20240305T203000Z_0123abcd.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.in, now, "0123abcd-ffff-4000-8000-000000000000"))
		})
	}
}
