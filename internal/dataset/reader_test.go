package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/homemetric/valuation-cli/internal/model"
)

const sampleCSV = `area,bedrooms,bathrooms,stories,parking,mainroad,guestroom,basement,hotwaterheating,airconditioning,prefarea,furnishingstatus,city
2400,4,3,2,2,yes,no,yes,no,yes,no,semi-furnished,Pune
1200,2,1,1,0,no,no,no,no,no,no,unfurnished,Mumbai
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPropertiesCSV(t *testing.T) {
	props, err := ReadProperties(writeTempCSV(t, sampleCSV))
	require.NoError(t, err)
	require.Len(t, props, 2)

	first := props[0]
	assert.Equal(t, 2400.0, first.Area)
	assert.Equal(t, 4, first.Bedrooms)
	assert.Equal(t, 3, first.Bathrooms)
	assert.True(t, first.MainRoad)
	assert.False(t, first.GuestRoom)
	assert.True(t, first.Basement)
	assert.True(t, first.AirConditioning)
	assert.Equal(t, model.FurnishingSemiFurnished, first.FurnishingStatus)
	assert.Equal(t, "Pune", first.City)

	second := props[1]
	assert.Equal(t, 1200.0, second.Area)
	assert.Equal(t, model.FurnishingUnfurnished, second.FurnishingStatus)
	assert.Equal(t, "Mumbai", second.City)
}

func TestReadPropertiesColumnOrderIrrelevant(t *testing.T) {
	csvData := `city,area,airconditioning,bedrooms
Kochi,1800,yes,3
`
	props, err := ReadProperties(writeTempCSV(t, csvData))
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "Kochi", props[0].City)
	assert.Equal(t, 1800.0, props[0].Area)
	assert.True(t, props[0].AirConditioning)
	assert.Equal(t, 3, props[0].Bedrooms)
}

func TestReadPropertiesXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("properties")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, name := range []string{"area", "bedrooms", "mainroad", "furnishingstatus", "city"} {
		header.AddCell().SetString(name)
	}
	row := sheet.AddRow()
	row.AddCell().SetFloat(2400)
	row.AddCell().SetInt(4)
	row.AddCell().SetString("yes")
	row.AddCell().SetString("furnished")
	row.AddCell().SetString("Pune")

	path := filepath.Join(t.TempDir(), "properties.xlsx")
	require.NoError(t, f.Save(path))

	props, err := ReadProperties(path)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, 2400.0, props[0].Area)
	assert.Equal(t, 4, props[0].Bedrooms)
	assert.True(t, props[0].MainRoad)
	assert.Equal(t, model.FurnishingFurnished, props[0].FurnishingStatus)
}

func TestReadPropertiesErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"header only", "area,bedrooms\n"},
		{"bad number", "area\nnot-a-number\n"},
		{"bad boolean", "mainroad\nmaybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProperties(writeTempCSV(t, tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestReadPropertiesUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := ReadProperties(path)
	assert.Error(t, err)
}

func TestReadPropertiesMissingFile(t *testing.T) {
	_, err := ReadProperties(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
