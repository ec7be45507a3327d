package observation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(region string, year int, rainfall float64) Observation {
	o := NewObservation(region, year)
	o.Set("curah_hujan_mm", rainfall)
	return o
}

func TestDataset_RegionsSortedAndDistinct(t *testing.T) {
	d := NewDataset([]Observation{
		obs("Kota Bogor", 2020, 1),
		obs("Kab. Bandung", 2020, 2),
		obs("Kota Bogor", 2021, 3),
	}, nil)

	assert.Equal(t, []string{"Kab. Bandung", "Kota Bogor"}, d.Regions())
	assert.Equal(t, 3, d.Len())
}

func TestDataset_LatestPicksMaxYear(t *testing.T) {
	d := NewDataset([]Observation{
		obs("Kota Bogor", 2022, 10),
		obs("Kota Bogor", 2019, 20),
		obs("Kota Bogor", 2021, 30),
	}, nil)

	latest, ok := d.Latest("Kota Bogor")
	require.True(t, ok)
	assert.Equal(t, 2022, latest.Year)
	assert.Equal(t, 10.0, latest.Rainfall)

	_, ok = d.Latest("Atlantis")
	assert.False(t, ok)
}

func TestDataset_LatestTieUsesLastRow(t *testing.T) {
	d := NewDataset([]Observation{
		obs("Kota Bogor", 2022, 10),
		obs("Kota Bogor", 2022, 99),
	}, nil)

	latest, ok := d.Latest("Kota Bogor")
	require.True(t, ok)
	assert.Equal(t, 99.0, latest.Rainfall)
}

func TestDataset_HistoryOrderedByYear(t *testing.T) {
	d := NewDataset([]Observation{
		obs("Kota Bogor", 2022, 1),
		obs("Kota Bogor", 2020, 2),
		obs("Kota Bogor", 2021, 3),
	}, nil)

	hist := d.History("Kota Bogor")
	require.Len(t, hist, 3)
	assert.Equal(t, []int{2020, 2021, 2022}, []int{hist[0].Year, hist[1].Year, hist[2].Year})
}

func TestDataset_FindRegionCaseInsensitive(t *testing.T) {
	d := NewDataset([]Observation{obs("Kota Bogor", 2020, 1)}, nil)

	name, ok := d.FindRegion("  kota bogor ")
	require.True(t, ok)
	assert.Equal(t, "Kota Bogor", name)
}

func TestDataset_HasColumn(t *testing.T) {
	d := NewDataset(nil, []string{"Kabupaten/Kota", "Tahun", "IR"})

	assert.True(t, d.HasColumn(ColumnIncidence))
	assert.False(t, d.HasColumn(ColumnSanitation))
}

func TestObservation_ValueResolution(t *testing.T) {
	o := NewObservation("Kota Bogor", 2022)
	o.Set("IR", 42)
	o.Set("suhu_rata_rata", 27.5)

	assert.Equal(t, 42.0, o.Incidence)

	v, ok := o.Value("incidence_rate")
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = o.Value("suhu_rata_rata")
	require.True(t, ok)
	assert.Equal(t, 27.5, v)

	v, ok = o.Value("akses_sanitasi_layak_persen")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))

	v, ok = o.Value("Tahun")
	require.True(t, ok)
	assert.Equal(t, 2022.0, v)
}

func TestObservation_JSONMissingValuesAreNull(t *testing.T) {
	o := NewObservation("Kota Bogor", 2022)
	o.Set("curah_hujan_mm", 2150)

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"curah_hujan_mm":2150`)
	assert.Contains(t, string(data), `"incidence_rate":null`)

	var decoded Observation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2150.0, decoded.Rainfall)
	assert.True(t, math.IsNaN(decoded.Incidence))
}
