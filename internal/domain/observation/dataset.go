package observation

import (
	"sort"
	"strings"
)

// Dataset is an immutable, indexed view of all observations.
// Built once per process and shared read-only between requests.
type Dataset struct {
	rows     []Observation
	byRegion map[string][]int
	regions  []string
	headers  []string
}

// NewDataset indexes rows by region. Row order is preserved.
func NewDataset(rows []Observation, headers []string) *Dataset {
	d := &Dataset{
		rows:     rows,
		byRegion: make(map[string][]int),
		headers:  headers,
	}

	for i, r := range rows {
		if _, ok := d.byRegion[r.Region]; !ok {
			d.regions = append(d.regions, r.Region)
		}
		d.byRegion[r.Region] = append(d.byRegion[r.Region], i)
	}
	sort.Strings(d.regions)

	return d
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns all observations in file order
func (d *Dataset) Rows() []Observation {
	return d.rows
}

// Headers returns the source column headers
func (d *Dataset) Headers() []string {
	return d.headers
}

// HasColumn reports whether the source carried a header for the canonical column
func (d *Dataset) HasColumn(c Column) bool {
	for _, h := range d.headers {
		if col, ok := ResolveColumn(h); ok && col == c {
			return true
		}
	}
	return false
}

// Regions returns distinct region names sorted ascending
func (d *Dataset) Regions() []string {
	return d.regions
}

// FindRegion resolves a region name case-insensitively
func (d *Dataset) FindRegion(name string) (string, bool) {
	if _, ok := d.byRegion[name]; ok {
		return name, true
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, r := range d.regions {
		if strings.ToLower(r) == needle {
			return r, true
		}
	}
	return "", false
}

// Latest returns the region's observation with the greatest year.
// On equal years the later row in file order wins.
func (d *Dataset) Latest(region string) (Observation, bool) {
	idx, ok := d.byRegion[region]
	if !ok || len(idx) == 0 {
		return Observation{}, false
	}

	best := idx[0]
	for _, i := range idx[1:] {
		if d.rows[i].Year >= d.rows[best].Year {
			best = i
		}
	}
	return d.rows[best], true
}

// History returns the region's observations ordered by year ascending
func (d *Dataset) History(region string) []Observation {
	idx := d.byRegion[region]
	out := make([]Observation, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.rows[i])
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Year < out[b].Year })
	return out
}
