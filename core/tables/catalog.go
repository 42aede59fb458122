package tables

import (
	"sort"
	"strings"
)

// Catalog answers cascading vehicle selection queries over the vehicle database
type Catalog struct {
	records []VehicleRecord
}

// Catalog returns a catalog over the loaded vehicles
func (s *Set) Catalog() *Catalog {
	return &Catalog{records: s.vehicles}
}

// Years returns every model year, ascending
func (c *Catalog) Years() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range c.records {
		if !seen[r.Year] {
			seen[r.Year] = true
			out = append(out, r.Year)
		}
	}
	sort.Ints(out)
	return out
}

// Makes returns the makes available for a year
func (c *Catalog) Makes(year int) []string {
	return c.distinct(func(r VehicleRecord) (string, bool) {
		return r.Make, r.Year == year
	})
}

// Models returns the models of a make in a year
func (c *Catalog) Models(year int, vehicleMake string) []string {
	return c.distinct(func(r VehicleRecord) (string, bool) {
		return r.Model, r.Year == year && normalize(r.Make) == normalize(vehicleMake)
	})
}

// Trims returns every record of a year/make/model
func (c *Catalog) Trims(year int, vehicleMake, model string) []VehicleRecord {
	var out []VehicleRecord
	for _, r := range c.records {
		if r.Year == year && normalize(r.Make) == normalize(vehicleMake) && normalize(r.Model) == normalize(model) {
			out = append(out, r)
		}
	}
	return out
}

// Search filters by optional year and case-insensitive make/model substrings
func (c *Catalog) Search(year int, vehicleMake, model string) []VehicleRecord {
	vehicleMake = strings.ToUpper(strings.TrimSpace(vehicleMake))
	model = strings.ToUpper(strings.TrimSpace(model))

	var out []VehicleRecord
	for _, r := range c.records {
		if year != 0 && r.Year != year {
			continue
		}
		if vehicleMake != "" && !strings.Contains(r.Make, vehicleMake) {
			continue
		}
		if model != "" && !strings.Contains(r.Model, model) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *Catalog) distinct(pick func(VehicleRecord) (string, bool)) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.records {
		v, ok := pick(r)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
