package tables

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"auto-rating/core/determinism"
	"auto-rating/core/types"
	"auto-rating/internal/errors"
	"auto-rating/internal/logging"
)

//go:embed data/*.csv
var bundled embed.FS

// LoadBundled loads the tables compiled into the binary
func LoadBundled() (*Set, error) {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		return nil, errors.Internal("bundled tables unavailable", err)
	}
	return Load(sub)
}

// LoadDir loads tables from a directory of CSV files
func LoadDir(dir string) (*Set, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Config("tables directory unavailable: "+dir, err)
	}
	return Load(os.DirFS(dir))
}

// loader reads CSVs from one filesystem and hashes them in read order
type loader struct {
	fsys   fs.FS
	digest []byte
}

type tableFile struct {
	name  string
	parse func(s *Set, header []string, rows [][]string) error
}

var tableFiles = []tableFile{
	{"base_rates.csv", parseBaseRates},
	{"territory_factors.csv", parseTerritory},
	{"vehicle_rating_groups.csv", parseVehicles},
	{"msrp_rating_groups.csv", parseMSRPBrackets},
	{"model_year_factors.csv", func(s *Set, h []string, r [][]string) (err error) {
		s.modelYear, err = parseBands(h, r)
		return err
	}},
	{"lrg_factors.csv", parseLRG},
	{"driver_base_factors.csv", parseDriverBase},
	{"years_licensed_factors.csv", parseYearsLicensed},
	{"percentage_use_factors.csv", parsePercentageUse},
	{"safety_record_factors.csv", parseSafetyFactors},
	{"safety_record_bands.csv", parseSafetyBands},
	{"violation_schedule.csv", parseViolations},
	{"single_auto_factors.csv", parseSingleAuto},
	{"annual_mileage_factors.csv", func(s *Set, h []string, r [][]string) (err error) {
		s.mileage, err = parseBands(h, r)
		return err
	}},
	{"usage_type_factors.csv", parseUsage},
	{"bi_limits.csv", limitParser(LimitBI)},
	{"pd_limits.csv", limitParser(LimitPD)},
	{"um_limits.csv", limitParser(LimitUM)},
	{"mpc_limits.csv", limitParser(LimitMPC)},
	{"drg_deductible_factors.csv", deductibleParser(types.CoverageCOLL)},
	{"grg_deductible_factors.csv", deductibleParser(types.CoverageCOMP)},
	{"loyalty_factors.csv", func(s *Set, h []string, r [][]string) (err error) {
		s.loyalty, err = parseBands(h, r)
		return err
	}},
	{"discount_factors.csv", parseDiscounts},
}

// Load builds a complete Set from the CSV files in fsys.
// Any missing file, malformed row or non-positive factor fails the whole load.
func Load(fsys fs.FS) (*Set, error) {
	l := &loader{fsys: fsys}
	s := &Set{
		territory:     make(map[string]coverageFactors),
		vehicleIndex:  make(map[string]int),
		lrg:           make(map[int]coverageFactors),
		driverBase:    make(map[types.MaritalStatus]*bandTable),
		yearsLicensed: make(map[bool]*bandTable),
		percentageUse: make(map[string]coverageFactors),
		safetyFactors: make(map[int]coverageFactors),
		violations:    make(map[types.ViolationType]ViolationRule),
		singleAuto:    make(map[bool]coverageFactors),
		usage:         make(map[types.UsageType]coverageFactors),
		limits:        make(map[LimitTable]map[string]decimal.Decimal),
		limitOrder:    make(map[LimitTable][]string),
		deductibles:   make(map[types.CoverageType]*deductibleTable),
		discounts:     make(map[DiscountKind]coverageFactors),
		raw:           make(map[string]FactorTable),
	}

	for _, tf := range tableFiles {
		header, rows, err := l.read(tf.name)
		if err != nil {
			return nil, err
		}
		if err := tf.parse(s, header, rows); err != nil {
			return nil, errors.Parsing("invalid table "+tf.name, err)
		}
		name := strings.TrimSuffix(tf.name, ".csv")
		s.raw[name] = FactorTable{Name: name, Columns: header, Rows: rows}
	}

	for _, c := range types.AllCoverages {
		if _, ok := s.baseRates[c]; !ok {
			return nil, errors.Newf(errors.TypeParsing, "base_rates.csv has no rate for %s", c)
		}
	}

	s.version = determinism.ComputeHash(l.digest).Short()

	logging.Info("rating tables loaded",
		zap.String("version", s.version),
		zap.Int("vehicles", len(s.vehicles)),
		zap.Int("territories", len(s.territory)))

	return s, nil
}

func (l *loader) read(name string) ([]string, [][]string, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, nil, errors.Parsing("missing table "+name, err)
	}

	sum := sha256.Sum256(append([]byte(name+"\x00"), data...))
	l.digest = append(l.digest, sum[:]...)

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Parsing("malformed table "+name, err)
	}
	if len(records) == 0 {
		return nil, nil, errors.Parsing("empty table "+name, nil)
	}
	return records[0], records[1:], nil
}

// coverageColumns maps header columns from index start onwards to coverages
func coverageColumns(header []string, start int) ([]types.CoverageType, error) {
	cols := make([]types.CoverageType, 0, len(header)-start)
	for _, h := range header[start:] {
		c, ok := types.ParseCoverage(h)
		if !ok {
			return nil, fmt.Errorf("unknown coverage column %q", h)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func parseFactor(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid factor %q: %w", v, err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive factor %s", d)
	}
	return d, nil
}

func parseRow(cols []types.CoverageType, values []string) (coverageFactors, error) {
	if len(values) != len(cols) {
		return nil, fmt.Errorf("expected %d factor columns, got %d", len(cols), len(values))
	}
	row := make(coverageFactors, len(cols))
	for i, c := range cols {
		f, err := parseFactor(values[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		row[c] = f
	}
	return row, nil
}

// wideRows parses a table keyed by its first keyCols columns with one factor column per coverage
func wideRows(header []string, rows [][]string, keyCols int, fn func(key []string, row coverageFactors) error) error {
	cols, err := coverageColumns(header, keyCols)
	if err != nil {
		return err
	}
	for i, rec := range rows {
		if len(rec) < keyCols {
			return fmt.Errorf("line %d: too few columns", i+2)
		}
		row, err := parseRow(cols, rec[keyCols:])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		if err := fn(rec[:keyCols], row); err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
	}
	return nil
}

func parseBands(header []string, rows [][]string) (*bandTable, error) {
	b := &bandTable{}
	seen := make(map[int]bool)
	err := wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		min, err := strconv.Atoi(strings.TrimSpace(key[0]))
		if err != nil {
			return err
		}
		if seen[min] {
			return fmt.Errorf("duplicate band %d", min)
		}
		seen[min] = true
		b.add(min, row)
		return nil
	})
	return b, err
}

func parseBaseRates(s *Set, header []string, rows [][]string) error {
	s.baseRates = make(coverageFactors)
	for i, rec := range rows {
		if len(rec) != 2 {
			return fmt.Errorf("line %d: expected coverage,base_rate", i+2)
		}
		c, ok := types.ParseCoverage(rec[0])
		if !ok {
			return fmt.Errorf("line %d: unknown coverage %q", i+2, rec[0])
		}
		rate, err := parseFactor(rec[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		s.baseRates[c] = rate
	}
	return nil
}

func parseTerritory(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		s.territory[strings.TrimSpace(key[0])] = row
		return nil
	})
}

func parseVehicles(s *Set, header []string, rows [][]string) error {
	const cols = 12
	for i, rec := range rows {
		if len(rec) != cols {
			return fmt.Errorf("line %d: expected %d columns, got %d", i+2, cols, len(rec))
		}
		nums, err := atois(rec[0], rec[7], rec[8], rec[10])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		r := VehicleRecord{
			Year:    nums[0],
			Make:    strings.ToUpper(strings.TrimSpace(rec[1])),
			Model:   strings.ToUpper(strings.TrimSpace(rec[2])),
			Series:  strings.ToUpper(strings.TrimSpace(rec[3])),
			Package: strings.ToUpper(strings.TrimSpace(rec[4])),
			Style:   strings.ToUpper(strings.TrimSpace(rec[5])),
			Engine:  strings.ToUpper(strings.TrimSpace(rec[6])),
			Group: types.VehicleRatingGroup{
				DRG: nums[1],
				GRG: nums[2],
				VSD: strings.TrimSpace(rec[9]),
				LRG: nums[3],
			},
		}
		if v := strings.TrimSpace(rec[11]); v != "" {
			if r.MSRP, err = strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("line %d: invalid msrp %q", i+2, v)
			}
		}
		if _, dup := s.vehicleIndex[r.Key()]; dup {
			return fmt.Errorf("line %d: duplicate vehicle %s", i+2, r.Key())
		}
		s.vehicleIndex[r.Key()] = -1
		s.vehicles = append(s.vehicles, r)
	}

	sort.Slice(s.vehicles, func(i, j int) bool { return s.vehicles[i].Key() < s.vehicles[j].Key() })
	for i, r := range s.vehicles {
		s.vehicleIndex[r.Key()] = i
	}
	return nil
}

func parseMSRPBrackets(s *Set, header []string, rows [][]string) error {
	for i, rec := range rows {
		if len(rec) != 6 {
			return fmt.Errorf("line %d: expected 6 columns", i+2)
		}
		min, err1 := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		max, err2 := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err1 != nil || err2 != nil || max <= min {
			return fmt.Errorf("line %d: invalid bracket %s-%s", i+2, rec[0], rec[1])
		}
		nums, err := atois(rec[2], rec[3], rec[5])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		s.msrpBrackets = append(s.msrpBrackets, MSRPBracket{
			Min:   min,
			Max:   max,
			Group: types.VehicleRatingGroup{DRG: nums[0], GRG: nums[1], VSD: strings.TrimSpace(rec[4]), LRG: nums[2]},
		})
	}
	sort.Slice(s.msrpBrackets, func(i, j int) bool { return s.msrpBrackets[i].Min < s.msrpBrackets[j].Min })
	return nil
}

func parseLRG(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		code, err := strconv.Atoi(strings.TrimSpace(key[0]))
		if err != nil {
			return err
		}
		s.lrg[code] = row
		return nil
	})
}

const anyMaritalStatus = "ANY"

func parseDriverBase(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 2, func(key []string, row coverageFactors) error {
		status := strings.ToUpper(strings.TrimSpace(key[0]))
		if status == anyMaritalStatus {
			s.driverAny = row
			return nil
		}
		ms := types.MaritalStatus(status)
		if ms != types.MaritalSingle && ms != types.MaritalMarried {
			return fmt.Errorf("unknown marital status %q", key[0])
		}
		minAge, err := strconv.Atoi(strings.TrimSpace(key[1]))
		if err != nil {
			return err
		}
		if s.driverBase[ms] == nil {
			s.driverBase[ms] = &bandTable{}
		}
		s.driverBase[ms].add(minAge, row)
		return nil
	})
}

func parseYearsLicensed(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 2, func(key []string, row coverageFactors) error {
		assigned, err := parseYesNo(key[0])
		if err != nil {
			return err
		}
		minYears, err := strconv.Atoi(strings.TrimSpace(key[1]))
		if err != nil {
			return err
		}
		if s.yearsLicensed[assigned] == nil {
			s.yearsLicensed[assigned] = &bandTable{}
		}
		s.yearsLicensed[assigned].add(minYears, row)
		return nil
	})
}

func parsePercentageUse(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		switch k := strings.TrimSpace(key[0]); k {
		case assignedSole, assignedShared, unassigned:
			s.percentageUse[k] = row
			return nil
		default:
			return fmt.Errorf("unknown assignment %q", k)
		}
	})
}

func parseSafetyFactors(s *Set, header []string, rows [][]string) error {
	err := wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		level, err := strconv.Atoi(strings.TrimSpace(key[0]))
		if err != nil {
			return err
		}
		if level < 0 || level > types.MaxSafetyLevel {
			return fmt.Errorf("safety level %d out of range", level)
		}
		s.safetyFactors[level] = row
		return nil
	})
	if err != nil {
		return err
	}
	if len(s.safetyFactors) != types.MaxSafetyLevel+1 {
		return fmt.Errorf("expected %d safety levels, got %d", types.MaxSafetyLevel+1, len(s.safetyFactors))
	}
	return nil
}

func parseSafetyBands(s *Set, header []string, rows [][]string) error {
	for i, rec := range rows {
		if len(rec) != 2 {
			return fmt.Errorf("line %d: expected min_points,level", i+2)
		}
		min, err := decimal.NewFromString(strings.TrimSpace(rec[0]))
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		level, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil || level < 0 || level > types.MaxSafetyLevel {
			return fmt.Errorf("line %d: invalid level %q", i+2, rec[1])
		}
		s.safetyBands = append(s.safetyBands, safetyBand{minPoints: min, level: level})
	}
	sort.Slice(s.safetyBands, func(i, j int) bool {
		return s.safetyBands[i].minPoints.LessThan(s.safetyBands[j].minPoints)
	})
	return nil
}

func parseViolations(s *Set, header []string, rows [][]string) error {
	for i, rec := range rows {
		if len(rec) != 3 {
			return fmt.Errorf("line %d: expected violation_type,base_points,decay_years", i+2)
		}
		t, ok := types.ParseViolationType(rec[0])
		if !ok {
			return fmt.Errorf("line %d: unknown violation type %q", i+2, rec[0])
		}
		nums, err := atois(rec[1], rec[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		if nums[1] <= 0 {
			return fmt.Errorf("line %d: decay period must be positive", i+2)
		}
		s.violations[t] = ViolationRule{BasePoints: nums[0], DecayYears: nums[1]}
	}
	return nil
}

func parseSingleAuto(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		single, err := strconv.ParseBool(strings.TrimSpace(key[0]))
		if err != nil {
			return err
		}
		s.singleAuto[single] = row
		return nil
	})
}

func parseUsage(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		u, ok := types.ParseUsageType(key[0])
		if !ok {
			return fmt.Errorf("unknown usage type %q", key[0])
		}
		s.usage[u] = row
		return nil
	})
}

func limitParser(table LimitTable) func(*Set, []string, [][]string) error {
	return func(s *Set, header []string, rows [][]string) error {
		factors := make(map[string]decimal.Decimal, len(rows))
		order := make([]string, 0, len(rows))
		for i, rec := range rows {
			if len(rec) != 2 {
				return fmt.Errorf("line %d: expected limit,factor", i+2)
			}
			key := normalizeLimit(rec[0])
			f, err := parseFactor(rec[1])
			if err != nil {
				return fmt.Errorf("line %d: %w", i+2, err)
			}
			factors[key] = f
			order = append(order, key)
		}
		s.limits[table] = factors
		s.limitOrder[table] = order
		return nil
	}
}

func deductibleParser(c types.CoverageType) func(*Set, []string, [][]string) error {
	return func(s *Set, header []string, rows [][]string) error {
		if len(header) < 2 {
			return fmt.Errorf("no deductible columns")
		}
		deductibles, err := atois(header[1:]...)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		t := &deductibleTable{factors: make(map[int]map[int]decimal.Decimal), deductibles: deductibles}
		for i, rec := range rows {
			if len(rec) != len(header) {
				return fmt.Errorf("line %d: expected %d columns", i+2, len(header))
			}
			group, err := strconv.Atoi(strings.TrimSpace(rec[0]))
			if err != nil {
				return fmt.Errorf("line %d: %w", i+2, err)
			}
			row := make(map[int]decimal.Decimal, len(deductibles))
			for j, d := range deductibles {
				f, err := parseFactor(rec[j+1])
				if err != nil {
					return fmt.Errorf("line %d: deductible %d: %w", i+2, d, err)
				}
				row[d] = f
			}
			t.factors[group] = row
		}
		sort.Ints(t.deductibles)
		s.deductibles[c] = t
		return nil
	}
}

func parseDiscounts(s *Set, header []string, rows [][]string) error {
	return wideRows(header, rows, 1, func(key []string, row coverageFactors) error {
		s.discounts[DiscountKind(strings.TrimSpace(key[0]))] = row
		return nil
	})
}

func parseYesNo(v string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "Y", "YES", "TRUE":
		return true, nil
	case "N", "NO", "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("expected Y or N, got %q", v)
	}
}

func atois(values ...string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		out[i] = n
	}
	return out, nil
}
