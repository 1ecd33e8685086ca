package sales

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrDatasetNotFound indicates the CSV source does not exist.
	ErrDatasetNotFound = errors.New("sales: dataset not found")
	// ErrMissingColumns indicates required headers are absent from the CSV.
	ErrMissingColumns = errors.New("sales: required columns missing")
	// ErrUnknownEncoding indicates an unsupported source encoding name.
	ErrUnknownEncoding = errors.New("sales: unknown encoding")
)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadOptions controls how the CSV source is decoded and mapped.
type LoadOptions struct {
	Columns  ColumnMap
	Encoding string
}

// Dataset is the immutable snapshot every request reads from. It is built once
// at startup and never mutated afterwards.
type Dataset struct {
	id      string
	columns []string
	roles   []Role
	records []Record
	minDate time.Time
	maxDate time.Time
}

// LoadDataset reads and parses the CSV file at path.
func LoadDataset(ctx context.Context, path string, opts LoadOptions) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("sales: read %s: %w", path, err)
	}
	return ParseDataset(bytes.NewReader(raw), opts)
}

// ParseDataset decodes a CSV stream into a Dataset.
func ParseDataset(r io.Reader, opts LoadOptions) (*Dataset, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("sales: read dataset: %w", err)
	}
	text := raw
	if enc != nil {
		text, _, err = transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("sales: decode %s: %w", opts.Encoding, err)
		}
	}
	text = bytes.TrimPrefix(text, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(text))
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return nil, fmt.Errorf("sales: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	columns := opts.Columns
	if columns == (ColumnMap{}) {
		columns = DefaultColumns()
	}
	var missing []string
	for _, name := range columns.required() {
		if !slices.Contains(header, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	roles := make([]Role, len(header))
	for i, name := range header {
		roles[i] = columns.RoleOf(name)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sales: read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		record, err := RecordFromFields(row, roles)
		if err != nil {
			return nil, fmt.Errorf("sales: line %d: %w", line, err)
		}
		records = append(records, record)
	}

	return NewDataset(header, roles, records, fingerprint(raw)), nil
}

// NewDataset assembles a snapshot from already parsed records.
func NewDataset(columns []string, roles []Role, records []Record, id string) *Dataset {
	ds := &Dataset{
		id:      id,
		columns: slices.Clone(columns),
		roles:   slices.Clone(roles),
		records: records,
	}
	for i, record := range records {
		if i == 0 || record.Date.Before(ds.minDate) {
			ds.minDate = record.Date
		}
		if i == 0 || record.Date.After(ds.maxDate) {
			ds.maxDate = record.Date
		}
	}
	return ds
}

// RecordFromFields parses one row according to the column roles.
func RecordFromFields(row []string, roles []Role) (Record, error) {
	record := Record{Fields: slices.Clone(row)}
	for i, role := range roles {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		switch role {
		case RoleDate:
			date, err := ParseDate(value)
			if err != nil {
				return Record{}, err
			}
			record.Date = date
		case RoleProduct:
			record.Product = value
		case RoleSeller:
			record.Seller = value
		case RoleRegion:
			record.Region = value
		case RoleAmount:
			amount, err := ParseAmount(value)
			if err != nil {
				return Record{}, err
			}
			record.Amount = amount
		}
	}
	return record, nil
}

// ParseDate parses a day-first date, dropping any time component.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// ParseAmount parses a monetary cell. Both 1234.56 and 1.234,56 are accepted;
// an empty cell counts as zero.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "R$"))
	if value == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
}

func fingerprint(raw []byte) string {
	digest := blake2b.Sum256(raw)
	return uuid.NewSHA1(uuid.NameSpaceOID, digest[:]).String()
}

// ID identifies the snapshot content; equal files share an ID.
func (d *Dataset) ID() string { return d.id }

// Columns returns the header in its natural order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// Roles returns the role of each column, aligned with Columns.
func (d *Dataset) Roles() []Role { return slices.Clone(d.roles) }

// Layout returns the column names and roles used to render records. Datasets
// assembled without a header fall back to the five core columns.
func (d *Dataset) Layout() ([]string, []Role) {
	if len(d.columns) > 0 && len(d.columns) == len(d.roles) {
		return d.Columns(), d.Roles()
	}
	return DefaultColumns().required(), []Role{RoleDate, RoleProduct, RoleSeller, RoleRegion, RoleAmount}
}

// Records exposes the snapshot rows. Callers must treat the slice as read-only.
func (d *Dataset) Records() []Record { return d.records }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// MinDate returns the earliest record date, zero when empty.
func (d *Dataset) MinDate() time.Time { return d.minDate }

// MaxDate returns the latest record date, zero when empty.
func (d *Dataset) MaxDate() time.Time { return d.maxDate }

// DefaultCriteria selects every record: no dimension restriction and the full
// date span of the snapshot.
func (d *Dataset) DefaultCriteria() Criteria {
	return Criteria{Start: d.minDate, End: d.maxDate}
}

// Products lists distinct products, sorted.
func (d *Dataset) Products() []string {
	return d.distinct(func(r Record) string { return r.Product })
}

// Sellers lists distinct sellers, sorted.
func (d *Dataset) Sellers() []string {
	return d.distinct(func(r Record) string { return r.Seller })
}

// Regions lists distinct regions, sorted.
func (d *Dataset) Regions() []string {
	return d.distinct(func(r Record) string { return r.Region })
}

func (d *Dataset) distinct(field func(Record) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, record := range d.records {
		v := field(record)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
