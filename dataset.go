package fpgrowth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-reflect"
	"github.com/oarkflow/filters"
	"github.com/oarkflow/json"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"

	"github.com/oarkflow/fpgrowth/utils"
)

// GenericRecord is one raw row from a record-shaped transaction source.
type GenericRecord map[string]any

// Items renders a record as transaction items in "field=value" form over the
// selected fields. Keys are walked in sorted order so the same record always
// yields the same item sequence; slice-valued fields contribute one item per
// element.
func (rec GenericRecord) Items(fieldsToInclude []string, except []string) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var items []string
	for _, k := range keys {
		if len(fieldsToInclude) > 0 && !slices.Contains(fieldsToInclude, k) {
			continue
		}
		if len(except) > 0 && slices.Contains(except, k) {
			continue
		}
		switch val := rec[k].(type) {
		case []any:
			for _, el := range val {
				items = append(items, k+"="+utils.ToString(el))
			}
		default:
			items = append(items, k+"="+utils.ToString(val))
		}
	}
	return items
}

// DBConfig describes a database-backed transaction source.
type DBConfig struct {
	DBType  string `json:"type,omitempty"`
	DBHost  string `json:"host,omitempty"`
	DBPort  int    `json:"port,omitempty"`
	DBUser  string `json:"user,omitempty"`
	DBPass  string `json:"password,omitempty"`
	DBName  string `json:"database,omitempty"`
	DBQuery string `json:"query,omitempty"`
}

// DBRequest loads transactions from an already-open database handle.
type DBRequest struct {
	DB    *squealx.DB
	Query string
}

// LoadRequest is the wire form accepted by the HTTP build endpoint.
type LoadRequest struct {
	Path     string          `json:"path"`
	Data     [][]string      `json:"data"`
	Records  []GenericRecord `json:"records,omitempty"`
	Database *DBConfig       `json:"database,omitempty"`
}

// Filter is one record-level condition applied while loading.
type Filter struct {
	Field    string           `json:"field"`
	Operator filters.Operator `json:"operator"`
	Value    any              `json:"value"`
	Reverse  bool             `json:"reverse"`
	Lookup   *filters.Lookup  `json:"lookup"`
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFields restricts record conversion to the given fields.
func WithFields(fields ...string) LoaderOption {
	return func(l *Loader) {
		l.fields = fields
	}
}

// WithFieldsExcept excludes the given fields from record conversion.
func WithFieldsExcept(except ...string) LoaderOption {
	return func(l *Loader) {
		l.except = except
	}
}

// WithRule drops source records that do not match the rule.
func WithRule(rule *filters.Rule) LoaderOption {
	return func(l *Loader) {
		l.rule = rule
	}
}

// WithCondition drops source records not matching the SQL-style condition;
// parsed on first load.
func WithCondition(condition string) LoaderOption {
	return func(l *Loader) {
		l.condition = condition
	}
}

// WithFilters builds the record rule from individual conditions joined by the
// given boolean.
func WithFilters(operator filters.Boolean, reverse bool, conditions ...Filter) LoaderOption {
	return func(l *Loader) {
		l.boolean = operator
		l.reverse = reverse
		l.filters = conditions
	}
}

// Loader normalizes transaction sources (JSON streams, files, records,
// struct slices, SQL result sets) into item slices for the miner. It neither
// deduplicates nor orders items: preprocessing belongs to the miner.
type Loader struct {
	fields    []string
	except    []string
	rule      *filters.Rule
	condition string
	filters   []Filter
	boolean   filters.Boolean
	reverse   bool
}

// NewLoader returns a configured Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// compileRule folds the condition string and condition list into l.rule.
func (l *Loader) compileRule() (*filters.Rule, error) {
	if l.rule != nil {
		return l.rule, nil
	}
	if l.condition != "" {
		rule, err := filters.ParseSQL(l.condition)
		if err != nil {
			return nil, fmt.Errorf("error parsing condition: %v", err)
		}
		l.rule = rule
		return rule, nil
	}
	if len(l.filters) > 0 {
		var conditions []filters.Condition
		for _, f := range l.filters {
			conditions = append(conditions, &filters.Filter{
				Field:    f.Field,
				Operator: f.Operator,
				Value:    f.Value,
				Reverse:  f.Reverse,
				Lookup:   f.Lookup,
			})
		}
		rule := filters.NewRule()
		rule.AddCondition(l.boolean, l.reverse, conditions...)
		l.rule = rule
		return rule, nil
	}
	return nil, nil
}

// Load dispatches on the input shape the way the index builder does: JSON
// text, readers, file paths, raw transactions, records, struct slices and
// database sources are all accepted.
func (l *Loader) Load(ctx context.Context, input any) ([][]string, error) {
	switch v := input.(type) {
	case [][]string:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			return l.FromReader(ctx, strings.NewReader(v))
		}
		return l.FromFile(ctx, v)
	case []byte:
		return l.FromReader(ctx, bytes.NewReader(v))
	case io.Reader:
		return l.FromReader(ctx, v)
	case DBRequest:
		return l.FromDatabase(ctx, v)
	case []GenericRecord:
		return l.FromRecords(ctx, v)
	case LoadRequest:
		if v.Database != nil {
			db, _, err := connection.FromConfig(squealx.Config{
				Host:     v.Database.DBHost,
				Port:     v.Database.DBPort,
				Driver:   v.Database.DBType,
				Username: v.Database.DBUser,
				Password: v.Database.DBPass,
				Database: v.Database.DBName,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to connect to database: %v", err)
			}
			defer db.Close()
			return l.FromDatabase(ctx, DBRequest{DB: db, Query: v.Database.DBQuery})
		}
		if v.Path != "" {
			return l.FromFile(ctx, v.Path)
		}
		if len(v.Records) > 0 {
			return l.FromRecords(ctx, v.Records)
		}
		if len(v.Data) > 0 {
			return v.Data, nil
		}
		return nil, fmt.Errorf("no data, path, or database config provided")
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			return l.FromStructs(ctx, v)
		}
	}
	return nil, fmt.Errorf("unsupported input type: %T", input)
}

// FromReader decodes a JSON array incrementally. Elements may be arrays of
// items or record objects; objects pass through the configured filters and
// render as field=value items.
func (l *Loader) FromReader(ctx context.Context, r io.Reader) ([][]string, error) {
	rule, err := l.compileRule()
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	tok, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON token: %v", err)
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '[' {
		return nil, fmt.Errorf("invalid JSON array, expected '[' got %v", tok)
	}
	var transactions [][]string
	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var element any
		if err := decoder.Decode(&element); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		switch el := element.(type) {
		case []any:
			transaction := make([]string, 0, len(el))
			for _, item := range el {
				transaction = append(transaction, utils.ToString(item))
			}
			transactions = append(transactions, transaction)
		case map[string]any:
			rec := GenericRecord(el)
			if rule != nil && !rule.Match(rec) {
				continue
			}
			transactions = append(transactions, rec.Items(l.fields, l.except))
		default:
			return nil, fmt.Errorf("unsupported transaction element %T", element)
		}
	}
	return transactions, nil
}

// FromFile loads a JSON transaction file.
func (l *Loader) FromFile(ctx context.Context, path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return l.FromReader(ctx, file)
}

// FromRecords converts record rows into transactions.
func (l *Loader) FromRecords(ctx context.Context, records []GenericRecord) ([][]string, error) {
	rule, err := l.compileRule()
	if err != nil {
		return nil, err
	}
	transactions := make([][]string, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rule != nil && !rule.Match(rec) {
			continue
		}
		transactions = append(transactions, rec.Items(l.fields, l.except))
	}
	return transactions, nil
}

// FromDatabase runs the query and converts each row into a transaction.
func (l *Loader) FromDatabase(ctx context.Context, req DBRequest) ([][]string, error) {
	if req.DB == nil {
		return nil, fmt.Errorf("no database provided")
	}
	if req.Query == "" {
		return nil, fmt.Errorf("no query provided")
	}
	rule, err := l.compileRule()
	if err != nil {
		return nil, err
	}
	var transactions [][]string
	err = squealx.SelectEach(req.DB, func(row map[string]any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := GenericRecord(row)
		if rule != nil && !rule.Match(rec) {
			return nil
		}
		transactions = append(transactions, rec.Items(l.fields, l.except))
		return nil
	}, req.Query)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// FromStructs converts a slice of structs (or maps) by round-tripping each
// element through JSON into a record.
func (l *Loader) FromStructs(ctx context.Context, slice any) ([][]string, error) {
	v := reflect.ValueOf(slice)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("not a slice")
	}
	records := make([]GenericRecord, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		b, err := json.Marshal(v.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("error marshalling element %d: %v", i, err)
		}
		var rec GenericRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("error unmarshalling element %d: %v", i, err)
		}
		records = append(records, rec)
	}
	return l.FromRecords(ctx, records)
}
