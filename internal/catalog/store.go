package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/phonepilot/advisor-engine/internal/observability"
)

// Dialect selects the SQL flavor the store emits.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store executes query plans against the phone catalog.
type Store struct {
	db      DB
	dialect Dialect
	log     *observability.Logger
}

// NewStore creates a catalog store for the given connection and dialect.
func NewStore(db DB, dialect Dialect, log *observability.Logger) *Store {
	return &Store{db: db, dialect: dialect, log: log.WithComponent("catalog")}
}

var selectColumns = []string{
	"id", "brand", "model", "price", "release_year", "os", "ram", "storage",
	"display_type", "display_size", "resolution", "refresh_rate",
	"camera_main", "camera_front", "camera_features", "battery", "charging",
	"processor", "connectivity", "sensors", "features", "weight",
	"dimensions", "rating", "stock_status", "category", "colours",
}

// ExecutePlan runs one plan against the catalog, returning at most limit
// rows ordered by rating descending.
func (s *Store) ExecutePlan(ctx context.Context, plan Plan, limit int) ([]Phone, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	query, args, err := s.compile(plan, limit)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("query", query).Int("conditions", len(plan.Conditions)).Msg("executing catalog plan")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing catalog query: %w", err)
	}
	defer rows.Close()

	var phones []Phone
	for rows.Next() {
		phone, err := s.scanPhone(rows)
		if err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog rows: %w", err)
	}
	return phones, nil
}

func (s *Store) compile(plan Plan, limit int) (string, []interface{}, error) {
	var (
		clauses []string
		args    []interface{}
	)

	for _, c := range plan.Conditions {
		clause, clauseArgs, err := s.compileCondition(c, len(args))
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM phones WHERE %s ORDER BY rating DESC LIMIT %d",
		strings.Join(selectColumns, ", "),
		strings.Join(clauses, " AND "),
		limit,
	)
	return query, args, nil
}

// compileCondition renders one condition. offset is the number of arguments
// already bound, for positional placeholder numbering.
func (s *Store) compileCondition(c Condition, offset int) (string, []interface{}, error) {
	kind := Schema[c.Field]

	switch c.Operator {
	case OpEq:
		if kind == FieldArray {
			// Equality on an array field means single-element containment.
			return s.compileContains(c.Field, []string{c.Value.String()}, offset, true)
		}
		if kind == FieldNumeric {
			n, ok := c.Value.Number()
			if !ok {
				return "", nil, fmt.Errorf("%w: eq on %s requires a number", ErrInvalidValue, c.Field)
			}
			return fmt.Sprintf("%s = %s", c.Field, s.placeholder(offset)), []interface{}{n}, nil
		}
		return fmt.Sprintf("%s = %s", c.Field, s.placeholder(offset)), []interface{}{c.Value.String()}, nil

	case OpILike:
		if s.dialect == DialectPostgres {
			return fmt.Sprintf("%s ILIKE %s", c.Field, s.placeholder(offset)), []interface{}{c.Value.String()}, nil
		}
		// SQLite LIKE is case-insensitive for ASCII.
		return fmt.Sprintf("%s LIKE %s", c.Field, s.placeholder(offset)), []interface{}{c.Value.String()}, nil

	case OpLte, OpGte:
		n, ok := c.Value.Number()
		if !ok {
			return "", nil, fmt.Errorf("%w: %s on %s requires a number", ErrInvalidValue, c.Operator, c.Field)
		}
		op := "<="
		if c.Operator == OpGte {
			op = ">="
		}
		return fmt.Sprintf("%s %s %s", c.Field, op, s.placeholder(offset)), []interface{}{n}, nil

	case OpContains:
		return s.compileContains(c.Field, c.Value.List(), offset, true)

	case OpOverlaps:
		return s.compileContains(c.Field, c.Value.List(), offset, false)

	case OpRegex:
		return "", nil, fmt.Errorf("%w: %s", ErrRegexNotRewritten, c.Field)
	}
	return "", nil, fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
}

// compileContains renders array membership. all selects between every value
// matching (contains) and any value matching (overlaps).
func (s *Store) compileContains(field string, values []string, offset int, all bool) (string, []interface{}, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: empty list for %s", ErrInvalidValue, field)
	}

	if s.dialect == DialectPostgres {
		op := "&&"
		if all {
			op = "@>"
		}
		return fmt.Sprintf("%s %s %s", field, op, s.placeholder(offset)), []interface{}{pq.Array(values)}, nil
	}

	// SQLite stores arrays as pipe-delimited text; wrap both sides in
	// delimiters so elements match exactly rather than as substrings.
	var (
		parts []string
		args  []interface{}
	)
	for i, v := range values {
		parts = append(parts, fmt.Sprintf("('|' || %s || '|') LIKE %s", field, s.placeholder(offset+i)))
		args = append(args, "%|"+v+"|%")
	}
	joiner := " OR "
	if all {
		joiner = " AND "
	}
	return "(" + strings.Join(parts, joiner) + ")", args, nil
}

func (s *Store) placeholder(offset int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", offset+1)
	}
	return "?"
}

func (s *Store) scanPhone(rows *sql.Rows) (Phone, error) {
	var p Phone

	if s.dialect == DialectPostgres {
		err := rows.Scan(
			&p.ID, &p.Brand, &p.Model, &p.Price, &p.ReleaseYear, &p.OS,
			&p.RAM, &p.Storage, &p.DisplayType, &p.DisplaySize, &p.Resolution,
			&p.RefreshRate, &p.CameraMain, &p.CameraFront,
			pq.Array(&p.CameraFeatures), &p.Battery, &p.Charging, &p.Processor,
			pq.Array(&p.Connectivity), pq.Array(&p.Sensors), pq.Array(&p.Features),
			&p.Weight, &p.Dimensions, &p.Rating, &p.StockStatus, &p.Category,
			pq.Array(&p.Colours),
		)
		if err != nil {
			return Phone{}, fmt.Errorf("scanning catalog row: %w", err)
		}
		return p, nil
	}

	var cameraFeatures, connectivity, sensors, features, colours string
	err := rows.Scan(
		&p.ID, &p.Brand, &p.Model, &p.Price, &p.ReleaseYear, &p.OS,
		&p.RAM, &p.Storage, &p.DisplayType, &p.DisplaySize, &p.Resolution,
		&p.RefreshRate, &p.CameraMain, &p.CameraFront,
		&cameraFeatures, &p.Battery, &p.Charging, &p.Processor,
		&connectivity, &sensors, &features,
		&p.Weight, &p.Dimensions, &p.Rating, &p.StockStatus, &p.Category,
		&colours,
	)
	if err != nil {
		return Phone{}, fmt.Errorf("scanning catalog row: %w", err)
	}
	p.CameraFeatures = splitList(cameraFeatures)
	p.Connectivity = splitList(connectivity)
	p.Sensors = splitList(sensors)
	p.Features = splitList(features)
	p.Colours = splitList(colours)
	return p, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "|")
}

func joinList(items []string) string {
	return strings.Join(items, "|")
}
