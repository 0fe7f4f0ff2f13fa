package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver       string `envconfig:"DRIVER" default:"sqlite"`
	DSN          string `envconfig:"DSN" default:"support.db"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
}

// BunStore implements Store on top of bun.
type BunStore struct {
	db     *bun.DB
	logger zerolog.Logger
}

var _ Store = (*BunStore)(nil)

// Open connects to the configured database. SQLite is pinned to a single
// connection so writers are serialized; Postgres uses the sql.DB pool.
func Open(cfg Config) (*BunStore, error) {
	logger := log.Logger.With().Str("component", "store").Logger()

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite, "":
		sqldb, err := openSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(&queryLogger{logger: logger})
	}

	logger.Info().Str("driver", db.Dialect().Name().String()).Msg("store opened")
	return &BunStore{db: db, logger: logger}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return sqldb, nil
}

func (s *BunStore) DB() *bun.DB {
	return s.db
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

// CreateSchema creates the customers and tickets tables when missing.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Customer)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create customers table: %w", err)
	}

	if _, err := s.db.NewCreateTable().
		Model((*Ticket)(nil)).
		IfNotExists().
		ForeignKey(`("customer_id") REFERENCES "customers" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create tickets table: %w", err)
	}

	indexes := []struct {
		name   string
		model  any
		column string
	}{
		{"idx_customers_email", (*Customer)(nil), "email"},
		{"idx_tickets_customer_id", (*Ticket)(nil), "customer_id"},
		{"idx_tickets_status", (*Ticket)(nil), "status"},
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *BunStore) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	c := new(Customer)
	err := s.db.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select customer %d: %w", id, err)
	}
	return c, nil
}

func (s *BunStore) ListCustomers(ctx context.Context, status string, limit int) ([]Customer, error) {
	customers := make([]Customer, 0)
	q := s.db.NewSelect().Model(&customers).OrderExpr("id ASC")
	if status != "" && status != FilterAll {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *BunStore) UpdateCustomer(ctx context.Context, id int, upd CustomerUpdate) (*Customer, error) {
	if upd.Empty() {
		return nil, ErrNoFieldsToUpdate
	}

	q := s.db.NewUpdate().Model((*Customer)(nil)).Where("id = ?", id)
	if !isBlank(upd.Name) {
		q = q.Set("name = ?", *upd.Name)
	}
	if !isBlank(upd.Email) {
		q = q.Set("email = ?", *upd.Email)
	}
	if !isBlank(upd.Phone) {
		q = q.Set("phone = ?", *upd.Phone)
	}
	if !isBlank(upd.Status) {
		q = q.Set("status = ?", *upd.Status)
	}
	q = q.Set("updated_at = ?", time.Now().UTC())

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrCustomerNotFound
	}
	return s.GetCustomer(ctx, id)
}

func (s *BunStore) CreateTicket(ctx context.Context, customerID int, issue, priority string) (*Ticket, error) {
	exists, err := s.db.NewSelect().Model((*Customer)(nil)).Where("id = ?", customerID).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check customer %d: %w", customerID, err)
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}

	if priority == "" {
		priority = PriorityMedium
	}
	t := &Ticket{
		CustomerID: customerID,
		Issue:      issue,
		Status:     TicketOpen,
		Priority:   priority,
	}
	if _, err := s.db.NewInsert().Model(t).Returning("*").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

func (s *BunStore) GetCustomerHistory(ctx context.Context, customerID int) (*CustomerHistory, error) {
	c, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0)
	if err := s.db.NewSelect().
		Model(&tickets).
		Where("customer_id = ?", customerID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("select tickets for customer %d: %w", customerID, err)
	}
	return &CustomerHistory{Customer: *c, Tickets: tickets}, nil
}

func (s *BunStore) GetTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	tickets := make([]Ticket, 0)
	q := s.db.NewSelect().Model(&tickets).OrderExpr("created_at DESC, id DESC")
	if filter.Status != "" && filter.Status != FilterAll {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" && filter.Priority != FilterAll {
		q = q.Where("priority = ?", filter.Priority)
	}
	if len(filter.CustomerIDs) > 0 {
		q = q.Where("customer_id IN (?)", bun.In(filter.CustomerIDs))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	return tickets, nil
}

type queryLogger struct {
	logger zerolog.Logger
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	e := h.logger.Debug()
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		e = h.logger.Warn().Err(event.Err)
	}
	e.Str("query", event.Query).Dur("elapsed", time.Since(event.StartTime)).Msg("sql")
}
