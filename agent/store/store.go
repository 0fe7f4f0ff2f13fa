// Package store is the customer and ticket Data Store behind the tool
// gateway. It is backed by bun on either Postgres or SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

const (
	CustomerActive   = "active"
	CustomerDisabled = "disabled"

	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	// FilterAll disables a status or priority filter.
	FilterAll = "all"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,nullzero" json:"email"`
	Phone     string    `bun:"phone,nullzero" json:"phone"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID         int       `bun:"id,pk,autoincrement" json:"id"`
	CustomerID int       `bun:"customer_id,notnull" json:"customer_id"`
	Issue      string    `bun:"issue,notnull" json:"issue"`
	Status     string    `bun:"status,notnull,default:'open'" json:"status"`
	Priority   string    `bun:"priority,notnull,default:'medium'" json:"priority"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// CustomerUpdate carries the optional fields of an update; nil means unchanged.
type CustomerUpdate struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *string
}

func (u CustomerUpdate) Empty() bool {
	return isBlank(u.Name) && isBlank(u.Email) && isBlank(u.Phone) && isBlank(u.Status)
}

type TicketFilter struct {
	Status      string
	Priority    string
	CustomerIDs []int
}

type CustomerHistory struct {
	Customer Customer
	Tickets  []Ticket
}

// Store is the persistence contract consumed by the tool gateway.
type Store interface {
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	ListCustomers(ctx context.Context, status string, limit int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id int, upd CustomerUpdate) (*Customer, error)
	CreateTicket(ctx context.Context, customerID int, issue, priority string) (*Ticket, error)
	GetCustomerHistory(ctx context.Context, customerID int) (*CustomerHistory, error)
	GetTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error)
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
