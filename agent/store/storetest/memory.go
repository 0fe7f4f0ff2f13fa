// Package storetest provides an in-memory Store for tests of the layers
// above the database.
package storetest

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	storex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store"
)

type Memory struct {
	mu        sync.Mutex
	customers []storex.Customer
	tickets   []storex.Ticket
	nextTick  int

	// PanicOn makes the named operation panic, for fault-path tests.
	PanicOn string
}

var _ storex.Store = (*Memory)(nil)

func NewMemory(customers []storex.Customer, tickets []storex.Ticket) *Memory {
	m := &Memory{
		customers: slices.Clone(customers),
		tickets:   slices.Clone(tickets),
	}
	for _, t := range m.tickets {
		m.nextTick = max(m.nextTick, t.ID)
	}
	return m
}

func (m *Memory) check(op string) {
	if m.PanicOn == op {
		panic(op + " exploded")
	}
}

func (m *Memory) GetCustomer(_ context.Context, id int) (*storex.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("GetCustomer")

	i := m.indexOf(id)
	if i < 0 {
		return nil, storex.ErrCustomerNotFound
	}
	c := m.customers[i]
	return &c, nil
}

func (m *Memory) ListCustomers(_ context.Context, status string, limit int) ([]storex.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("ListCustomers")

	out := make([]storex.Customer, 0)
	for _, c := range m.customers {
		if status != "" && status != storex.FilterAll && c.Status != status {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) UpdateCustomer(_ context.Context, id int, upd storex.CustomerUpdate) (*storex.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("UpdateCustomer")

	if upd.Empty() {
		return nil, storex.ErrNoFieldsToUpdate
	}
	i := m.indexOf(id)
	if i < 0 {
		return nil, storex.ErrCustomerNotFound
	}
	c := &m.customers[i]
	set := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	set(&c.Name, upd.Name)
	set(&c.Email, upd.Email)
	set(&c.Phone, upd.Phone)
	set(&c.Status, upd.Status)
	c.UpdatedAt = time.Now().UTC()
	out := *c
	return &out, nil
}

func (m *Memory) CreateTicket(_ context.Context, customerID int, issue, priority string) (*storex.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("CreateTicket")

	if m.indexOf(customerID) < 0 {
		return nil, storex.ErrCustomerNotFound
	}
	if priority == "" {
		priority = storex.PriorityMedium
	}
	m.nextTick++
	t := storex.Ticket{
		ID:         m.nextTick,
		CustomerID: customerID,
		Issue:      issue,
		Status:     storex.TicketOpen,
		Priority:   priority,
		CreatedAt:  time.Now().UTC(),
	}
	m.tickets = append(m.tickets, t)
	return &t, nil
}

func (m *Memory) GetCustomerHistory(_ context.Context, customerID int) (*storex.CustomerHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("GetCustomerHistory")

	i := m.indexOf(customerID)
	if i < 0 {
		return nil, storex.ErrCustomerNotFound
	}
	tickets := m.filter(storex.TicketFilter{CustomerIDs: []int{customerID}})
	return &storex.CustomerHistory{Customer: m.customers[i], Tickets: tickets}, nil
}

func (m *Memory) GetTickets(_ context.Context, filter storex.TicketFilter) ([]storex.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check("GetTickets")

	return m.filter(filter), nil
}

func (m *Memory) indexOf(id int) int {
	return slices.IndexFunc(m.customers, func(c storex.Customer) bool { return c.ID == id })
}

func (m *Memory) filter(f storex.TicketFilter) []storex.Ticket {
	out := make([]storex.Ticket, 0)
	for _, t := range m.tickets {
		if f.Status != "" && f.Status != storex.FilterAll && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && f.Priority != storex.FilterAll && t.Priority != f.Priority {
			continue
		}
		if len(f.CustomerIDs) > 0 && !slices.Contains(f.CustomerIDs, t.CustomerID) {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b storex.Ticket) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}
