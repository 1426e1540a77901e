package client

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

type SQLRepository struct {
	db     db.Client
	logger *observability.Logger
}

func NewSQLRepository(dbClient db.Client, logger *observability.Logger) *SQLRepository {
	return &SQLRepository{db: dbClient, logger: logger}
}

const (
	clientColumns = "id, username, name, email, phone_number, inviter_id, status, balance, joined_at"

	qClientInsert        = "INSERT INTO clients (" + clientColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	qClientGet           = "SELECT " + clientColumns + " FROM clients WHERE id = $1"
	qClientGetByUsername = "SELECT " + clientColumns + " FROM clients WHERE username = $1"
	qClientUpdateStatus  = "UPDATE clients SET status = $3 WHERE id = $1 AND status = $2"
	qClientIncrement     = "UPDATE clients SET balance = balance + $2 WHERE id = $1"
	qClientDecrement     = "UPDATE clients SET balance = balance - $2 WHERE id = $1 AND balance >= $2"
	qClientCountInvitees = "SELECT COUNT(*) FROM clients WHERE inviter_id = $1 AND ($2::text = '' OR status = $2::text)"
	qClientListInvitees  = "SELECT " + clientColumns + " FROM clients WHERE inviter_id = $1 AND ($2::text = '' OR status = $2::text) ORDER BY joined_at DESC"
)

func (r *SQLRepository) Create(ctx context.Context, c *Client) error {
	if _, err := r.db.Exec(ctx, qClientInsert, c.ID, c.Username, c.Name, c.Email, c.PhoneNumber, c.InviterID, string(c.Status), c.Balance, c.JoinedAt); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "Create", "username", c.Username, "error", err.Error())
		return err
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*Client, error) {
	return r.getOne(ctx, "Get", qClientGet, id)
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*Client, error) {
	return r.getOne(ctx, "GetByUsername", qClientGetByUsername, username)
}

func (r *SQLRepository) getOne(ctx context.Context, method, query, arg string) (*Client, error) {
	row, err := r.db.QueryRow(ctx, query, arg)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", method, "error", err.Error())
		return nil, err
	}
	c, err := scanClient(row)
	if err != nil {
		if !db.IsNotFound(err) {
			r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", method, "error", err.Error())
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	n, err := r.db.Exec(ctx, qClientUpdateStatus, id, string(from), string(to))
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "UpdateStatus", "client_id", id, "error", err.Error())
		return false, err
	}
	return n == 1, nil
}

func (r *SQLRepository) IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	n, err := r.db.Exec(ctx, qClientIncrement, id, amount)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "IncrementBalance", "client_id", id, "amount", amount.String(), "error", err.Error())
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	n, err := r.db.Exec(ctx, qClientDecrement, id, amount)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "DecrementBalance", "client_id", id, "amount", amount.String(), "error", err.Error())
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return errs.ErrInsufficientBalance
}

func (r *SQLRepository) CountInvitees(ctx context.Context, inviterID string, status Status) (int, error) {
	row, err := r.db.QueryRow(ctx, qClientCountInvitees, inviterID, string(status))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "CountInvitees", "client_id", inviterID, "error", err.Error())
		return 0, err
	}
	return n, nil
}

func (r *SQLRepository) ListInvitees(ctx context.Context, inviterID string, status Status) ([]*Client, error) {
	rows, err := r.db.Query(ctx, qClientListInvitees, inviterID, string(status))
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "client", "repo", "SQLRepository", "method", "ListInvitees", "client_id", inviterID, "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(db.ErrInternal, err)
	}
	return out, nil
}

func scanClient(row db.Row) (*Client, error) {
	var c Client
	if err := row.Scan(&c.ID, &c.Username, &c.Name, &c.Email, &c.PhoneNumber, &c.InviterID, &c.Status, &c.Balance, &c.JoinedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]*Client
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]*Client)}
}

func (r *InMemoryRepository) Create(ctx context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.ID == c.ID || existing.Username == c.Username {
			return db.ErrConflict
		}
	}
	cpy := *c
	r.data[c.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cpy := *c
	return &cpy, nil
}

func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.Username == username {
			cpy := *c
			return &cpy, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (r *InMemoryRepository) IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return db.ErrNotFound
	}
	c.Balance = c.Balance.Add(amount)
	return nil
}

func (r *InMemoryRepository) DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return db.ErrNotFound
	}
	if c.Balance.LessThan(amount) {
		return errs.ErrInsufficientBalance
	}
	c.Balance = c.Balance.Sub(amount)
	return nil
}

func (r *InMemoryRepository) CountInvitees(ctx context.Context, inviterID string, status Status) (int, error) {
	out, _ := r.ListInvitees(ctx, inviterID, status)
	return len(out), nil
}

func (r *InMemoryRepository) ListInvitees(ctx context.Context, inviterID string, status Status) ([]*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Client
	for _, c := range r.data {
		if c.InviterID != inviterID || inviterID == "" {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cpy := *c
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	return out, nil
}
