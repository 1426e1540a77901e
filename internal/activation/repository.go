package activation

import (
	"context"
	"sync"

	"affiliate/kit/db"
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
	activationColumns = "id, client_id, payment_ref, status, created_at"

	qActivationInsert        = "INSERT INTO activations (" + activationColumns + ") VALUES ($1, $2, $3, $4, $5)"
	qActivationGet           = "SELECT " + activationColumns + " FROM activations WHERE id = $1"
	qActivationGetByRef      = "SELECT " + activationColumns + " FROM activations WHERE payment_ref = $1"
	qActivationLatest        = "SELECT " + activationColumns + " FROM activations WHERE client_id = $1 ORDER BY created_at DESC LIMIT 1"
	qActivationSetPaymentRef = "UPDATE activations SET payment_ref = $2 WHERE id = $1"
	qActivationUpdateStatus  = "UPDATE activations SET status = $3 WHERE id = $1 AND status = $2"
)

func (r *SQLRepository) Create(ctx context.Context, a *Activation) error {
	if _, err := r.db.Exec(ctx, qActivationInsert, a.ID, a.ClientID, a.PaymentRef, string(a.Status), a.CreatedAt); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "activation", "repo", "SQLRepository", "method", "Create", "client_id", a.ClientID, "error", err.Error())
		return err
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*Activation, error) {
	return r.getOne(ctx, "Get", qActivationGet, id)
}

func (r *SQLRepository) GetByPaymentRef(ctx context.Context, ref string) (*Activation, error) {
	return r.getOne(ctx, "GetByPaymentRef", qActivationGetByRef, ref)
}

func (r *SQLRepository) LatestByClient(ctx context.Context, clientID string) (*Activation, error) {
	return r.getOne(ctx, "LatestByClient", qActivationLatest, clientID)
}

func (r *SQLRepository) getOne(ctx context.Context, method, query, arg string) (*Activation, error) {
	row, err := r.db.QueryRow(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	var a Activation
	if err := row.Scan(&a.ID, &a.ClientID, &a.PaymentRef, &a.Status, &a.CreatedAt); err != nil {
		if !db.IsNotFound(err) {
			r.logger.Error("repository error", "layer", "repo", "component", "activation", "repo", "SQLRepository", "method", method, "error", err.Error())
		}
		return nil, err
	}
	return &a, nil
}

func (r *SQLRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	return r.update(ctx, "SetPaymentRef", qActivationSetPaymentRef, id, ref)
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	n, err := r.db.Exec(ctx, qActivationUpdateStatus, id, string(from), string(to))
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "activation", "repo", "SQLRepository", "method", "UpdateStatus", "activation_id", id, "error", err.Error())
		return false, err
	}
	return n == 1, nil
}

func (r *SQLRepository) update(ctx context.Context, method, query, id, value string) error {
	n, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "activation", "repo", "SQLRepository", "method", method, "activation_id", id, "error", err.Error())
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]*Activation
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]*Activation)}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *Activation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[a.ID]; ok {
		return db.ErrConflict
	}
	cpy := *a
	r.data[a.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Activation, error) {
	return r.find(func(a *Activation) bool { return a.ID == id })
}

func (r *InMemoryRepository) GetByPaymentRef(ctx context.Context, ref string) (*Activation, error) {
	if ref == "" {
		return nil, db.ErrNotFound
	}
	return r.find(func(a *Activation) bool { return a.PaymentRef == ref })
}

func (r *InMemoryRepository) LatestByClient(ctx context.Context, clientID string) (*Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *Activation
	for _, a := range r.data {
		if a.ClientID != clientID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) || (a.CreatedAt.Equal(latest.CreatedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, db.ErrNotFound
	}
	cpy := *latest
	return &cpy, nil
}

func (r *InMemoryRepository) find(match func(*Activation) bool) (*Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.data {
		if match(a) {
			cpy := *a
			return &cpy, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *InMemoryRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return db.ErrNotFound
	}
	a.PaymentRef = ref
	return nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}
