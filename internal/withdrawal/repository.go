package withdrawal

import (
	"context"
	"errors"
	"sort"
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
	withdrawalColumns = "id, client_id, amount, payment_ref, status, initiated_at"

	qWithdrawalInsert        = "INSERT INTO withdrawals (" + withdrawalColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	qWithdrawalGet           = "SELECT " + withdrawalColumns + " FROM withdrawals WHERE id = $1"
	qWithdrawalGetByRef      = "SELECT " + withdrawalColumns + " FROM withdrawals WHERE payment_ref = $1"
	qWithdrawalSetPaymentRef = "UPDATE withdrawals SET payment_ref = $2 WHERE id = $1"
	qWithdrawalUpdateStatus  = "UPDATE withdrawals SET status = $3 WHERE id = $1 AND status = $2"
	qWithdrawalListByClient  = "SELECT " + withdrawalColumns + " FROM withdrawals WHERE client_id = $1 ORDER BY initiated_at DESC"
	qWithdrawalStats         = `SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COUNT(*) FILTER (WHERE status = 'completed'),
       COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
  FROM withdrawals WHERE client_id = $1`
)

func (r *SQLRepository) Create(ctx context.Context, w *Withdrawal) error {
	if _, err := r.db.Exec(ctx, qWithdrawalInsert, w.ID, w.ClientID, w.Amount, w.PaymentRef, string(w.Status), w.InitiatedAt); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", "Create", "client_id", w.ClientID, "error", err.Error())
		return err
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*Withdrawal, error) {
	return r.getOne(ctx, "Get", qWithdrawalGet, id)
}

func (r *SQLRepository) GetByPaymentRef(ctx context.Context, ref string) (*Withdrawal, error) {
	return r.getOne(ctx, "GetByPaymentRef", qWithdrawalGetByRef, ref)
}

func (r *SQLRepository) getOne(ctx context.Context, method, query, arg string) (*Withdrawal, error) {
	row, err := r.db.QueryRow(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	w, err := scanWithdrawal(row)
	if err != nil {
		if !db.IsNotFound(err) {
			r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", method, "error", err.Error())
		}
		return nil, err
	}
	return w, nil
}

func (r *SQLRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	n, err := r.db.Exec(ctx, qWithdrawalSetPaymentRef, id, ref)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", "SetPaymentRef", "withdrawal_id", id, "error", err.Error())
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	n, err := r.db.Exec(ctx, qWithdrawalUpdateStatus, id, string(from), string(to))
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", "UpdateStatus", "withdrawal_id", id, "error", err.Error())
		return false, err
	}
	return n == 1, nil
}

func (r *SQLRepository) ListByClient(ctx context.Context, clientID string) ([]*Withdrawal, error) {
	rows, err := r.db.Query(ctx, qWithdrawalListByClient, clientID)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", "ListByClient", "client_id", clientID, "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []*Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(db.ErrInternal, err)
	}
	return out, nil
}

func (r *SQLRepository) Stats(ctx context.Context, clientID string) (Stats, error) {
	var s Stats
	row, err := r.db.QueryRow(ctx, qWithdrawalStats, clientID)
	if err != nil {
		return s, err
	}
	if err := row.Scan(&s.Total, &s.Pending, &s.Completed, &s.AmountWithdrawn); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "withdrawal", "repo", "SQLRepository", "method", "Stats", "client_id", clientID, "error", err.Error())
		return Stats{}, err
	}
	return s, nil
}

func scanWithdrawal(row db.Row) (*Withdrawal, error) {
	var w Withdrawal
	if err := row.Scan(&w.ID, &w.ClientID, &w.Amount, &w.PaymentRef, &w.Status, &w.InitiatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]*Withdrawal
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]*Withdrawal)}
}

func (r *InMemoryRepository) Create(ctx context.Context, w *Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[w.ID]; ok {
		return db.ErrConflict
	}
	cpy := *w
	r.data[w.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.data[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cpy := *w
	return &cpy, nil
}

func (r *InMemoryRepository) GetByPaymentRef(ctx context.Context, ref string) (*Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.data {
		if ref != "" && w.PaymentRef == ref {
			cpy := *w
			return &cpy, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *InMemoryRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.data[id]
	if !ok {
		return db.ErrNotFound
	}
	w.PaymentRef = ref
	return nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.data[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	return true, nil
}

func (r *InMemoryRepository) ListByClient(ctx context.Context, clientID string) ([]*Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Withdrawal
	for _, w := range r.data {
		if w.ClientID == clientID {
			cpy := *w
			out = append(out, &cpy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.After(out[j].InitiatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Stats(ctx context.Context, clientID string) (Stats, error) {
	list, _ := r.ListByClient(ctx, clientID)
	var s Stats
	for _, w := range list {
		s.Total++
		switch w.Status {
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
			s.AmountWithdrawn = s.AmountWithdrawn.Add(w.Amount)
		}
	}
	return s, nil
}
