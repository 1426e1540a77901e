package payment

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

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
	paymentColumns = "reference, type, phone_number, amount, metadata, status, transaction_id, initiated_at, updated_at"

	qPaymentInsert           = "INSERT INTO payments (" + paymentColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	qPaymentGet              = "SELECT " + paymentColumns + " FROM payments WHERE reference = $1"
	qPaymentExists           = "SELECT EXISTS (SELECT 1 FROM payments WHERE reference = $1)"
	qPaymentUpdateStatus     = "UPDATE payments SET status = $3, transaction_id = COALESCE(NULLIF($4, ''), transaction_id), updated_at = $5 WHERE reference = $1 AND status = $2"
	qPaymentSetTransactionID = "UPDATE payments SET transaction_id = $2, updated_at = $3 WHERE reference = $1"
	qPaymentListByStatus     = "SELECT " + paymentColumns + " FROM payments WHERE status = $1 ORDER BY initiated_at"
	qPaymentListByPhone      = "SELECT " + paymentColumns + " FROM payments WHERE phone_number = $1 ORDER BY initiated_at DESC"
)

func (r *SQLRepository) Create(ctx context.Context, p *Payment) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return errors.Join(db.ErrInvalid, err)
	}
	if _, err := r.db.Exec(
		ctx,
		qPaymentInsert,
		p.Reference,
		string(p.Type),
		p.PhoneNumber,
		p.Amount,
		meta,
		string(p.Status),
		p.TransactionID,
		p.InitiatedAt,
		p.UpdatedAt,
	); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "Create", "reference", p.Reference, "error", err.Error())
		return err
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, reference string) (*Payment, error) {
	row, err := r.db.QueryRow(ctx, qPaymentGet, reference)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "Get", "reference", reference, "error", err.Error())
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		if !db.IsNotFound(err) {
			r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "Get", "reference", reference, "error", err.Error())
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLRepository) Exists(ctx context.Context, reference string) (bool, error) {
	row, err := r.db.QueryRow(ctx, qPaymentExists, reference)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "Exists", "reference", reference, "error", err.Error())
		return false, err
	}
	return exists, nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, reference string, from, to Status, transactionID string) (bool, error) {
	n, err := r.db.Exec(ctx, qPaymentUpdateStatus, reference, string(from), string(to), transactionID, time.Now().UTC())
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "UpdateStatus", "reference", reference, "from", from, "to", to, "error", err.Error())
		return false, err
	}
	return n == 1, nil
}

func (r *SQLRepository) SetTransactionID(ctx context.Context, reference, transactionID string) error {
	n, err := r.db.Exec(ctx, qPaymentSetTransactionID, reference, transactionID, time.Now().UTC())
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", "SetTransactionID", "reference", reference, "error", err.Error())
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) ListByStatus(ctx context.Context, status Status) ([]*Payment, error) {
	return r.list(ctx, "ListByStatus", qPaymentListByStatus, string(status))
}

func (r *SQLRepository) ListByPhoneNumber(ctx context.Context, phoneNumber string) ([]*Payment, error) {
	return r.list(ctx, "ListByPhoneNumber", qPaymentListByPhone, phoneNumber)
}

func (r *SQLRepository) list(ctx context.Context, method, query string, arg any) ([]*Payment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", method, "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.logger.Error("repository error", "layer", "repo", "component", "payment", "repo", "SQLRepository", "method", method, "error", err.Error())
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(db.ErrInternal, err)
	}
	return out, nil
}

func scanPayment(row db.Row) (*Payment, error) {
	var (
		p    Payment
		meta []byte
	)
	if err := row.Scan(&p.Reference, &p.Type, &p.PhoneNumber, &p.Amount, &meta, &p.Status, &p.TransactionID, &p.InitiatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, errors.Join(db.ErrInternal, err)
		}
	}
	return &p, nil
}

type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]*Payment
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]*Payment)}
}

func (r *InMemoryRepository) Create(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.Reference]; ok {
		return db.ErrConflict
	}
	cpy := *p
	r.data[p.Reference] = &cpy
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, reference string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[reference]
	if !ok {
		return nil, db.ErrNotFound
	}
	cpy := *p
	return &cpy, nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[reference]
	return ok, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, reference string, from, to Status, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[reference]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *InMemoryRepository) SetTransactionID(ctx context.Context, reference, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[reference]
	if !ok {
		return db.ErrNotFound
	}
	p.TransactionID = transactionID
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) ListByStatus(ctx context.Context, status Status) ([]*Payment, error) {
	out := r.filter(func(p *Payment) bool { return p.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.Before(out[j].InitiatedAt) })
	return out, nil
}

func (r *InMemoryRepository) ListByPhoneNumber(ctx context.Context, phoneNumber string) ([]*Payment, error) {
	out := r.filter(func(p *Payment) bool { return p.PhoneNumber == phoneNumber })
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.After(out[j].InitiatedAt) })
	return out, nil
}

func (r *InMemoryRepository) filter(keep func(*Payment) bool) []*Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.data {
		if keep(p) {
			cpy := *p
			out = append(out, &cpy)
		}
	}
	return out
}
