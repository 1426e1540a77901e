package db

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ClientMock struct {
	mock.Mock
	Client
}

func (m *ClientMock) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ret := m.Called(ctx, query, args)
	n, _ := ret.Get(0).(int64)
	return n, ret.Error(1)
}

func (m *ClientMock) QueryRow(ctx context.Context, query string, args ...any) (Row, error) {
	ret := m.Called(ctx, query, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(Row), ret.Error(1)
}

func (m *ClientMock) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	ret := m.Called(ctx, query, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(Rows), ret.Error(1)
}

type RowMock struct {
	mock.Mock
	Row
}

func (m *RowMock) Scan(dest ...any) error {
	ret := m.Called(dest)
	return ret.Error(0)
}

// StaticRows replays a fixed set of rows; each row is filled by its func.
type StaticRows struct {
	Fill []func(dest ...any) error
	Fail error

	i int
}

func (r *StaticRows) Next() bool {
	if r.i >= len(r.Fill) {
		return false
	}
	r.i++
	return true
}

func (r *StaticRows) Scan(dest ...any) error {
	return r.Fill[r.i-1](dest...)
}

func (r *StaticRows) Err() error { return r.Fail }

func (r *StaticRows) Close() {}
