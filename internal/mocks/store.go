// Package mocks provides testify mocks of the domain interfaces in the
// expecter style.
package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/davidbz/tokenmeter/internal/domain"
)

// MockStore is a mock of domain.Store.
type MockStore struct {
	mock.Mock
}

// MockStore_Expecter records expectations on a MockStore.
type MockStore_Expecter struct {
	mock *mock.Mock
}

// EXPECT starts an expectation.
func (_m *MockStore) EXPECT() *MockStore_Expecter {
	return &MockStore_Expecter{mock: &_m.Mock}
}

// NewMockStore creates a MockStore that asserts its expectations on cleanup.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ListPrices mocks domain.PriceStore.ListPrices.
func (_m *MockStore) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	ret := _m.Called(ctx)

	if fn, ok := ret.Get(0).(func(context.Context) ([]domain.PriceEntry, error)); ok {
		return fn(ctx)
	}

	var entries []domain.PriceEntry
	if v := ret.Get(0); v != nil {
		entries = v.([]domain.PriceEntry)
	}
	return entries, ret.Error(1)
}

// MockStore_ListPrices_Call wraps a ListPrices expectation.
type MockStore_ListPrices_Call struct {
	*mock.Call
}

// ListPrices expects a ListPrices call.
func (_e *MockStore_Expecter) ListPrices(ctx interface{}) *MockStore_ListPrices_Call {
	return &MockStore_ListPrices_Call{Call: _e.mock.On("ListPrices", ctx)}
}

// Return sets the return values.
func (_c *MockStore_ListPrices_Call) Return(entries []domain.PriceEntry, err error) *MockStore_ListPrices_Call {
	_c.Call.Return(entries, err)
	return _c
}

// GetPrice mocks domain.PriceStore.GetPrice.
func (_m *MockStore) GetPrice(ctx context.Context, model string) (domain.PriceEntry, error) {
	ret := _m.Called(ctx, model)

	if fn, ok := ret.Get(0).(func(context.Context, string) (domain.PriceEntry, error)); ok {
		return fn(ctx, model)
	}
	return ret.Get(0).(domain.PriceEntry), ret.Error(1)
}

// MockStore_GetPrice_Call wraps a GetPrice expectation.
type MockStore_GetPrice_Call struct {
	*mock.Call
}

// GetPrice expects a GetPrice call.
func (_e *MockStore_Expecter) GetPrice(ctx interface{}, model interface{}) *MockStore_GetPrice_Call {
	return &MockStore_GetPrice_Call{Call: _e.mock.On("GetPrice", ctx, model)}
}

// Return sets the return values.
func (_c *MockStore_GetPrice_Call) Return(entry domain.PriceEntry, err error) *MockStore_GetPrice_Call {
	_c.Call.Return(entry, err)
	return _c
}

// UpsertPrices mocks domain.PriceStore.UpsertPrices.
func (_m *MockStore) UpsertPrices(ctx context.Context, entries []domain.PriceEntry) error {
	ret := _m.Called(ctx, entries)

	if fn, ok := ret.Get(0).(func(context.Context, []domain.PriceEntry) error); ok {
		return fn(ctx, entries)
	}
	return ret.Error(0)
}

// MockStore_UpsertPrices_Call wraps an UpsertPrices expectation.
type MockStore_UpsertPrices_Call struct {
	*mock.Call
}

// UpsertPrices expects an UpsertPrices call.
func (_e *MockStore_Expecter) UpsertPrices(ctx interface{}, entries interface{}) *MockStore_UpsertPrices_Call {
	return &MockStore_UpsertPrices_Call{Call: _e.mock.On("UpsertPrices", ctx, entries)}
}

// Return sets the return value.
func (_c *MockStore_UpsertPrices_Call) Return(err error) *MockStore_UpsertPrices_Call {
	_c.Call.Return(err)
	return _c
}

// GetUser mocks domain.LedgerStore.GetUser.
func (_m *MockStore) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	ret := _m.Called(ctx, id)

	if fn, ok := ret.Get(0).(func(context.Context, string) (*domain.UserAccount, error)); ok {
		return fn(ctx, id)
	}

	var account *domain.UserAccount
	if v := ret.Get(0); v != nil {
		account = v.(*domain.UserAccount)
	}
	return account, ret.Error(1)
}

// MockStore_GetUser_Call wraps a GetUser expectation.
type MockStore_GetUser_Call struct {
	*mock.Call
}

// GetUser expects a GetUser call.
func (_e *MockStore_Expecter) GetUser(ctx interface{}, id interface{}) *MockStore_GetUser_Call {
	return &MockStore_GetUser_Call{Call: _e.mock.On("GetUser", ctx, id)}
}

// Return sets the return values.
func (_c *MockStore_GetUser_Call) Return(account *domain.UserAccount, err error) *MockStore_GetUser_Call {
	_c.Call.Return(account, err)
	return _c
}

// CreateUser mocks domain.LedgerStore.CreateUser.
func (_m *MockStore) CreateUser(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	ret := _m.Called(ctx, account)

	if fn, ok := ret.Get(0).(func(context.Context, *domain.UserAccount) (*domain.UserAccount, error)); ok {
		return fn(ctx, account)
	}

	var stored *domain.UserAccount
	if v := ret.Get(0); v != nil {
		stored = v.(*domain.UserAccount)
	}
	return stored, ret.Error(1)
}

// MockStore_CreateUser_Call wraps a CreateUser expectation.
type MockStore_CreateUser_Call struct {
	*mock.Call
}

// CreateUser expects a CreateUser call.
func (_e *MockStore_Expecter) CreateUser(ctx interface{}, account interface{}) *MockStore_CreateUser_Call {
	return &MockStore_CreateUser_Call{Call: _e.mock.On("CreateUser", ctx, account)}
}

// Return sets the return values.
func (_c *MockStore_CreateUser_Call) Return(account *domain.UserAccount, err error) *MockStore_CreateUser_Call {
	_c.Call.Return(account, err)
	return _c
}

// RunAndReturn computes the return values from the arguments.
func (_c *MockStore_CreateUser_Call) RunAndReturn(
	fn func(context.Context, *domain.UserAccount) (*domain.UserAccount, error),
) *MockStore_CreateUser_Call {
	_c.Call.Return(fn, nil)
	return _c
}

// Debit mocks domain.LedgerStore.Debit.
func (_m *MockStore) Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	ret := _m.Called(ctx, id, cost)

	if fn, ok := ret.Get(0).(func(context.Context, string, decimal.Decimal) (decimal.Decimal, error)); ok {
		return fn(ctx, id, cost)
	}
	return ret.Get(0).(decimal.Decimal), ret.Error(1)
}

// MockStore_Debit_Call wraps a Debit expectation.
type MockStore_Debit_Call struct {
	*mock.Call
}

// Debit expects a Debit call.
func (_e *MockStore_Expecter) Debit(ctx interface{}, id interface{}, cost interface{}) *MockStore_Debit_Call {
	return &MockStore_Debit_Call{Call: _e.mock.On("Debit", ctx, id, cost)}
}

// Return sets the return values.
func (_c *MockStore_Debit_Call) Return(balance decimal.Decimal, err error) *MockStore_Debit_Call {
	_c.Call.Return(balance, err)
	return _c
}

// RunAndReturn computes the return values from the arguments.
func (_c *MockStore_Debit_Call) RunAndReturn(
	fn func(context.Context, string, decimal.Decimal) (decimal.Decimal, error),
) *MockStore_Debit_Call {
	_c.Call.Return(fn, nil)
	return _c
}

// Close mocks domain.Store.Close.
func (_m *MockStore) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// MockStore_Close_Call wraps a Close expectation.
type MockStore_Close_Call struct {
	*mock.Call
}

// Close expects a Close call.
func (_e *MockStore_Expecter) Close() *MockStore_Close_Call {
	return &MockStore_Close_Call{Call: _e.mock.On("Close")}
}

// Return sets the return value.
func (_c *MockStore_Close_Call) Return(err error) *MockStore_Close_Call {
	_c.Call.Return(err)
	return _c
}
