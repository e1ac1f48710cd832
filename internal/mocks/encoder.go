package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEncoder is a mock of domain.Encoder.
type MockEncoder struct {
	mock.Mock
}

// MockEncoder_Expecter records expectations on a MockEncoder.
type MockEncoder_Expecter struct {
	mock *mock.Mock
}

// EXPECT starts an expectation.
func (_m *MockEncoder) EXPECT() *MockEncoder_Expecter {
	return &MockEncoder_Expecter{mock: &_m.Mock}
}

// NewMockEncoder creates a MockEncoder that asserts its expectations on cleanup.
func NewMockEncoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEncoder {
	m := &MockEncoder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Count mocks domain.Encoder.Count.
func (_m *MockEncoder) Count(text string) (int, error) {
	ret := _m.Called(text)
	return ret.Int(0), ret.Error(1)
}

// MockEncoder_Count_Call wraps a Count expectation.
type MockEncoder_Count_Call struct {
	*mock.Call
}

// Count expects a Count call.
func (_e *MockEncoder_Expecter) Count(text interface{}) *MockEncoder_Count_Call {
	return &MockEncoder_Count_Call{Call: _e.mock.On("Count", text)}
}

// Return sets the return values.
func (_c *MockEncoder_Count_Call) Return(tokens int, err error) *MockEncoder_Count_Call {
	_c.Call.Return(tokens, err)
	return _c
}

// Name mocks domain.Encoder.Name.
func (_m *MockEncoder) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// MockEncoder_Name_Call wraps a Name expectation.
type MockEncoder_Name_Call struct {
	*mock.Call
}

// Name expects a Name call.
func (_e *MockEncoder_Expecter) Name() *MockEncoder_Name_Call {
	return &MockEncoder_Name_Call{Call: _e.mock.On("Name")}
}

// Return sets the return value.
func (_c *MockEncoder_Name_Call) Return(name string) *MockEncoder_Name_Call {
	_c.Call.Return(name)
	return _c
}

// MockEventPublisher is a mock of domain.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

// MockEventPublisher_Expecter records expectations on a MockEventPublisher.
type MockEventPublisher_Expecter struct {
	mock *mock.Mock
}

// EXPECT starts an expectation.
func (_m *MockEventPublisher) EXPECT() *MockEventPublisher_Expecter {
	return &MockEventPublisher_Expecter{mock: &_m.Mock}
}

// NewMockEventPublisher creates a MockEventPublisher that asserts its
// expectations on cleanup.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Publish mocks domain.EventPublisher.Publish.
func (_m *MockEventPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	_m.Called(ctx, eventType, data)
}

// MockEventPublisher_Publish_Call wraps a Publish expectation.
type MockEventPublisher_Publish_Call struct {
	*mock.Call
}

// Publish expects a Publish call.
func (_e *MockEventPublisher_Expecter) Publish(
	ctx interface{},
	eventType interface{},
	data interface{},
) *MockEventPublisher_Publish_Call {
	return &MockEventPublisher_Publish_Call{Call: _e.mock.On("Publish", ctx, eventType, data)}
}

// Return finalizes the expectation.
func (_c *MockEventPublisher_Publish_Call) Return() *MockEventPublisher_Publish_Call {
	_c.Call.Return()
	return _c
}
