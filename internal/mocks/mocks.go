// Package mocks provides testify mocks for the interfaces in api/schemas.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

// MockPage mocks the schemas.PageDriver interface.
type MockPage struct {
	mock.Mock
}

var _ schemas.PageDriver = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPage) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Evaluate mocks script evaluation. Expectations may provide the decoded
// result through a `func(out interface{})` third Run argument, or more
// conveniently via OnEvaluate.
func (m *MockPage) Evaluate(ctx context.Context, expr string, out interface{}) error {
	args := m.Called(ctx, expr, out)
	if fill, ok := args.Get(0).(func(interface{})); ok {
		fill(out)
		return args.Error(1)
	}
	return args.Error(0)
}

func (m *MockPage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return m.Called(ctx, sel, timeout).Error(0)
}

func (m *MockPage) Click(ctx context.Context, sel string) error {
	return m.Called(ctx, sel).Error(0)
}

func (m *MockPage) Type(ctx context.Context, sel, text string) error {
	return m.Called(ctx, sel, text).Error(0)
}

func (m *MockPage) Submit(ctx context.Context, sel string) error {
	return m.Called(ctx, sel).Error(0)
}

func (m *MockPage) Text(ctx context.Context, sel string) (string, error) {
	args := m.Called(ctx, sel)
	return args.String(0), args.Error(1)
}

func (m *MockPage) AttributeValue(ctx context.Context, sel, attr string) (string, bool, error) {
	args := m.Called(ctx, sel, attr)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPage) SwitchToNewTab(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPage) ResetTabs(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPage) DismissPrompts(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPage) Sleep(ctx context.Context, d time.Duration) error {
	return m.Called(ctx, d).Error(0)
}
