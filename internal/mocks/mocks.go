// Package mocks holds testify mocks of the ports interfaces for service and
// handler tests. Each constructor registers AssertExpectations as cleanup.
package mocks

import (
	"testing"

	"github.com/stretchr/testify/mock"
)

// ret returns the i-th return value as T, or T's zero value when it is nil.
func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)

	return v
}

func register(t *testing.T, m *mock.Mock) {
	t.Helper()
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}
