package engine

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

// MockDispatcher is a hand-written stand-in for the mockgen output
// pkg/runner/interfaces.go's //go:generate directive would produce (mockgen
// cannot be invoked in this environment), following the same
// Controller/recorder shape as that generated code: a MockDispatcher wraps
// a *gomock.Controller and exposes an EXPECT() recorder for call matching.
type MockDispatcher struct {
	ctrl     *gomock.Controller
	recorder *MockDispatcherMockRecorder
}

type MockDispatcherMockRecorder struct {
	mock *MockDispatcher
}

func NewMockDispatcher(ctrl *gomock.Controller) *MockDispatcher {
	m := &MockDispatcher{ctrl: ctrl}
	m.recorder = &MockDispatcherMockRecorder{mock: m}
	return m
}

func (m *MockDispatcher) EXPECT() *MockDispatcherMockRecorder {
	return m.recorder
}

func (m *MockDispatcher) Dispatch(ctx *mezze.Context, step mezze.Step) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Dispatch", ctx, step)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockDispatcherMockRecorder) Dispatch(ctx, step any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Dispatch",
		reflect.TypeOf((*MockDispatcher)(nil).Dispatch), ctx, step)
}
