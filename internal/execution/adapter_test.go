package execution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

type fakeAdapter struct {
	handle OrderHandle
	err    error
}

func (f *fakeAdapter) Submit(schema.Order) (OrderHandle, error) {
	return f.handle, f.err
}

func TestLiveExecutorSubmitRecordsPending(t *testing.T) {
	exec := NewLiveExecutor(&fakeAdapter{handle: 7})
	handle, record, err := exec.Submit(schema.Order{Side: schema.OrderSideBuy}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderHandle(7), handle)
	require.Equal(t, schema.ExecutionStatusPending, record.Status)
}

func TestLiveExecutorSubmitWrapsAdapterFailure(t *testing.T) {
	exec := NewLiveExecutor(&fakeAdapter{err: errors.New("venue down")})
	_, _, err := exec.Submit(schema.Order{}, 1)
	require.ErrorIs(t, err, xerrors.ErrAdapterFailure)
}

func TestLiveExecutorOnFillResolvesPending(t *testing.T) {
	exec := NewLiveExecutor(&fakeAdapter{handle: 1})
	handle, _, err := exec.Submit(schema.Order{}, 1)
	require.NoError(t, err)

	record, err := exec.OnFill(handle, FillDetails{FilledPrice: 100, FilledQty: 5, Status: schema.ExecutionStatusFilled})
	require.NoError(t, err)
	require.Equal(t, schema.ExecutionStatusFilled, record.Status)
	require.Equal(t, 100.0, record.FilledPrice)
}

func TestLiveExecutorOnFillRejectsUnknownHandle(t *testing.T) {
	exec := NewLiveExecutor(&fakeAdapter{})
	_, err := exec.OnFill(99, FillDetails{})
	require.ErrorIs(t, err, xerrors.ErrUnknownHandle)
}
