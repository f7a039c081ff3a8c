package csvimport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Name,Email,Phone\nJane Doe,jane@x.com,555-1111\n,,\nBob,bob@x.com,\n"

var sessionFields = []TargetField{
	{Key: "name", Label: "Name", Required: true},
	{Key: "email", Label: "Email"},
	{Key: "phone", Label: "Phone"},
}

func TestSession_HappyPath(t *testing.T) {
	s := NewSession(sessionFields, nil)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Load(sampleCSV))
	snap := s.Snapshot()
	assert.Equal(t, StateMapping, snap.State)
	assert.Equal(t, []string{"Name", "Email", "Phone"}, snap.Headers)
	assert.Equal(t, 2, snap.RowCount)
	assert.True(t, snap.Ready)

	var got []Record
	calls := 0
	res, err := s.Import(context.Background(), func(_ context.Context, records []Record) error {
		calls++
		got = records
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Result{Success: 2}, res)
	assert.Len(t, got, 2)
	assert.Equal(t, StateDone, s.State())

	snap = s.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, 2, snap.Result.Success)
}

func TestSession_EmptyFileStaysIdle(t *testing.T) {
	s := NewSession(sessionFields, nil)

	err := s.Load("Name,Email\n\n")
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Import(context.Background(), func(context.Context, []Record) error { return nil })
	assert.ErrorIs(t, err, ErrSessionBusy)
}

func TestSession_ImportFailureReportsWholeBatch(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))

	boom := errors.New("insert failed")
	res, err := s.Import(context.Background(), func(context.Context, []Record) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Result{Errors: 2}, res)
	assert.Equal(t, StateFailed, s.State())
	assert.ErrorIs(t, s.Snapshot().Err, boom)
}

func TestSession_ImportPanicIsFailure(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))

	res, err := s.Import(context.Background(), func(context.Context, []Record) error { panic("nil map") })

	assert.Error(t, err)
	assert.Equal(t, Result{Errors: 2}, res)
	assert.Equal(t, StateFailed, s.State())
}

func TestSession_NotReady(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))
	require.NoError(t, s.Skip("Name"))

	assert.False(t, s.Snapshot().Ready)

	called := false
	_, err := s.Import(context.Background(), func(context.Context, []Record) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, called)
	assert.Equal(t, StateMapping, s.State())
}

func TestSession_RejectsReentrantImport(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Result)

	go func() {
		res, _ := s.Import(context.Background(), func(context.Context, []Record) error {
			close(started)
			<-release
			return nil
		})
		done <- res
	}()

	<-started
	assert.Equal(t, StateImporting, s.State())

	_, err := s.Import(context.Background(), func(context.Context, []Record) error { return nil })
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.ErrorIs(t, s.Load(sampleCSV), ErrSessionBusy)
	assert.ErrorIs(t, s.Assign("Phone", "email"), ErrSessionBusy)

	close(release)
	assert.Equal(t, Result{Success: 2}, <-done)
	assert.Equal(t, StateDone, s.State())
}

func TestSession_LoadAgainAfterDone(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))
	_, err := s.Import(context.Background(), func(context.Context, []Record) error { return nil })
	require.NoError(t, err)

	require.NoError(t, s.Load("Email\nann@x.com\n"))
	snap := s.Snapshot()
	assert.Equal(t, StateMapping, snap.State)
	assert.Nil(t, snap.Result)
	assert.False(t, snap.Ready)
}

func TestSession_ResetDiscardsInFlightResult(t *testing.T) {
	s := NewSession(sessionFields, nil)
	require.NoError(t, s.Load(sampleCSV))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_, _ = s.Import(context.Background(), func(context.Context, []Record) error {
			close(started)
			<-release
			return nil
		})
		close(done)
	}()

	<-started
	s.Reset()
	close(release)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Headers)
}

func TestSession_EditsOnlyWhileMapping(t *testing.T) {
	s := NewSession(sessionFields, nil)
	assert.ErrorIs(t, s.Assign("Name", "name"), ErrSessionBusy)

	require.NoError(t, s.Load(sampleCSV))
	require.NoError(t, s.AssignAt(2, "email"))
	assert.ErrorIs(t, s.Assign("Name", "vin"), ErrUnknownField)

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "555-1111", records[0]["email"], "later column wins")
	_, hasPhone := records[0]["phone"]
	assert.False(t, hasPhone)
}
