package epics2midas

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackRecordSink(t *testing.T) {
	var received [][]byte
	sink := NewCallbackRecordSink("cb", func(rec []byte) error {
		received = append(received, rec)
		return nil
	})

	input := []byte{0x00, 0x00, 0xa0, 0x40}

	if err := sink.WriteRecord(input); err != nil {
		t.Fatalf("WriteRecord returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 record, got %d", len(received))
	}
	if !bytes.Equal(received[0], input) {
		t.Fatalf("mismatched record payload: %x vs %x", received[0], input)
	}
}

func TestNewCallbackRecordSinkNilHandler(t *testing.T) {
	sink := NewCallbackRecordSink("", nil)
	if err := sink.WriteRecord([]byte{1}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelRecordSink(t *testing.T) {
	sink, ch, closeFn := NewChannelRecordSink("chan", 1)
	defer closeFn()

	input := []byte{1, 2, 3, 4}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.WriteRecord(input)
	}()

	var rec []byte
	select {
	case rec = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel record")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("WriteRecord returned error: %v", err)
	}
	if !bytes.Equal(rec, input) {
		t.Fatalf("unexpected record data: %x", rec)
	}

	closeFn()
	if err := sink.WriteRecord(input); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelRecordSinkCopiesPayload(t *testing.T) {
	sink, ch, closeFn := NewChannelRecordSink("chan", 1)
	defer closeFn()

	input := []byte{9, 9, 9, 9}
	if err := sink.WriteRecord(input); err != nil {
		t.Fatalf("WriteRecord returned error: %v", err)
	}
	input[0] = 0

	rec := <-ch
	if rec[0] != 9 {
		t.Fatalf("expected sink to copy the payload, got %x", rec)
	}
}
