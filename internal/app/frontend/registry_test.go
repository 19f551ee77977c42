package frontend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/internal/domain"
	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

func TestConnectAllSkipsDisabledAndAddressless(t *testing.T) {
	dialer := newFakeDialer()
	dialer.values["ch0"] = 1
	dialer.values["ch2"] = 3

	configs := []domain.ChannelConfig{
		{Name: "n0", Address: "ch0", Enabled: true},
		{Name: "n1", Address: "ch1", Enabled: false},
		{Name: "n2", Address: "ch2", Enabled: true},
		{Name: "n3", Address: "", Enabled: true},
	}

	reg, err := NewRegistry(configs, dialer, &recordingAlarm{}, nil, time.Second)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.ConnectAll(context.Background()); err != nil {
		t.Fatalf("connect all: %v", err)
	}

	if got := dialer.dialed(); len(got) != 2 || got[0] != "ch0" || got[1] != "ch2" {
		t.Fatalf("expected dials for ch0 and ch2 only, got %v", got)
	}

	if _, ok := reg.Handle(0); !ok {
		t.Fatalf("expected handle for channel 0")
	}
	if _, ok := reg.Handle(1); ok {
		t.Fatalf("disabled channel 1 must not have a handle")
	}
	if _, ok := reg.Handle(3); ok {
		t.Fatalf("address-less channel 3 must not have a handle")
	}
	if reg.State(1) != domain.ChannelUnconnected {
		t.Fatalf("disabled channel should stay unconnected, got %s", reg.State(1))
	}
	if reg.State(2) != domain.ChannelConnected {
		t.Fatalf("expected channel 2 connected, got %s", reg.State(2))
	}
}

func TestConnectAllTimeoutIsFatal(t *testing.T) {
	dialer := newFakeDialer()
	dialer.values["ch0"] = 1
	dialer.hang["ch1"] = true

	configs := []domain.ChannelConfig{
		{Name: "n0", Address: "ch0", Enabled: true},
		{Name: "n1", Address: "ch1", Enabled: true},
		{Name: "n2", Address: "ch2", Enabled: true},
	}

	alarm := &recordingAlarm{}
	reg, err := NewRegistry(configs, dialer, alarm, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	err = reg.ConnectAll(context.Background())
	if err == nil {
		t.Fatalf("expected connect timeout to abort initialization")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	// No rollback: the channel before the failing one keeps its handle,
	// the failing one is marked, the one after is never attempted.
	if reg.State(0) != domain.ChannelConnected {
		t.Fatalf("expected channel 0 to stay connected, got %s", reg.State(0))
	}
	if reg.State(1) != domain.ChannelFailed {
		t.Fatalf("expected channel 1 failed, got %s", reg.State(1))
	}
	if reg.State(2) != domain.ChannelUnconnected {
		t.Fatalf("expected channel 2 untouched, got %s", reg.State(2))
	}
	if len(alarm.reports) != 1 || alarm.reports[0].sev != ports.SeverityError {
		t.Fatalf("expected one error alarm, got %+v", alarm.reports)
	}
}

func TestConnectAllEmptyChannelSet(t *testing.T) {
	reg, err := NewRegistry(nil, newFakeDialer(), nil, nil, 0)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.ConnectAll(context.Background()); err != nil {
		t.Fatalf("connect all over N=0: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected N=0, got %d", reg.Len())
	}
}

// ---- shared fakes ----

type fakeDialer struct {
	mu     sync.Mutex
	values map[string]float64
	fail   map[string]bool // read errors
	hang   map[string]bool // dial blocks until deadline
	calls  []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		values: make(map[string]float64),
		fail:   make(map[string]bool),
		hang:   make(map[string]bool),
	}
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (ports.Conn, error) {
	d.mu.Lock()
	d.calls = append(d.calls, address)
	hang := d.hang[address]
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, fmt.Errorf("dial %s: %w", address, ctx.Err())
	}
	return &fakeConn{dialer: d, address: address}, nil
}

func (d *fakeDialer) Close(ctx context.Context) error { return nil }

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *fakeDialer) set(address string, v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[address] = v
}

type fakeConn struct {
	dialer  *fakeDialer
	address string
}

func (c *fakeConn) Read(ctx context.Context) (float64, error) {
	c.dialer.mu.Lock()
	defer c.dialer.mu.Unlock()
	if c.dialer.fail[c.address] {
		return 0, fmt.Errorf("read %s: %w", c.address, context.DeadlineExceeded)
	}
	return c.dialer.values[c.address], nil
}

type alarmReport struct {
	sev    ports.Severity
	source string
	msg    string
}

type recordingAlarm struct {
	mu      sync.Mutex
	reports []alarmReport
}

func (a *recordingAlarm) Report(sev ports.Severity, source, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, alarmReport{sev: sev, source: source, msg: msg})
}
