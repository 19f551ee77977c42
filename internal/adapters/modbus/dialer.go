package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"

	"github.com/goburrow/modbus"
)

// Config holds the transport details for a Modbus TCP bridge serving
// process variables as register pairs.
type Config struct {
	Endpoint string        `yaml:"endpoint"`
	UnitID   uint8         `yaml:"unit_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.UnitID == 0 {
		c.UnitID = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}

// Dialer maps channel addresses to Modbus register reads. An address is a
// register number, optionally prefixed with the table: "holding:100" or
// "input:100" (bare numbers mean holding registers). Each value occupies
// two consecutive registers interpreted as a big-endian float32.
//
// The underlying client has no context plumbing; reads block up to the
// configured transport timeout, which is the only way they return early.
type Dialer struct {
	cfg     Config
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

func NewDialer(cfg Config) (*Dialer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	handler := modbus.NewTCPClientHandler(cfg.Endpoint)
	handler.Timeout = cfg.Timeout
	handler.SlaveId = cfg.UnitID
	return &Dialer{
		cfg:     cfg,
		handler: handler,
		client:  modbus.NewClient(handler),
	}, nil
}

func (d *Dialer) Dial(ctx context.Context, address string) (ports.Conn, error) {
	table, register, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	// One TCP connection shared by all channels; Connect is idempotent.
	if err := d.handler.Connect(); err != nil {
		return nil, fmt.Errorf("modbus connect %s: %w", d.cfg.Endpoint, err)
	}
	return &registerConn{client: d.client, table: table, register: register}, nil
}

func (d *Dialer) Close(ctx context.Context) error {
	return d.handler.Close()
}

type registerConn struct {
	client   modbus.Client
	table    string
	register uint16
}

func (c *registerConn) Read(ctx context.Context) (float64, error) {
	var (
		raw []byte
		err error
	)
	switch c.table {
	case "input":
		raw, err = c.client.ReadInputRegisters(c.register, 2)
	default:
		raw, err = c.client.ReadHoldingRegisters(c.register, 2)
	}
	if err != nil {
		return 0, fmt.Errorf("modbus read %s:%d: %w", c.table, c.register, err)
	}
	if len(raw) < 4 {
		return 0, fmt.Errorf("modbus read %s:%d: short payload %d bytes", c.table, c.register, len(raw))
	}
	bits := binary.BigEndian.Uint32(raw[:4])
	return float64(math.Float32frombits(bits)), nil
}

func parseAddress(address string) (table string, register uint16, err error) {
	table = "holding"
	reg := address
	if i := strings.IndexByte(address, ':'); i >= 0 {
		table = strings.ToLower(address[:i])
		reg = address[i+1:]
	}
	if table != "holding" && table != "input" {
		return "", 0, fmt.Errorf("modbus address %q: unknown register table %q", address, table)
	}
	u, err := strconv.ParseUint(reg, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("modbus address %q: %w", address, err)
	}
	return table, uint16(u), nil
}

var _ ports.Dialer = (*Dialer)(nil)
