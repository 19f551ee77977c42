package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

// Config captures the runtime details required to open an OPC UA session.
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SecurityMode    string `yaml:"security_mode"`
	SecurityPolicy  string `yaml:"security_policy"`
	ApplicationName string `yaml:"application_name"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "EPICS Frontend"
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}

// Dialer maps channel addresses to OPC UA node reads. One session is
// shared by all channels; it is established lazily on the first Dial and
// torn down by Close.
type Dialer struct {
	cfg    Config
	mu     sync.Mutex
	client *opcua.Client
}

func NewDialer(cfg Config) (*Dialer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Dialer{cfg: cfg}, nil
}

// Dial parses the address as an OPC UA node id and returns a handle bound
// to it. The underlying session is opened on the first call, within the
// caller's deadline.
func (d *Dialer) Dial(ctx context.Context, address string) (ports.Conn, error) {
	nodeID, err := ua.ParseNodeID(address)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", address, err)
	}
	client, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	return &nodeConn{client: client, nodeID: nodeID}, nil
}

// Close shuts the shared session down.
func (d *Dialer) Close(ctx context.Context) error {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Dialer) session(ctx context.Context) (*opcua.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	client, err := opcua.NewClient(d.cfg.Endpoint, d.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opcua connect: %w", err)
	}
	d.client = client
	return client, nil
}

func (d *Dialer) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(d.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(d.cfg.SecurityPolicy)),
		opcua.ApplicationName(d.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if d.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(d.cfg.Username, d.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	return opts
}

type nodeConn struct {
	client *opcua.Client
	nodeID *ua.NodeID
}

// Read fetches the current Value attribute, bounded by the context
// deadline.
func (c *nodeConn) Read(ctx context.Context) (float64, error) {
	req := &ua.ReadRequest{
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []*ua.ReadValueID{
			{NodeID: c.nodeID, AttributeID: ua.AttributeIDValue},
		},
	}
	resp, err := c.client.Read(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("opcua read %s: %w", c.nodeID, err)
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("opcua read %s: empty result", c.nodeID)
	}
	res := resp.Results[0]
	if res.Status != ua.StatusOK {
		return 0, fmt.Errorf("opcua read %s: %s", c.nodeID, res.Status)
	}
	fv, ok := variantToFloat(res.Value)
	if !ok {
		var inner any
		if res.Value != nil {
			inner = res.Value.Value()
		}
		return 0, fmt.Errorf("opcua read %s: unsupported value type %T", c.nodeID, inner)
	}
	return fv, nil
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}

var _ ports.Dialer = (*Dialer)(nil)
