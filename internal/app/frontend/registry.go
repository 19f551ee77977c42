package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/internal/domain"
	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// DefaultConnectTimeout bounds each channel's connect at startup.
const DefaultConnectTimeout = 5 * time.Second

// Registry owns the mapping from channel index to live handle. Handles are
// created once by ConnectAll and never recreated on failure; a failed read
// later on leaves the handle in place.
type Registry struct {
	dialer         ports.Dialer
	alarm          ports.AlarmSink
	obs            ports.Observability
	connectTimeout time.Duration

	channels []channelSlot
}

type channelSlot struct {
	cfg   domain.ChannelConfig
	conn  ports.Conn
	state domain.ChannelState
}

// NewRegistry builds an unconnected registry over the configured channels.
// Indices are assigned from list order.
func NewRegistry(configs []domain.ChannelConfig, dialer ports.Dialer, alarm ports.AlarmSink, obs ports.Observability, connectTimeout time.Duration) (*Registry, error) {
	if dialer == nil {
		return nil, fmt.Errorf("registry: dialer is required")
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	slots := make([]channelSlot, len(configs))
	for i, cfg := range configs {
		cfg.Index = i
		slots[i] = channelSlot{cfg: cfg, state: domain.ChannelUnconnected}
	}
	return &Registry{
		dialer:         dialer,
		alarm:          alarm,
		obs:            obs,
		connectTimeout: connectTimeout,
		channels:       slots,
	}, nil
}

// Len returns the fixed channel count N.
func (r *Registry) Len() int { return len(r.channels) }

// ConnectAll opens every enabled, addressed channel, blocking up to the
// connect timeout per channel. The first timeout or transport failure
// aborts initialization with a hard error; channels connected before the
// failing one keep their handles (no rollback). Disabled and address-less
// channels are skipped and stay unconnected.
func (r *Registry) ConnectAll(ctx context.Context) error {
	var connected int
	for i := range r.channels {
		slot := &r.channels[i]
		if !slot.cfg.Enabled {
			r.logInfo("channel_skipped", i, slot.cfg.Name, "disabled")
			continue
		}
		if !slot.cfg.HasAddress() {
			r.logInfo("channel_skipped", i, slot.cfg.Name, "no address")
			continue
		}

		dctx, cancel := context.WithTimeout(ctx, r.connectTimeout)
		conn, err := r.dialer.Dial(dctx, slot.cfg.Address)
		cancel()
		if err != nil {
			slot.state = domain.ChannelFailed
			if r.alarm != nil {
				r.alarm.Report(ports.SeverityError, "frontend_init",
					fmt.Sprintf("cannot connect to channel %s (%s): %v", slot.cfg.Name, slot.cfg.Address, err))
			}
			return fmt.Errorf("connect channel %d %q: %w", i, slot.cfg.Name, err)
		}
		slot.conn = conn
		slot.state = domain.ChannelConnected
		connected++
		r.logInfo("channel_connected", i, slot.cfg.Name, slot.cfg.Address)
	}
	if r.obs != nil {
		r.obs.SetGauge("e2m_channels_connected", float64(connected))
	}
	return nil
}

// Handle returns the live connection for an index, or false for disabled,
// address-less, or unconnected channels.
func (r *Registry) Handle(index int) (ports.Conn, bool) {
	if index < 0 || index >= len(r.channels) {
		return nil, false
	}
	slot := r.channels[index]
	if slot.state != domain.ChannelConnected || slot.conn == nil {
		return nil, false
	}
	return slot.conn, true
}

// Config returns the channel configuration for an index.
func (r *Registry) Config(index int) domain.ChannelConfig {
	if index < 0 || index >= len(r.channels) {
		return domain.ChannelConfig{Index: index}
	}
	return r.channels[index].cfg
}

// State exposes the lifecycle state for diagnostics and tests.
func (r *Registry) State(index int) domain.ChannelState {
	if index < 0 || index >= len(r.channels) {
		return domain.ChannelUnconnected
	}
	return r.channels[index].state
}

func (r *Registry) logInfo(msg string, index int, name, detail string) {
	if r.obs == nil {
		return
	}
	r.obs.LogInfo(msg,
		ports.Field{Key: "channel", Value: index},
		ports.Field{Key: "name", Value: name},
		ports.Field{Key: "detail", Value: detail})
}
