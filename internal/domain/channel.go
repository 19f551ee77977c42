package domain

// ChannelConfig describes one remotely addressable process variable.
// Index order in the configuration is channel order for the whole process
// lifetime; the channel count is fixed once connections are established.
type ChannelConfig struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

// HasAddress reports whether the channel points at a readable remote
// variable. Channels with an empty address are write-only or unused and
// never receive a handle.
func (c ChannelConfig) HasAddress() bool {
	return c.Address != ""
}

// ChannelState tracks the lifecycle of a channel handle.
type ChannelState int

const (
	ChannelUnconnected ChannelState = iota
	ChannelConnected
	ChannelFailed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelConnected:
		return "connected"
	case ChannelFailed:
		return "failed"
	default:
		return "unconnected"
	}
}
