package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
channels:
  - name: "BL1A:Current"
    address: "ns=2;s=BL1A.Current"
    enabled: true
opcua:
  endpoint: opc.tcp://localhost:4840
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Equipment != "EPICS" {
		t.Fatalf("expected default equipment EPICS, got %s", cfg.Equipment)
	}
	if cfg.Source != "opcua" {
		t.Fatalf("expected default source opcua, got %s", cfg.Source)
	}
	if cfg.UpdateInterval() != time.Second {
		t.Fatalf("expected default update interval 1s, got %s", cfg.UpdateInterval())
	}
	if cfg.Tick() != 500*time.Millisecond {
		t.Fatalf("expected default tick 500ms, got %s", cfg.Tick())
	}
	if cfg.RecordInterval() != 2*time.Second {
		t.Fatalf("expected default record interval 2s, got %s", cfg.RecordInterval())
	}
	if cfg.ConnectTimeout() != 5*time.Second {
		t.Fatalf("expected default connect timeout 5s, got %s", cfg.ConnectTimeout())
	}
	if cfg.ReadTimeout() != 30*time.Second {
		t.Fatalf("expected default read timeout 30s, got %s", cfg.ReadTimeout())
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.ODB.Table != "variables" {
		t.Fatalf("expected default odb table variables, got %s", cfg.ODB.Table)
	}
}

func TestValidateRejectsDuplicateEnabledNames(t *testing.T) {
	cfg := &Config{
		Channels: []ChannelConfig{
			{Name: "ch", Address: "a", Enabled: true},
			{Name: "ch", Address: "b", Enabled: true},
		},
	}
	cfg.ApplyDefaults()
	cfg.OPCUA.Endpoint = "opc.tcp://localhost:4840"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected duplicate name validation error")
	}
}

func TestValidateRequiresEndpointForAddressedChannels(t *testing.T) {
	cfg := &Config{
		Channels: []ChannelConfig{
			{Name: "ch0", Address: "ns=1;s=x", Enabled: true},
		},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing endpoint validation error")
	}

	// Address-less channel sets need no transport at all.
	cfg2 := &Config{
		Channels: []ChannelConfig{
			{Name: "ch0", Enabled: true},
			{Name: "ch1", Enabled: false},
		},
	}
	cfg2.ApplyDefaults()
	if err := cfg2.Validate(); err != nil {
		t.Fatalf("expected config without addresses to validate, got %v", err)
	}
}

func TestValidateUnknownSource(t *testing.T) {
	cfg := &Config{Source: "mqtt"}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown source validation error")
	}
}

func TestDomainChannelsAssignIndices(t *testing.T) {
	cfg := &Config{
		Channels: []ChannelConfig{
			{Name: "a", Address: "x", Enabled: true},
			{Name: "b", Enabled: false},
		},
	}

	chans := cfg.DomainChannels()
	if len(chans) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(chans))
	}
	if chans[0].Index != 0 || chans[1].Index != 1 {
		t.Fatalf("expected indices in list order, got %d and %d", chans[0].Index, chans[1].Index)
	}
	if chans[1].Enabled {
		t.Fatalf("expected channel 1 to stay disabled")
	}
}
