package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
transport:
  endpoint: 127.0.0.1:9000
  max_calls_per_conn: 8
  tcp_nodelay: false
simulated_processing_time: 250ms
shutdown_grace_period: 2s
metrics_endpoint: 127.0.0.1:9100
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadServerConfigFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if config.Transport.Endpoint != "127.0.0.1:9000" {
		t.Errorf("endpoint = %s", config.Transport.Endpoint)
	}
	if config.Transport.MaxCallsPerConn != 8 {
		t.Errorf("max calls per conn = %d", config.Transport.MaxCallsPerConn)
	}
	if config.Transport.TCPNoDelay {
		t.Errorf("tcp nodelay should be overridden to false")
	}
	if config.SimulatedProcessingTime != 250*time.Millisecond {
		t.Errorf("simulated processing time = %s", config.SimulatedProcessingTime)
	}
	if config.ShutdownGracePeriod != 2*time.Second {
		t.Errorf("shutdown grace = %s", config.ShutdownGracePeriod)
	}
	// untouched defaults survive
	if config.Transport.BufferSize != 64*1024 {
		t.Errorf("buffer size default lost: %d", config.Transport.BufferSize)
	}
	if !strings.Contains(config.String(), "127.0.0.1:9100") {
		t.Errorf("metrics endpoint missing from String():\n%s", config.String())
	}
}

func TestLoadServerConfigFileErrors(t *testing.T) {
	if _, err := LoadServerConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("transport: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadServerConfigFile(path); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("level %q: %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
