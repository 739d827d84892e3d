package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultClientTimeout is how long a client waits for a response
	DefaultClientTimeout = 10 * time.Second
	// DefaultShutdownGracePeriod is how long in-flight calls may run after a shutdown signal
	DefaultShutdownGracePeriod = 5 * time.Second
)

// --------------------------------------------------------------------------
// Transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds socket level options shared by all stream transports
type SocketConf struct {
	WriteBufferSize int `yaml:"write_buffer_size"`
	ReadBufferSize  int `yaml:"read_buffer_size"`
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool `yaml:"tcp_nodelay"`
	TCPKeepAliveSec int  `yaml:"tcp_keepalive_sec"`
	TCPLingerSec    int  `yaml:"tcp_linger_sec"`
}

// ServerTransportConfig holds the options of the server transport layer
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port)
	Endpoint string `yaml:"endpoint"`
	// MaxCallsPerConn limits concurrent calls per connection, 0 means unlimited
	MaxCallsPerConn int `yaml:"max_calls_per_conn"`
	// BufferSize is the size of the pooled frame buffers
	BufferSize int `yaml:"buffer_size"`

	SocketConf `yaml:",inline"`
	TCPConf    `yaml:",inline"`
}

// ClientTransportConfig holds the options of the client transport layer
type ClientTransportConfig struct {
	Endpoints              []string `yaml:"endpoints"`
	ConnectionsPerEndpoint int      `yaml:"connections_per_endpoint"`

	SocketConf `yaml:",inline"`
	TCPConf    `yaml:",inline"`
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the RPC server.
type ServerConfig struct {
	Transport ServerTransportConfig `yaml:"transport"`

	// SimulatedProcessingTime is added to every call before the store is touched
	SimulatedProcessingTime time.Duration `yaml:"simulated_processing_time"`

	// TimeoutSecond bounds writing a response, IdleTimeoutSecond closes silent connections (0 = never)
	TimeoutSecond     int64 `yaml:"timeout_second"`
	IdleTimeoutSecond int64 `yaml:"idle_timeout_second"`

	// ShutdownGracePeriod is how long in-flight calls may finish after a shutdown signal
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`

	// MetricsEndpoint serves prometheus metrics if set (e.g. 0.0.0.0:9090)
	MetricsEndpoint string `yaml:"metrics_endpoint"`

	// LogLevel is applied once by the serve command (see InitLoggers)
	LogLevel string `yaml:"log_level"`
}

// DefaultServerConfig returns a server configuration with all defaults applied
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint:   "0.0.0.0:8080",
			BufferSize: 64 * 1024,
			TCPConf:    TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
		TimeoutSecond:       5,
		ShutdownGracePeriod: DefaultShutdownGracePeriod,
		LogLevel:            "info",
	}
}

// LoadServerConfigFile reads a YAML configuration file on top of the defaults
func LoadServerConfigFile(path string) (ServerConfig, error) {
	config := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if config.SimulatedProcessingTime < 0 {
		config.SimulatedProcessingTime = 0
	}
	return config, nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-24s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Simulated Processing", c.SimulatedProcessingTime.String())
	addField("Write Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.IdleTimeoutSecond))
	addField("Shutdown Grace Period", c.ShutdownGracePeriod.String())
	addField("Max Calls Per Conn", strconv.Itoa(c.Transport.MaxCallsPerConn))

	// Metrics
	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters of the RPC client.
type ClientConfig struct {
	// Timeout bounds the wait for a single response
	Timeout   time.Duration
	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-24s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", c.Timeout.String())
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
