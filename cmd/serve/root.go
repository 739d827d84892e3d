package serve

import (
	cmdUtil "github.com/ValentinKolb/kvrpc/cmd/util"
	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:   "serve <port> [simulatedProcessingTimeMs]",
		Short: "Start the kvrpc server",
		Long: `Start the kvrpc server on the given port. Every call can be delayed by an optional simulated processing time in milliseconds (negative values count as 0).

The configuration can be set via command line flags, environment variables or a YAML file (--config). The format of the environment variables is KVRPC_<flag> (e.g. KVRPC_SHUTDOWN_GRACE=10s). Flags and environment variables take precedence over the file.`,
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "host"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0", cmdUtil.WrapString("The address on which the server will listen"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for writing a response"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close connections without a request for this many seconds (0 = never)"))

	key = "max-calls-per-conn"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of concurrent calls per connection (0 = unlimited)"))

	key = "shutdown-grace"
	ServeCmd.PersistentFlags().Duration(key, common.DefaultShutdownGracePeriod, cmdUtil.WrapString("How long in-flight calls may finish after SIGINT/SIGTERM before they are cancelled"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Serve prometheus metrics at http://<endpoint>/metrics (e.g. 0.0.0.0:9090), disabled if empty"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "config"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path to a YAML configuration file"))
}

// processConfig reads the configuration from the arguments, the config file, the command line flags
// and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, args []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	if path := viper.GetString("config"); path != "" {
		fileConfig, err := common.LoadServerConfigFile(path)
		if err != nil {
			return err
		}
		serveCmdConfig = fileConfig
	}

	// without a file every flag applies, with one only flags and environment variables that are set
	isSet := func(key string) bool {
		return viper.GetString("config") == "" || viper.IsSet(key)
	}
	if isSet("timeout") {
		serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	}
	if isSet("idle-timeout") {
		serveCmdConfig.IdleTimeoutSecond = viper.GetInt64("idle-timeout")
	}
	if isSet("max-calls-per-conn") {
		serveCmdConfig.Transport.MaxCallsPerConn = viper.GetInt("max-calls-per-conn")
	}
	if isSet("shutdown-grace") {
		serveCmdConfig.ShutdownGracePeriod = viper.GetDuration("shutdown-grace")
	}
	if isSet("metrics-endpoint") {
		serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	}
	if isSet("log-level") {
		serveCmdConfig.LogLevel = viper.GetString("log-level")
	}

	// the positional arguments always win
	port, err := cmdUtil.ParsePort(args[0])
	if err != nil {
		return err
	}
	serveCmdConfig.Transport.Endpoint = cmdUtil.JoinHostPort(viper.GetString("host"), port)

	if len(args) == 2 {
		delay, err := cmdUtil.ParseDelayMillis(args[1])
		if err != nil {
			return err
		}
		serveCmdConfig.SimulatedProcessingTime = delay
	}

	// the level of the flag, the environment or the file, set before the server logs
	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the kvrpc server
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}
