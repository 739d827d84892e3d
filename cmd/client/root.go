package client

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/kvrpc/cmd/util"
	rpcclient "github.com/ValentinKolb/kvrpc/rpc/client"
	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const demoKeys = 5

var (
	clientEndpoint string

	// ClientCmd runs the demo calls followed by an interactive session
	ClientCmd = &cobra.Command{
		Use:   "client <ip> <port>",
		Short: "Start an interactive kvrpc client",
		Long: `Connect to a kvrpc server, send 5 PUT, 5 GET and 5 DELETE requests and then read commands from stdin:

  put <key> <value>
  get <key>
  delete <key>
  help

A blank line or the end of the input ends the session.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: processClientConfig,
		RunE:    runClient,
	}
)

func init() {
	util.SetupRPCClientFlags(ClientCmd)
}

func processClientConfig(cmd *cobra.Command, args []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	port, err := util.ParsePort(args[1])
	if err != nil {
		return err
	}
	clientEndpoint = util.JoinHostPort(args[0], port)

	return common.InitLoggers(viper.GetString("log-level"))
}

func runClient(cmd *cobra.Command, _ []string) error {
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	util.Logger.Infof("Starting client")
	rpcClient, err := rpcclient.NewRPCClient(*util.GetClientConfig([]string{clientEndpoint}), t, s)
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runDemo(ctx, rpcClient)

	reader := NewCommandReader(rpcClient, cmd.InOrStdin())
	err = reader.Run(ctx)

	util.Logger.Infof("Session statistics:%s", rpcClient.Stats())
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// runDemo sends the initial PUT, GET and DELETE requests for Key0..Key4.
// Failures are logged by the client and do not stop the demo.
func runDemo(ctx context.Context, c KeyValueClient) {
	util.Logger.Infof("Sending %d initial PUT requests", demoKeys)
	for i := 0; i < demoKeys; i++ {
		_ = c.Put(ctx, fmt.Sprintf("Key%d", i), fmt.Sprintf("Value%d", i))
	}

	util.Logger.Infof("Sending %d initial GET requests", demoKeys)
	for i := 0; i < demoKeys; i++ {
		_, _, _ = c.Get(ctx, fmt.Sprintf("Key%d", i))
	}

	util.Logger.Infof("Sending %d initial DELETE requests", demoKeys)
	for i := 0; i < demoKeys; i++ {
		_, _ = c.Delete(ctx, fmt.Sprintf("Key%d", i))
	}
}
