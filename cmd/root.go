package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvrpc/cmd/client"
	"github.com/ValentinKolb/kvrpc/cmd/kv"
	"github.com/ValentinKolb/kvrpc/cmd/serve"
	"github.com/ValentinKolb/kvrpc/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvrpc",
		Short: "networked key-value store",
		Long: fmt.Sprintf(`kvrpc (v%s)

A minimal networked key-value store. Clients send PUT, GET and DELETE
operations over RPC to a server that keeps all entries in memory.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvrpc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvrpc v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary, proto)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, http, grpc, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
