package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/minkdb/internal/config"
	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
	"github.com/0xRadioAc7iv/minkdb/internal/repl"
	"github.com/0xRadioAc7iv/minkdb/minkdb"
)

func main() {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:           "minkdb-cli",
		Short:         "Interactive client for a MinkDB server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := minkdb.Connect(minkdb.WithHost(host), minkdb.WithPort(port))
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected to %v:%d\n", host, port)
			fmt.Fprintln(out, "Type commands. 'help' for information or 'exit' to quit.")

			target := fmt.Sprintf("%s:%d", host, port)
			r := repl.New(func(_ context.Context, c *protocol.Command) (protocol.Response, error) {
				return client.Execute(c.Cmd, c.Key, c.Val)
			}, target, repl.WithPrompt("> "))

			return r.Run(cmd.Context(), cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "MinkDB server host")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "MinkDB server port")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
