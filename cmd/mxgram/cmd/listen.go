/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/spf13/cobra"
)

// errListenDone stops Listen once --count values have been printed
var errListenDone = errors.New("listen: count reached")

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print grams received on the configured transport",
	Long: `Receive grams from the configured transport and print each decoded value
as a JSON document on its own line. Datagrams that do not decode are
dropped and logged. Runs until interrupted or until --count values have
been printed. With --record every raw datagram, dropped ones included, is
appended to a session recording that replay can read back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if cmd.Flags().Changed("record") {
			container.Config().Recording.Path, _ = cmd.Flags().GetString("record")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		codec := container.Codec()
		out := bridge.JSON{Stringifier: codec.Stringifier(), Compact: true}

		msg, err := container.Messenger(ctx)
		if err != nil {
			return fmt.Errorf("failed to open transport: %w", err)
		}
		cmd.PrintErrf("Listening on %s\n", msg.Transport())

		seen := 0
		err = msg.Listen(ctx, func(v gram.Value) error {
			doc, err := out.Encode(v)
			if err != nil {
				return err
			}
			cmd.Println(string(doc))
			seen++
			if count > 0 && seen >= count {
				return errListenDone
			}
			return nil
		})
		if errors.Is(err, errListenDone) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().IntP("count", "n", 0, "Stop after this many values (0 means run until interrupted)")
	listenCmd.Flags().String("record", "", "Append received datagrams to this recording file (overrides recording.path)")
}
