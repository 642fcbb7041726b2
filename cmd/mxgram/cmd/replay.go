/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/recording"
	"github.com/spf13/cobra"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Print or resend the datagrams of a session recording",
	Long: `Read a recording written by listen --record. Each entry is printed with
its time, source and decoded value. With --send the raw datagrams are sent
again over the configured transport, in order.

Example:
  mxgram replay session.rec --send --pace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		send, _ := cmd.Flags().GetBool("send")
		pace, _ := cmd.Flags().GetBool("pace")

		r, err := recording.OpenReader(args[0])
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer r.Close()

		codec := container.Codec()
		out := bridge.JSON{Stringifier: codec.Stringifier(), Compact: true}

		var previous time.Time
		entries := 0
		for {
			e, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			entries++

			if send {
				if pace && !previous.IsZero() {
					select {
					case <-time.After(e.Time().Sub(previous)):
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					}
				}
				previous = e.Time()

				t, err := container.Transport(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to open transport: %w", err)
				}
				if err := t.Send(cmd.Context(), e.Data); err != nil {
					return fmt.Errorf("entry %d: %w", entries, err)
				}
				continue
			}

			stamp := e.Time().UTC().Format(time.RFC3339Nano)
			v, err := codec.Unmarshal(e.Data)
			if err != nil {
				cmd.Printf("%s %s dropped: %v\n", stamp, e.Source, err)
				continue
			}
			doc, err := out.Encode(v)
			if err != nil {
				return err
			}
			cmd.Printf("%s %s %s\n", stamp, e.Source, doc)
		}

		if send {
			cmd.Printf("Resent %d datagrams\n", entries)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("send", false, "Send the recorded datagrams over the configured transport")
	replayCmd.Flags().Bool("pace", false, "With --send, keep the recorded spacing between datagrams")
}
