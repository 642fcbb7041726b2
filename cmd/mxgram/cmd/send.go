/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [file]",
	Short: "Encode a document and send it as one datagram",
	Long: `Read a JSON or msgpack document, encode it and send the gram over the
configured transport (udp, nats or redis).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		in, err := bridge.Lookup(format, container.Codec())
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		v, err := in.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to read %s document: %w", format, err)
		}

		msg, err := container.Messenger(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open transport: %w", err)
		}
		if err := msg.Send(cmd.Context(), v); err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}

		cmd.Printf("Sent %s over %s\n", v.Kind(), msg.Transport())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringP("format", "f", "json", "Input document format (json, msgpack)")
}
