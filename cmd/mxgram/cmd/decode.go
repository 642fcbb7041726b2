/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/spf13/cobra"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a gram into a document",
	Long: `Read gram bytes from a file (or stdin) and print the decoded value as a
JSON or msgpack document. Use --hex when the input is hex text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		codec := container.Codec()
		out, err := bridge.Lookup(format, codec)
		if err != nil {
			return err
		}

		data, err := readGram(cmd, args)
		if err != nil {
			return err
		}
		v, err := codec.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("failed to decode: %w", err)
		}
		doc, err := out.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to write %s document: %w", format, err)
		}

		if _, err := cmd.OutOrStdout().Write(doc); err != nil {
			return err
		}
		if format == "json" {
			cmd.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("format", "f", "json", "Output document format (json, msgpack)")
	decodeCmd.Flags().Bool("hex", false, "Input is hex text instead of raw bytes")
}
