/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/spf13/cobra"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Encode a document into a gram",
	Long: `Read a JSON or msgpack document from a file (or stdin) and encode it
into gram bytes. The gram is printed as hex unless --out names a file to
write the raw bytes to.

Example:
  echo '{"kind":"number","dims":[1,3],"data":[1,2,3]}' | mxgram encode`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		codec := container.Codec()
		in, err := bridge.Lookup(format, codec)
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
		encoded, err := codec.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}

		if out != "" {
			if err := os.WriteFile(out, encoded, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			cmd.Printf("Wrote %d bytes to %s\n", len(encoded), out)
			return nil
		}
		cmd.Println(hex.EncodeToString(encoded))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("format", "f", "json", "Input document format (json, msgpack)")
	encodeCmd.Flags().StringP("out", "o", "", "Write raw gram bytes to this file")
}
