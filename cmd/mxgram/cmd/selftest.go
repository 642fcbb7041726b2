/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/spf13/cobra"
)

// selftestCmd represents the selftest command
var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check numeric fidelity and round trips",
	Long: `Run the numeric sanity sweep (uint16 and double values through the
encoder) and round-trip a sample value through every registered format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gram.SelfTest(cmd.OutOrStdout()); err != nil {
			return err
		}

		codec := container.Codec()
		sample := selfTestValue()
		for _, name := range bridge.Names() {
			enc, err := bridge.Lookup(name, codec)
			if err != nil {
				return err
			}
			data, err := enc.Encode(sample)
			if err != nil {
				return fmt.Errorf("%s encode: %w", name, err)
			}
			got, err := enc.Decode(data)
			if err != nil {
				return fmt.Errorf("%s decode: %w", name, err)
			}
			if !gram.Equal(sample, got) {
				return fmt.Errorf("%s round trip changed the value", name)
			}
			cmd.Printf("Round trip %-8s ok (%d bytes)\n", name, len(data))
		}
		return nil
	},
}

func selfTestValue() gram.Value {
	r := gram.NewRecord([]string{"name", "xy", "visible"}, 2)
	_ = r.Set(0, "name", gram.NewText("fixation"))
	_ = r.Set(0, "xy", gram.RowVector(0, 0))
	_ = r.Set(0, "visible", gram.Flags(true))
	_ = r.Set(1, "name", gram.NewText("target"))
	_ = r.Set(1, "xy", gram.RowVector(-7.5, 3.25))
	_ = r.Set(1, "visible", gram.Flags(false))
	return gram.NewList(r, &gram.Number{Rows: 2, Cols: 2, Data: []float64{1, 2, 3, 4}}, nil)
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
