/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the header tree of a gram",
	Long: `Print one line per header in a gram, indented by nesting depth. Inspection
stops at the first header that does not parse and reports why.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readGram(cmd, args)
		if err != nil {
			return err
		}

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			cmd.Print(gram.HexDump(data))
		}
		return gram.Describe(cmd.OutOrStdout(), data)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("hex", false, "Input is hex text instead of raw bytes")
	inspectCmd.Flags().Bool("dump", false, "Print a hex dump before the header tree")
}
