package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// readInput returns the contents of the file named by args, or stdin when
// there is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// readGram reads gram bytes, accepting hex text when --hex is set
func readGram(cmd *cobra.Command, args []string) ([]byte, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	if isHex, _ := cmd.Flags().GetBool("hex"); !isHex {
		return data, nil
	}
	decoded, err := hex.DecodeString(string(bytes.Join(bytes.Fields(data), nil)))
	if err != nil {
		return nil, fmt.Errorf("input is not hex: %w", err)
	}
	return decoded, nil
}
