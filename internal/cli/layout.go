package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/damione1/recording-view/internal/layout"
	"github.com/damione1/recording-view/internal/services"
)

func NewLayoutCmd() *cobra.Command {
	var speaker string
	var compact bool

	cmd := &cobra.Command{
		Use:   "layout <roster.json>",
		Short: "Print the layout chosen for a roster",
		Long: "Reads a roster (a JSON array of participants or a roster_snapshot bridge message) " +
			"and prints the template and slot assignment the recording view would show. Use - for stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading roster: %w", err)
			}

			participants, err := services.NewEventDecoder().DecodeRoster(data)
			if err != nil {
				return fmt.Errorf("decoding roster: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), layout.Select(participants, speaker), !compact)
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "", "ID of the active speaker")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")

	return cmd
}
