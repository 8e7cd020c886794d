package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/services"
)

// lineSource yields one bridge message per line of r.
type lineSource struct {
	scanner *bufio.Scanner
	decoder *services.EventDecoder
}

func newLineSource(r io.Reader) *lineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), config.MaxBridgeMessageBytes)
	return &lineSource{
		scanner: scanner,
		decoder: services.NewEventDecoder(),
	}
}

func (s *lineSource) Next(ctx context.Context) (models.MeetingEvent, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return models.MeetingEvent{}, err
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return s.decoder.Decode(line)
	}
	if err := s.scanner.Err(); err != nil {
		return models.MeetingEvent{}, err
	}
	return models.MeetingEvent{}, io.EOF
}

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Replay recorded bridge events and print every layout update",
		Long: "Feeds a file of bridge messages, one JSON message per line, through a live session " +
			"with coalescing disabled and prints each resulting layout update. Use - for stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out := cmd.OutOrStdout()
			var writeErr error
			session := services.NewSession("replay", 0, services.NewMetrics(), func(update models.LayoutUpdate, _ models.Assignment) {
				if writeErr == nil {
					writeErr = writeJSON(out, update, false)
				}
			})
			defer session.Close()

			if err := session.Consume(cmd.Context(), newLineSource(in)); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("replaying events: %w", err)
			}
			return writeErr
		},
	}

	return cmd
}
