package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShashankBhutiya/TallyAI/internal/config"
	"github.com/ShashankBhutiya/TallyAI/internal/pipeline"
)

func newProcessCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "process <folder>",
		Short: "Process invoice images in a folder and post vouchers to Tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cfgPath, args[0])
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file (default: environment only)")

	return cmd
}

func runProcess(cfgPath, folder string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	proc, _, err := newProcessor(cfg, logger)
	if err != nil {
		return err
	}

	// The batch run reports through events on its own goroutine; the CLI
	// just renders them and waits for the terminal one.
	done := make(chan error, 1)
	sink := pipeline.SinkFunc(func(ev pipeline.Event) {
		switch ev.Kind {
		case pipeline.EventSucceeded:
			fmt.Println("✓ " + ev.Message)
			done <- nil
		case pipeline.EventFailed:
			done <- errors.New(ev.Message)
		case pipeline.EventSkipped:
			fmt.Println("! " + ev.Message)
		default:
			fmt.Println(ev.Message)
		}
	})

	proc.ProcessFolder(context.Background(), folder, sink)
	return <-done
}
