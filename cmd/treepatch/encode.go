package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/protocol"
)

func encodeCmd(g *globalOptions) *cobra.Command {
	var (
		output string
		frame  bool
		seq    uint64
	)

	cmd := &cobra.Command{
		Use:   "encode SCRIPT",
		Short: "Encode a YAML script as a binary batch",
		Long: `Encode a YAML patch script in the binary batch format accepted by
POST /patches, or as a complete batch frame for the WebSocket channel.

Examples:
  treepatch encode edits.yaml -o edits.bin
  treepatch encode --frame --seq 7 edits.yaml -o edits.frame`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			batch, err := protocol.ParseScript(data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seq") {
				batch.Seq = seq
			}

			payload := protocol.EncodeBatch(batch)
			if frame {
				if len(payload) > protocol.MaxPayloadSize {
					return errors.New(errors.CodeFrameTooLarge).WithOp("encode")
				}
				payload = protocol.NewFrame(protocol.FrameBatch, payload).Encode()
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(payload)
				return err
			}
			if err := os.WriteFile(output, payload, 0644); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Encoded %d operations (%d bytes) to %s", len(batch.Ops), len(payload), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&frame, "frame", false, "Wrap the batch in a WebSocket batch frame")
	cmd.Flags().Uint64Var(&seq, "seq", 0, "Override the batch sequence number")

	return cmd
}

func decodeCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode BATCH",
		Short: "Print a binary batch as a YAML script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readBatch(args[0])
			if err != nil {
				return err
			}
			data, err := protocol.MarshalScript(batch)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	return cmd
}
