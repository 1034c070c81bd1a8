package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
	"github.com/vango-dev/treepatch/pkg/protocol"
	"github.com/vango-dev/treepatch/pkg/render"
)

type applyOptions struct {
	base    string
	rootTag string
	output  string
	pretty  bool
	minify  bool
	strict  bool
	diff    bool
}

func applyCmd(g *globalOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply PATCH...",
		Short: "Apply patch files to a tree and print the result",
		Long: `Apply one or more patch files to a tree and print the serialized result.

Patch files ending in .yaml or .yml are read as scripts; anything else
is read as a binary batch. Batches are applied in order and each starts
with the cursor at the root.

The base tree is read from --base. Markup with a single root element
uses that element as the root; anything else is wrapped in --root-tag.

Examples:
  treepatch apply --base page.html edits.yaml
  treepatch apply --base page.html --diff a.yaml b.bin
  treepatch apply --minify -o out.html edits.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pretty") {
				opts.pretty = g.cfg.Render.Pretty
			}
			if !cmd.Flags().Changed("minify") {
				opts.minify = g.cfg.Render.Minify
			}
			if !cmd.Flags().Changed("strict") {
				opts.strict = g.cfg.Applier.StrictDescent
			}
			return runApply(cmd.OutOrStdout(), cmd.InOrStdin(), opts, g.cfg.Render.Indent, args)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", "", `Base markup file ("-" for stdin, empty for an empty root)`)
	cmd.Flags().StringVar(&opts.rootTag, "root-tag", "div", "Tag of the wrapping root element")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Minify the output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject down into text nodes immediately")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Print a line diff of the tree before and after instead of the result")
	cmd.MarkFlagsMutuallyExclusive("pretty", "minify")

	return cmd
}

func runApply(stdout io.Writer, stdin io.Reader, opts *applyOptions, indent string, patches []string) error {
	root, err := loadBase(stdin, opts.base, opts.rootTag)
	if err != nil {
		return err
	}

	diffRenderer := render.NewRenderer(render.RendererConfig{Pretty: true, Indent: indent})
	var before string
	if opts.diff {
		if before, err = diffRenderer.RenderToString(root); err != nil {
			return err
		}
	}

	var aopts []applier.Option
	if opts.strict {
		aopts = append(aopts, applier.WithStrictDescent())
	}
	a := applier.New(root, aopts...)

	for _, path := range patches {
		batch, err := readBatch(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		a.Reset()
		if err := batch.ApplyTo(a); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		slog.Debug("applied patch", "file", path, "seq", batch.Seq, "ops", len(batch.Ops))
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if opts.diff {
		after, err := diffRenderer.RenderToString(root)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, lineDiff(before, after))
		return err
	}

	r := render.NewRenderer(render.RendererConfig{Pretty: opts.pretty, Indent: indent, Minify: opts.minify})
	if err := r.RenderToWriter(out, root); err != nil {
		return err
	}
	if !opts.pretty {
		_, err = io.WriteString(out, "\n")
	}
	return err
}

// loadBase reads the starting tree.
func loadBase(stdin io.Reader, path, rootTag string) (*dom.Element, error) {
	if path == "" {
		return dom.NewElement(rootTag), nil
	}

	nodes, err := readMarkup(stdin, path)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		if el, ok := nodes[0].(*dom.Element); ok {
			return el, nil
		}
	}
	return dom.NewElement(rootTag).Append(nodes...), nil
}

// readMarkup parses the file at path, or stdin when path is "-".
func readMarkup(stdin io.Reader, path string) ([]dom.Node, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return dom.Parse(r)
}

// readBatch loads a YAML script or a binary batch, optionally framed.
func readBatch(path string) (*protocol.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return protocol.ParseScript(data)
	}

	batch, err := protocol.DecodeBatch(data)
	if err == nil {
		return batch, nil
	}
	// Accept a single batch frame as written by "encode --frame".
	if f, ferr := protocol.DecodeFrame(data); ferr == nil &&
		f.Type == protocol.FrameBatch && len(data) == protocol.FrameHeaderSize+len(f.Payload) {
		return protocol.DecodeBatch(f.Payload)
	}
	return nil, errors.FromError(err, errors.CodeMalformed)
}
