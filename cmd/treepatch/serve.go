package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/treepatch/internal/config"
	"github.com/vango-dev/treepatch/pkg/render"
	"github.com/vango-dev/treepatch/pkg/server"
	"github.com/vango-dev/treepatch/pkg/snapshot"
)

func serveCmd(g *globalOptions) *cobra.Command {
	var (
		addr string
		base string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live host",
		Long: `Run an HTTP server that holds a live tree.

Batches are POSTed to /patches or streamed over the WebSocket at /ws.
The current tree is served as a document at / and as a fragment at
/tree. Snapshots are kept in memory or in S3, depending on the
snapshot section of the config file.

Examples:
  treepatch serve
  treepatch serve --addr :9000 --base page.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				g.cfg.Server.Addr = addr
			}
			srv := server.New(serverConfig(g.cfg))

			if base != "" {
				nodes, err := readMarkup(cmd.InOrStdin(), base)
				if err != nil {
					return err
				}
				if err := srv.Load(nodes...); err != nil {
					return err
				}
				slog.Info("loaded base markup", "file", base, "nodes", len(nodes))
			}
			if g.cfg.Snapshot.Backend != "s3" {
				warn(cmd.ErrOrStderr(), "Snapshots are kept in memory and lost on exit")
			}
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVarP(&base, "base", "b", "", "Markup loaded as the children of the live root")

	return cmd
}

// serverConfig maps the file configuration onto the host configuration.
func serverConfig(cfg *config.Config) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = cfg.Server.Addr
	sc.PathPrefix = cfg.Server.PathPrefix
	if cfg.Server.Title != "" {
		sc.Title = cfg.Server.Title
	}
	sc.MaxBodyBytes = cfg.Server.MaxBodyBytes
	sc.Render = render.RendererConfig{
		Pretty: cfg.Render.Pretty,
		Indent: cfg.Render.Indent,
		Minify: cfg.Render.Minify,
	}
	sc.StrictDescent = cfg.Applier.StrictDescent
	sc.EnableMetrics = cfg.Metrics.Enabled
	if cfg.Metrics.Namespace != "" {
		sc.MetricsNamespace = cfg.Metrics.Namespace
	}
	sc.Store = snapshotStore(cfg.Snapshot)
	return sc
}

func snapshotStore(cfg config.SnapshotConfig) snapshot.Store {
	if cfg.Backend != "s3" {
		return snapshot.NewMemoryStore()
	}
	slog.Info("using s3 snapshot store", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	client := snapshot.NewS3Client(snapshot.S3Options{
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.PathStyle,
	})
	return snapshot.NewS3Store(client, cfg.Bucket, cfg.Prefix)
}
