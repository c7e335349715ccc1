package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/justestif/habit-garden/internal/web"
	webfs "github.com/justestif/habit-garden/web"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			templates, err := fs.Sub(webfs.TemplatesFS, "templates")
			if err != nil {
				return fmt.Errorf("creating templates filesystem: %w", err)
			}
			static, err := fs.Sub(webfs.StaticFS, "static")
			if err != nil {
				return fmt.Errorf("creating static filesystem: %w", err)
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			server, err := web.NewServer(web.ServerConfig{
				Addr:        addr,
				TemplatesFS: templates,
				StaticFS:    static,
				Session:     sess,
				Logger:      a.log.Named("web"),
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🌱 Garden open at http://%s\n", addr)
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+web.DefaultAddr+")")
	return cmd
}
