package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/realtime"
	"github.com/sufyan2618/project-management/internal/web"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream real-time events until interrupted",
	RunE:  runWatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web front-end",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		out := cmd.OutOrStdout()
		sock := realtime.NewClient(a.Config.Socket.URL)
		sock.OnAny(func(ev realtime.Event) {
			ts := time.Now().Format("15:04:05")
			switch ev.Name {
			case realtime.EventConnect:
				fmt.Fprintf(out, "%s connected (%s)\n", ts, sock.ID())
			case realtime.EventDisconnect:
				fmt.Fprintf(out, "%s disconnected\n", ts)
			default:
				fmt.Fprintf(out, "%s %s %s\n", ts, ev.Name, ev.Raw)
			}
		})

		if err := sock.Connect(ctx, a.State().Token); err != nil {
			return err
		}
		defer sock.Close()

		select {
		case <-ctx.Done():
		case <-sock.Done():
		}
		return nil
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if addr == "" {
			addr = a.Config.Web.Addr
		}
		return serve(ctx, a, addr)
	})
}

// serve runs the web front-end for a until ctx ends
func serve(ctx context.Context, a *app.Context, addr string) error {
	a.RefreshOnEvents()
	a.ConnectSocket(ctx)

	fmt.Printf("Serving TaskFlow on http://%s\n", addr)
	return web.NewServer(a).Run(ctx, addr)
}
