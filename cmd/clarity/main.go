package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/clarity/pkg/config"
	"github.com/harrisonrobin/clarity/pkg/duewatch"
	"github.com/harrisonrobin/clarity/pkg/gcal"
	"github.com/harrisonrobin/clarity/pkg/jira"
	"github.com/harrisonrobin/clarity/pkg/store"
	"github.com/harrisonrobin/clarity/pkg/sync"
	"github.com/harrisonrobin/clarity/pkg/todoist"
	"github.com/harrisonrobin/clarity/pkg/web"
)

var rootCmd = &cobra.Command{
	Use:   "clarity",
	Short: "A priority-matrix task manager that syncs with external services",
	Long: `clarity keeps a local task matrix and mirrors tasks from Todoist,
Google Calendar, and Jira into it, resolving duplicates along the way.`,
}

type app struct {
	cfg     *config.Config
	store   *store.Store
	manager *sync.Manager
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	seed, err := st.LoadHistory()
	if err != nil {
		log.Printf("Warning: could not load sync history: %v", err)
	}
	ledger := sync.NewLedger(seed, st.SaveHistory)

	manager := sync.NewManager(st, ledger,
		todoist.NewAdapter(st),
		gcal.NewAdapter(st),
		jira.NewAdapter(st),
	)
	return &app{cfg: cfg, store: st, manager: manager}, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server and the auto-sync timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		interval := time.Duration(a.cfg.AutoSyncMinutes) * time.Minute
		if err := a.manager.StartAutoSync(interval); err != nil {
			return err
		}
		defer a.manager.StopAutoSync()

		staticDir, _ := cmd.Flags().GetString("static")
		fmt.Printf("Listening on %s\n", a.cfg.ListenAddr)
		return web.NewServer(a.store, a.manager, staticDir).Run(a.cfg.ListenAddr)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [service]",
	Short: "Sync one service, or every connected service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		ctx := context.Background()
		var results []sync.SyncSummary
		if len(args) == 1 {
			summary, err := a.manager.SyncService(ctx, args[0])
			if err != nil {
				return err
			}
			results = []sync.SyncSummary{summary}
		} else {
			results = a.manager.SyncAll(ctx)
		}

		for _, r := range results {
			if r.Success {
				fmt.Printf("%s: synced %d tasks\n", r.Service, r.Count)
			} else {
				fmt.Printf("%s: failed: %s\n", r.Service, r.Error)
			}
		}
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <service>",
	Short: "Connect a service using key=value credentials",
	Long: `Connect a service. Credentials are passed as repeated --set flags, e.g.

  clarity connect todoist --set token=abc123
  clarity connect google-calendar --set url=you@example.com
  clarity connect jira --set baseUrl=https://you.atlassian.net \
      --set username=you@example.com --set token=abc --set projectKey=PROJ`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("set")
		creds := sync.Credentials{}
		for _, pair := range pairs {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("invalid credential %q, expected key=value", pair)
			}
			creds[key] = value
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		result, err := a.manager.ConnectService(context.Background(), args[0], creds)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("connection rejected: %s", result.Message)
		}
		fmt.Println(result.Message)
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <service>",
	Short: "Disconnect a service and remove its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		if err := a.manager.DisconnectService(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s disconnected\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection state and sync statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		for _, svc := range a.manager.ConnectedServices() {
			state := "disconnected"
			if svc.Connected {
				state = "connected"
			}
			if svc.LastSync != nil {
				fmt.Printf("%-16s %s, last sync %s\n", svc.Name, state, svc.LastSync.Format(time.RFC3339))
			} else {
				fmt.Printf("%-16s %s\n", svc.Name, state)
			}
		}

		stats, err := a.manager.SyncStats()
		if err != nil {
			return err
		}
		fmt.Printf("\nSyncs: %d total, %d ok, %d failed\n", stats.TotalSyncs, stats.SuccessfulSyncs, stats.FailedSyncs)
		for source, count := range stats.TasksBySource {
			fmt.Printf("  %s: %d tasks\n", source, count)
		}
		return nil
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Report tasks that have become overdue since the last check",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.store.Close()

		table, err := duewatch.NewTable(a.cfg.DataDir)
		if err != nil {
			return err
		}
		tasks, err := a.store.Tasks()
		if err != nil {
			return err
		}
		table.Track(tasks)

		swept := table.Sweep(time.Now())
		if len(swept) == 0 {
			fmt.Println("Nothing newly overdue.")
		}
		for _, entry := range swept {
			fmt.Printf("OVERDUE  %s (was due %s)\n", entry.Name, entry.Due.Format("2006-01-02 15:04"))
		}
		return table.Save()
	},
}

func init() {
	serveCmd.Flags().String("static", "", "directory of frontend assets to serve")
	connectCmd.Flags().StringArray("set", nil, "credential as key=value (repeatable)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(overdueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
