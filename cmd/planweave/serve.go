package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the planweave HTTP API.

Endpoints:
  POST   /api/projects                                  generate a plan
  GET    /api/projects                                  list projects
  GET    /api/projects/{id}                             project with plan
  DELETE /api/projects/{id}                             delete project
  POST   /api/projects/{id}/edit                        edit and reconcile
  GET    /api/projects/{id}/gantt.svg                   Gantt chart
  GET    /api/projects/{id}/export/document             flat document JSON
  GET    /api/projects/{id}/export/plan.csv             task schedule CSV
  GET    /api/projects/{id}/export/communication-plan.md
  GET    /api/projects/{id}/export/financial-plan.md`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := openStore(ctx)
		defer store.Close()

		llm := newLLM()
		pl := newPlanner(store, llm)

		addr := serveAddr
		if addr == "" {
			addr = cfg.Addr
		}
		srv := server.NewServer(store, pl, llm, server.Config{Addr: addr})

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("Listening on %s\n", cyan(addr))
		if err := srv.ListenAndServe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
