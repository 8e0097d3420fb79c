package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"markov_occupancy/internal/config"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/repository"
	"markov_occupancy/internal/service"

	"github.com/spf13/cobra"
)

var statesJSON bool

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the states of the stored model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log := logger.Get(cfg.Log.Level, cfg.Log.Format)

		conn, err := openDB(cfg.DB.Path, log)
		if err != nil {
			return err
		}
		defer conn.Close()

		models := service.NewModelService(repository.NewModelSQLite(conn), engine.New(engineOptions(cfg.Engine)), cfg.Engine.DefaultHours)
		return printStates(cmd.Context(), cmd.OutOrStdout(), models, statesJSON)
	},
}

func init() {
	statesCmd.Flags().BoolVar(&statesJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(statesCmd)
}

func printStates(ctx context.Context, w io.Writer, models service.Models, asJSON bool) error {
	states, err := models.States(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(w).Encode(map[string][]string{"states": states})
	}
	for _, st := range states {
		if _, err := fmt.Fprintln(w, st); err != nil {
			return err
		}
	}
	return nil
}
