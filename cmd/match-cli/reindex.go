package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/database"
	"matchmaking-workers/internal/store"
)

func newReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Copy recruiting teams from PostgreSQL into the Elasticsearch team index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			eventID, _ := cmd.Flags().GetString("event")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			log := cliLogger(cmd)
			ctx := cmd.Context()

			db, err := database.NewPostgres(ctx, cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()

			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}

			teams, err := store.NewPostgresProfileStore(db, log).ListOpenTeams(ctx, eventID, limit)
			if err != nil {
				return err
			}
			indexed, err := store.NewElasticsearchTeamSearch(es, cfg.Database.Elasticsearch.TeamIndex, log).IndexTeams(ctx, teams)
			if err != nil {
				return fmt.Errorf("indexed %d of %d teams: %w", indexed, len(teams), err)
			}
			return printJSON(cmd, map[string]interface{}{
				"index":   cfg.Database.Elasticsearch.TeamIndex,
				"event":   eventID,
				"found":   len(teams),
				"indexed": indexed,
			})
		},
	}
	cmd.Flags().String("config", "", "config file (default is configs/config.yaml under the project root)")
	cmd.Flags().String("event", "", "only reindex teams of this event")
	cmd.Flags().Int("limit", 1000, "maximum number of teams to copy")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
