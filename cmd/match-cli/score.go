package main

import (
	"github.com/spf13/cobra"

	"matchmaking-workers/internal/matching"
)

type userToTeamsInput struct {
	User  matching.User   `json:"user"`
	Teams []matching.Team `json:"teams"`
}

type teamToUsersInput struct {
	Team  matching.Team   `json:"team"`
	Users []matching.User `json:"users"`
}

func addScoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "JSON fixture to score, - for stdin")
	cmd.Flags().Float64P("threshold", "t", matching.DefaultThreshold, "minimum compatibility score to report")
	cmd.Flags().IntP("limit", "l", matching.DefaultLimit, "maximum number of matches to report, 0 for no cap")
	cmd.Flags().Int("max-features", 1000, "TF-IDF vocabulary cap")
	cmd.Flags().String("availability", matching.PolicyOpenSpot, "availability policy: open_spot or proportional")
}

func newUserToTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-to-teams",
		Short: "Rank the teams of a fixture for its user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in userToTeamsInput
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			matcher, opts, err := offlineMatcher(cmd)
			if err != nil {
				return err
			}
			results, err := matcher.MatchUserToTeams(cmd.Context(), in.User, in.Teams, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}
	addScoreFlags(cmd)
	return cmd
}

func newTeamToUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team-to-users",
		Short: "Rank the users of a fixture for its team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in teamToUsersInput
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			matcher, opts, err := offlineMatcher(cmd)
			if err != nil {
				return err
			}
			results, err := matcher.MatchTeamToUsers(cmd.Context(), in.Team, in.Users, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}
	addScoreFlags(cmd)
	return cmd
}

// offlineMatcher builds an in-memory TF-IDF matcher from the command flags.
func offlineMatcher(cmd *cobra.Command) (*matching.Matcher, matching.Options, error) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")
	maxFeatures, _ := cmd.Flags().GetInt("max-features")
	policy, _ := cmd.Flags().GetString("availability")

	cfg := matching.DefaultConfig()
	cfg.Availability = matching.AvailabilityPolicyByName(policy)
	cfg.Limit = limit

	matcher, err := matching.NewMatcher(matching.NewTFIDFEngine(maxFeatures), cfg, cliLogger(cmd))
	if err != nil {
		return nil, matching.Options{}, err
	}
	return matcher, matching.WithThreshold(threshold, limit), nil
}
