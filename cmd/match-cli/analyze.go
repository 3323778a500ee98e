package main

import (
	"github.com/spf13/cobra"

	"matchmaking-workers/internal/analysis"
)

func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Report skill coverage for {current_skills, required_skills}",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in analysis.SkillGapRequest
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			return printJSON(cmd, analysis.AnalyzeSkillGaps(in.CurrentSkills, in.RequiredSkills))
		},
	}
	cmd.Flags().StringP("input", "i", "", "JSON fixture, - for stdin")
	return cmd
}

func newRadarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Score team chat {messages} for signs the team is stuck",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in analysis.RadarRequest
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			return printJSON(cmd, analysis.AnalyzeTeamStatus(in.Messages))
		},
	}
	cmd.Flags().StringP("input", "i", "", "JSON fixture, - for stdin")
	return cmd
}
