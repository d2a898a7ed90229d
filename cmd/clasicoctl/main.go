// Command clasicoctl runs the game's resolution pipeline from a terminal:
// it generates runtime challenges, describes rewards, lists archetypes and
// routes, builds share links and seeds the record store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/config"
	"github.com/brinda/clasico/internal/engine"
	"github.com/brinda/clasico/internal/links"
	"github.com/brinda/clasico/internal/platform"
	"github.com/brinda/clasico/internal/reward"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds what withInfra opens for the duration of one command.
type cli struct {
	logOut io.Writer
	cfg    *config.Config
	logger *slog.Logger
	inf    *platform.Infra
	svc    platform.Services
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	c := &cli{logOut: logOut}

	rootCmd := &cobra.Command{
		Use:   "clasicoctl",
		Short: "Clásico Regio game tooling",
		Long: `clasicoctl resolves challenges, rewards and share links against the
configured record store, or against the built-in data set in demo mode.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		c.challengeCmd(),
		c.archetypesCmd(),
		c.routesCmd(),
		c.seedCmd(),
		rewardCmd(),
		linkCmd(),
	)
	return rootCmd
}

// withInfra wraps run so it executes with the configuration loaded and the
// infrastructure open. The infrastructure is closed when run returns.
func (c *cli) withInfra(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		c.cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		c.logger = platform.NewLogger(c.logOut, c.cfg)
		c.inf = platform.Open(cmd.Context(), c.cfg, c.logger)
		defer func() {
			if cerr := c.inf.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		c.svc = platform.NewServices(cmd.Context(), c.cfg, c.inf, c.logger)
		return run(cmd, args)
	}
}

func (c *cli) challengeCmd() *cobra.Command {
	var (
		team, mode, archetype, route, campaign, abGroup string
		players                                         int
		generate                                        bool
	)
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Resolve one runtime challenge",
		Long: `Selects a challenge for the team and mode, resolves its placeholders and
attaches the reward. With --generate the configured text generator is tried
first.`,
		Args: cobra.NoArgs,
		RunE: c.withInfra(func(cmd *cobra.Command, _ []string) error {
			t, err := clasico.ParseTeam(team)
			if err != nil {
				return err
			}
			req := engine.Request{
				Context:     clasico.NewContext(t),
				ArchetypeID: archetype,
				RouteID:     clasico.RouteID(route),
				ABGroup:     abGroup,
				CampaignID:  campaign,
				Generate:    generate,
			}
			switch {
			case mode != "":
				if req.Mode, err = clasico.ParseMode(mode); err != nil {
					return err
				}
			case players > 0:
				req.Mode = clasico.ModeForPlayers(players)
			}
			if req.CampaignID == "" {
				req.CampaignID = c.cfg.CampaignID
			}

			rc, err := c.svc.Engine.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if rc == nil {
				return fmt.Errorf("no challenge available for %s in mode %q", t, req.Mode)
			}
			return printJSON(cmd.OutOrStdout(), rc)
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&team, "team", "t", string(clasico.TeamTigres), "Team id (tigres or rayados)")
	f.StringVarP(&mode, "mode", "m", "", "Play mode (individual, dueto, grupo)")
	f.IntVar(&players, "players", 0, "Number of players, picks the mode when --mode is empty")
	f.StringVar(&archetype, "archetype", "", "Archetype id, requires --route")
	f.StringVar(&route, "route", "", "Route id, requires --archetype")
	f.StringVar(&campaign, "campaign", "", "Campaign id (default from CAMPAIGN_ID)")
	f.StringVar(&abGroup, "ab-group", "", "A/B group (A or B)")
	f.BoolVar(&generate, "generate", false, "Try the text generator before the templates")
	return cmd
}

func (c *cli) archetypesCmd() *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "List the fan archetypes",
		Args:  cobra.NoArgs,
		RunE: c.withInfra(func(cmd *cobra.Command, _ []string) error {
			var t clasico.TeamID
			if team != "" {
				var err error
				if t, err = clasico.ParseTeam(team); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), c.svc.Catalog.Archetypes(cmd.Context(), t))
		}),
	}
	cmd.Flags().StringVarP(&team, "team", "t", "", "Only archetypes of this team")
	return cmd
}

func (c *cli) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the challenge routes and their mechanics",
		Args:  cobra.NoArgs,
		RunE: c.withInfra(func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), c.svc.Catalog.Routes(cmd.Context()))
		}),
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the built-in data set into the record store",
		Long: `Copies teams' archetypes, routes, challenges and campaigns from the
built-in data set into the configured record store. Existing rows are
overwritten. Fails in demo mode.`,
		Args: cobra.NoArgs,
		RunE: c.withInfra(func(cmd *cobra.Command, _ []string) error {
			n, err := c.svc.Catalog.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records\n", n)
			return nil
		}),
	}
}

func rewardCmd() *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "reward <tag>",
		Short: "Describe the reward behind a reward-type tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := clasico.ParseTeam(team)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reward.Describe(clasico.RewardType(args[0]), t))
		},
	}
	cmd.Flags().StringVarP(&team, "team", "t", string(clasico.TeamTigres), "Team whose names the reward uses")
	return cmd
}

func linkCmd() *cobra.Command {
	var (
		base string
		p    links.Params
	)
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Build a share link that opens the game preconfigured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := links.Build(base, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&base, "base", links.DefaultBaseURL, "Base URL of the web client")
	f.StringVar(&p.Brand, "brand", "", "Team id")
	f.StringVar(&p.Mode, "mode", "", "Play mode")
	f.StringVar(&p.Emotion, "emotion", "", "Campaign emotion")
	f.StringVar(&p.Location, "location", "", "Campaign location")
	f.StringVar(&p.Capsule, "capsule", "", "Capsule id")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
