package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"igproxy/pkg/instagram"
	"igproxy/pkg/logger"
	"igproxy/pkg/models"
	"igproxy/pkg/ui"
)

var fetchJSON bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <post|reel|profile|stories> <url-or-username>",
	Short: "Resolve one target to its media URLs",
	Long: `Fetch a single post, reel, profile or story tray from Instagram and print
the media it contains. Nothing is cached and no server is started.`,
	Example: `  igproxy fetch post https://www.instagram.com/p/ABC123/
  igproxy fetch reel https://www.instagram.com/reel/XYZ789/
  igproxy fetch profile natgeo --json
  igproxy fetch stories @natgeo`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"post", "reel", "profile", "stories"},
	RunE:      runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the JSON response instead of a list")
	fetchCmd.Flags().StringVar(&upstreamURL, "upstream", "", "Instagram base URL")
}

// target resolves a kind and raw argument to the fetch call for it
func target(client *instagram.Client, kind, raw string) (func(context.Context) ([]models.MediaItem, error), error) {
	var (
		parse func(string) (string, error)
		fetch func(context.Context, string) ([]models.MediaItem, error)
	)
	switch kind {
	case "post":
		parse, fetch = instagram.PostShortcode, client.FetchPost
	case "reel":
		parse, fetch = instagram.ReelShortcode, client.FetchReel
	case "profile":
		parse, fetch = instagram.NormalizeUsername, client.FetchProfile
	case "stories":
		parse, fetch = instagram.NormalizeUsername, client.FetchStories
	default:
		return nil, fmt.Errorf("unknown target type %q (want post, reel, profile or stories)", kind)
	}

	id, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) ([]models.MediaItem, error) { return fetch(ctx, id) }, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("upstream") {
		flags["upstream"] = upstreamURL
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client := instagram.NewClientFromConfig(cfg.Upstream, cfg.Retry, logger.GetLogger())
	run, err := target(client, args[0], args[1])
	if err != nil {
		return err
	}

	items, err := run(cmd.Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.MediaItem{}
	}

	p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)
	if fetchJSON {
		data, err := json.MarshalIndent(models.MediaResponse{Success: true, Media: items}, "", "  ")
		if err != nil {
			return err
		}
		p.Raw(string(data))
		return nil
	}

	p.Media(items)
	return nil
}
