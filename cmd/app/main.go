package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/agencyhub/internal"
	"github.com/starford/agencyhub/internal/store"
	pkgconfig "github.com/starford/agencyhub/pkg/config"
)

var version = "dev"

// localOverlay is merged over the main config when it exists.
const localOverlay = "config/config.local.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg, localOverlay); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func importFrameworks(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: agencyhub frameworks import <dir>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rep, err := internal.ImportFrameworks(ctx, dir, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}

	fmt.Printf("%s %d created, %d updated, %d unchanged, %d removed\n",
		color.GreenString("imported"), rep.Created, rep.Updated, rep.Unchanged, rep.Removed)
	if rep.Failed > 0 {
		fmt.Println(color.RedString("%d files failed, see log", rep.Failed))
	}
	return nil
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}

func spend(ctx context.Context, cmd *cli.Command) error {
	from, err := parseDate("from", cmd.String("from"))
	if err != nil {
		return err
	}
	to, err := parseDate("to", cmd.String("to"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rep, err := internal.Spend(ctx, store.SpendGroup(cmd.String("group-by")), from, to,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = bold.Fprintf(tw, "%s\tCALLS\tINPUT\tOUTPUT\tCOST (USD)\n", rep.GroupBy)
	for _, row := range rep.Rows {
		label := row.Label
		if label == "" {
			label = row.Key
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.4f\n", label, row.Calls, row.InputTokens, row.OutputTokens, row.CostUSD)
	}
	_, _ = bold.Fprintf(tw, "total\t%d\t%d\t%d\t%s\n", rep.Total.Calls, rep.Total.InputTokens,
		rep.Total.OutputTokens, color.YellowString("%.4f", rep.Total.CostUSD))
	return tw.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:    "agencyhub",
		Usage:   "Operations dashboard for a marketing agency: clients, projects, content and AI studio",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:  "frameworks",
				Usage: "Manage copywriting frameworks",
				Commands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Import every Markdown file under a directory",
						ArgsUsage: "<dir>",
						Action:    importFrameworks,
					},
				},
			},
			{
				Name:  "spend",
				Usage: "Print the AI spend rollup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "group-by",
						Usage: "model, client, task_type or day",
						Value: string(store.SpendByModel),
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Start date (YYYY-MM-DD), inclusive",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "End date (YYYY-MM-DD), exclusive",
					},
				},
				Action: spend,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
