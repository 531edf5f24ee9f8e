package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/ops"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/web"
)

// maxStdinBytes bounds a description piped via stdin.
const maxStdinBytes = 1 << 20

// appEnv carries what commands need. It is nil for --help and --version.
type appEnv struct {
	db  *sql.DB
	cfg *config.Config
	ix  *search.Index
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "timeline",
		Usage:   "Pen-and-paper campaign timeline with fuzzy search",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(env),
			getCmd(env),
			updateCmd(env),
			deleteCmd(env),
			listCmd(env),
			searchCmd(env),
			suggestCmd(env),
			tagsCmd(env),
			importCmd(env),
			exportCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func campaignFlag() cli.Flag {
	return &cli.StringFlag{Name: "campaign", Aliases: []string{"c"}, Value: event.DefaultCampaign, Usage: "Campaign name"}
}

// eventFlags are shared by add and update.
func eventFlags(required bool) []cli.Flag {
	return []cli.Flag{
		campaignFlag(),
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: required, Usage: "Event title"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description (markdown); - reads stdin"},
		&cli.StringFlag{Name: "location", Usage: "Location"},
		&cli.StringFlag{Name: "tags", Aliases: []string{"t"}, Usage: "Comma-separated tags"},
		&cli.StringFlag{Name: "date", Required: required, Usage: "In-game date (YYYY-MM-DD or DD.MM.YYYY)"},
		&cli.StringFlag{Name: "time", Usage: "In-game time (HH:MM)"},
		&cli.StringFlag{Name: "end-date", Usage: "End date; setting it gives the event a duration"},
		&cli.StringFlag{Name: "end-time", Usage: "End time (HH:MM)"},
	}
}

// description resolves the --description flag, reading stdin for "-".
func description(c *cli.Context) (string, error) {
	d := c.String("description")
	if d != "-" {
		return d, nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("description must be piped via stdin when set to -")
	}
	text, err := readStdin(maxStdinBytes)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

// addCmd creates the add command.
func addCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an event",
		Flags: eventFlags(true),
		Action: func(c *cli.Context) error {
			desc, err := description(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Add(c.Context, env.db, ops.AddInput{
				Campaign:       c.String("campaign"),
				Name:           c.String("name"),
				Description:    desc,
				Location:       c.String("location"),
				Tags:           event.SplitTags(c.String("tags")),
				EntryDate:      c.String("date"),
				EntryTime:      c.String("time"),
				EndDate:        c.String("end-date"),
				EndTime:        c.String("end-time"),
				HasEndDateTime: c.String("end-date") != "",
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// getCmd creates the get command.
func getCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show an event",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Get(c.Context, env.db, ops.GetInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(env *appEnv) *cli.Command {
	flags := append(eventFlags(false),
		&cli.BoolFlag{Name: "no-end", Usage: "Remove the end date and time"},
	)
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of an event",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			setString := func(flag string, dst **string) {
				if c.IsSet(flag) {
					v := c.String(flag)
					*dst = &v
				}
			}
			setString("campaign", &input.Campaign)
			setString("name", &input.Name)
			setString("location", &input.Location)
			setString("date", &input.EntryDate)
			setString("time", &input.EntryTime)
			setString("end-date", &input.EndDate)
			setString("end-time", &input.EndTime)

			if c.IsSet("description") {
				desc, err := description(c)
				if err != nil {
					return outputError(err)
				}
				input.Description = &desc
			}
			if c.IsSet("tags") {
				tags := event.SplitTags(c.String("tags"))
				if tags == nil {
					tags = []string{}
				}
				input.Tags = &tags
			}
			switch {
			case c.Bool("no-end"):
				hasEnd := false
				input.HasEndDateTime = &hasEnd
			case c.IsSet("end-date"):
				hasEnd := true
				input.HasEndDateTime = &hasEnd
			}

			output, err := ops.Update(c.Context, env.db, env.ix, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete an event",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, env.db, env.ix, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List a campaign's events in timeline order",
		Flags: []cli.Flag{
			campaignFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, env.db, ops.ListInput{
				Campaign: c.String("campaign"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy search events; quoted text skips abbreviation expansion",
		ArgsUsage: "[query...]",
		Flags: []cli.Flag{
			campaignFlag(),
			&cli.BoolFlag{Name: "all-campaigns", Aliases: []string{"a"}, Usage: "Search every campaign"},
			&cli.StringFlag{Name: "tags", Aliases: []string{"t"}, Usage: "Comma-separated tags; every tag must match"},
			&cli.Float64Flag{Name: "min-score", Usage: "Drop results scoring below this (0..1)"},
			&cli.IntFlag{Name: "max-results", Usage: "Cap on ranked results"},
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "relevance|date|name|status"},
			&cli.BoolFlag{Name: "scoring", Usage: "Include per-match scoring details"},
			&cli.BoolFlag{Name: "boost-recent", Usage: "Favor events within 30 days of now"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SearchInput{
				Query:          strings.Join(c.Args().Slice(), " "),
				Tags:           event.SplitTags(c.String("tags")),
				Campaign:       c.String("campaign"),
				AllCampaigns:   c.Bool("all-campaigns"),
				MaxResults:     c.Int("max-results"),
				SortBy:         c.String("sort"),
				IncludeScoring: c.Bool("scoring"),
				BoostRecent:    c.Bool("boost-recent"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
			}
			if c.IsSet("min-score") {
				v := c.Float64("min-score")
				input.MinScore = &v
			}

			output, err := ops.Search(c.Context, env.db, env.ix, env.cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Complete a partial word from a campaign's events",
		ArgsUsage: "<partial>",
		Flags: []cli.Flag{
			campaignFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: search.DefaultSuggestionLimit, Usage: "Maximum suggestions"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Suggest(c.Context, env.db, env.ix, ops.SuggestInput{
				Partial:  c.Args().First(),
				Campaign: c.String("campaign"),
				Limit:    c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List tags with usage counts",
		Flags: []cli.Flag{
			campaignFlag(),
			&cli.BoolFlag{Name: "all-campaigns", Aliases: []string{"a"}, Usage: "Count tags across every campaign"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Tags(c.Context, env.db, ops.TagsInput{
				Campaign:     c.String("campaign"),
				AllCampaigns: c.Bool("all-campaigns"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import events from a JSON or JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace|skip"},
			&cli.StringFlag{Name: "campaign", Aliases: []string{"c"}, Usage: "Campaign for records that carry none"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env.db, env.ix, env.cfg, ops.ImportInput{
				Path:     c.String("path"),
				Mode:     ops.ImportMode(c.String("mode")),
				Campaign: c.String("campaign"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export events to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.timeline/exports/<campaign>-<timestamp>.jsonl)"},
			campaignFlag(),
			&cli.BoolFlag{Name: "all-campaigns", Aliases: []string{"a"}, Usage: "Export every campaign"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env.db, env.cfg, ops.ExportInput{
				Path:         c.String("path"),
				Campaign:     c.String("campaign"),
				AllCampaigns: c.Bool("all-campaigns"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(env.db, env.cfg, env.ix, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v as indented JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var tErr *errors.TimelineError
	if stderrors.As(err, &tErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
