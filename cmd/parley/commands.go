package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/internal/config"
	"github.com/casualjim/parley/pkg/jsonx"
	"github.com/casualjim/parley/pkg/stdx"
	"github.com/casualjim/parley/shape"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

type cli struct {
	out        io.Writer
	configPath string
	app        *app
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "parley",
		Short:         "Ask named links for data",
		Long:          "parley serves static and built-in links through an in-process broker and lets you ask them for data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to the config file (default: $PARLEY_CONFIG or parley.yaml)")

	root.AddCommand(c.linksCmd())
	root.AddCommand(c.askCmd())
	root.AddCommand(c.schemaCmd())
	return root
}

func (c *cli) setup() error {
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	setupLogging(os.Stderr, cfg.SlogLevel())

	c.app, err = newApp(cfg, nil)
	return err
}

func (c *cli) linksCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List the registered links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md := linksMarkdown(c.app.broker.Links())
			if plain {
				_, err := fmt.Fprint(c.out, md)
				return err
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
			if err != nil {
				return err
			}
			rendered, err := r.Render(md)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.out, rendered)
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without rendering it")
	return cmd
}

func linksMarkdown(links []parley.LinkInfo) string {
	var sb strings.Builder
	sb.WriteString("| Link | Kind | Provides | Service |\n")
	sb.WriteString("|------|------|----------|---------|\n")
	for _, l := range links {
		service := "-"
		if !l.Service.IsZero() {
			service = "`" + l.Service.String() + "`"
		}
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s |\n", l.Name, l.Kind, l.Provided.Describe(), service)
	}
	return sb.String()
}

func (c *cli) askCmd() *cobra.Command {
	var (
		data       string
		schemaDoc  string
		schemaFile string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <link>",
		Short: "Ask a link for data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, err := requestedShape(schemaDoc, schemaFile)
			if err != nil {
				return err
			}

			name := args[0]
			v, err := c.app.broker.AskFor(cmd.Context(), requested, name, data)
			if err != nil {
				return err
			}
			return c.printAnswer(name, v, asJSON)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "data string passed to the provider")
	cmd.Flags().StringVar(&schemaDoc, "schema", "", "JSON Schema of the requested shape")
	cmd.Flags().StringVar(&schemaFile, "schema-file", "", "file holding the JSON Schema of the requested shape")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	cmd.MarkFlagsMutuallyExclusive("schema", "schema-file")
	stdx.Must0(cmd.MarkFlagFilename("schema-file", "json"))
	return cmd
}

func requestedShape(doc, file string) (*shape.Shape, error) {
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return shape.FromSchema(b)
	case doc != "":
		return shape.FromSchema([]byte(doc))
	default:
		return nil, nil
	}
}

func (c *cli) printAnswer(name string, v any, asJSON bool) error {
	if asJSON {
		b, err := jsonx.MarshalIndent(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out, string(b))
		return err
	}

	// plain values print better than the Go structs behind them
	display, err := jsonx.Interchange(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s:\n", color.CyanString(name))
	printer := pp.New()
	printer.SetOutput(c.out)
	printer.SetColoringEnabled(!color.NoColor)
	_, err = printer.Println(display.Value())
	return err
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <link>",
		Short: "Print the JSON Schema of what a link provides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := c.app.broker.Describe(args[0])
			if !ok {
				return &parley.NotRegisteredError{Name: args[0]}
			}
			b, err := jsonx.MarshalIndent(info.Provided.Schema())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(b))
			return err
		},
	}
}

// exitErr is what a failed command reports, minus cobra's usage noise.
func exitErr(err error) string {
	var nre *parley.NotRegisteredError
	if errors.As(err, &nre) {
		return fmt.Sprintf("unknown link %q, try `parley links`", nre.Name)
	}
	return err.Error()
}
