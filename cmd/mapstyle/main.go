package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-style/internal/server"
	"github.com/joeblew999/plat-style/internal/service"
)

// Options defines all CLI flags and env vars for the map style server.
// Flags: --host, --port, --data-dir, --config, --mapbox-access-token, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host              string `doc:"Host to bind to" default:"0.0.0.0"`
	Port              int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir           string `doc:"Directory for saved configs, local styles and snapshots" default:".data"`
	Config            string `doc:"Path to mapstyle.yaml (default: <data-dir>/mapstyle.yaml)"`
	MapboxAccessToken string `doc:"Mapbox access token used for mapbox:// styles"`
	MapboxAPIURL      string `doc:"Mapbox API host"`
	DefaultStyle      string `doc:"Style selected on first start"`
}

func newServer(opts *Options) (*server.Server, error) {
	cfg, err := loadConfig(opts.Config, opts.DataDir)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:                 opts.Host,
		Port:                 fmt.Sprintf("%d", opts.Port),
		DataDir:              opts.DataDir,
		MapboxAPIAccessToken: lo.CoalesceOrEmpty(opts.MapboxAccessToken, cfg.MapboxAPIAccessToken),
		MapboxAPIURL:         lo.CoalesceOrEmpty(opts.MapboxAPIURL, cfg.MapboxAPIURL),
		DefaultStyle:         lo.CoalesceOrEmpty(opts.DefaultStyle, cfg.DefaultStyle),
		Styles:               cfg.Styles,
	})
}

func mustServer(opts *Options) *server.Server {
	srv, err := newServer(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			srv := mustServer(opts)
			defer srv.Close()
			srv.Init()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			cyan := color.New(color.FgCyan).SprintFunc()
			bold := color.New(color.Bold).SprintFunc()

			fmt.Println()
			fmt.Printf("%s\n", bold("plat-style API server starting..."))
			fmt.Printf("  Server:  %s\n", cyan(baseURL))
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  State:   %s/api/v1/mapstyle\n", baseURL)
			fmt.Printf("  Events:  %s/api/v1/editor/mapstyle/events\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})
	})

	cli.Root().Use = "mapstyle"
	cli.Root().Short = "Map style composition server"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			useYAML, _ := cmd.Flags().GetBool("yaml")
			printValue(srv.OpenAPI(), useYAML)
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// export subcommand: print the saved map style config
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Load the styles and print the map style config",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			srv.Init()
			srv.MapStyle().Wait()
			warnLoadError(srv)

			useYAML, _ := cmd.Flags().GetBool("yaml")
			printValue(srv.MapStyle().Export(), useYAML)
		}),
	}
	exportCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(exportCmd)

	// styles subcommand: list the registry
	stylesCmd := &cobra.Command{
		Use:   "styles",
		Short: "Load the styles and list the registry",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			defer srv.Close()
			srv.Init()
			srv.MapStyle().Wait()
			warnLoadError(srv)

			for _, s := range service.Summaries(srv.MapStyle().State()) {
				printSummary(s)
			}
		}),
	}
	cli.Root().AddCommand(stylesCmd)

	cli.Run()
}

func printSummary(s service.StyleSummary) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	marker := " "
	if s.Active {
		marker = "*"
	}
	status := yellow("pending")
	if s.Loaded {
		status = green("loaded ")
	}
	kind := ""
	if s.Custom {
		kind = cyan(" (custom)")
	}
	fmt.Printf("%s %-14s %s  %s%s\n", marker, s.ID, status, s.Label, kind)
	if len(s.LayerGroups) > 0 {
		fmt.Printf("    groups: %v\n", s.LayerGroups)
	}
}

func warnLoadError(srv *server.Server) {
	if err := srv.MapStyle().LastLoadError(); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("warning:"), err)
	}
}

// printValue prints v as indented JSON, or as YAML. YAML goes through the
// JSON encoding so that custom marshalers and json tags are honored.
func printValue(v any, useYAML bool) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err == nil && useYAML {
		var generic any
		if err = json.Unmarshal(output, &generic); err == nil {
			output, err = yaml.Marshal(generic)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}
