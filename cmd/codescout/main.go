// Command codescout indexes source trees into a local vector store and
// serves semantic code search over a CLI and an MCP stdio server.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codescout/codescout/internal/config"
	"github.com/codescout/codescout/internal/mcp"
	"github.com/codescout/codescout/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codescout",
		Short:         "Local semantic code search",
		Long:          "CodeScout indexes source trees into a local SQLite vector store and answers natural language queries with ranked code chunks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "vector store database path")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(projectsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	return root
}

// loadApp builds the application from config, flags, and environment.
func loadApp() (*app, error) {
	// .env is optional; missing files are not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Store.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, logger)
}

// newLogger builds a zap logger writing to stderr; stdout is reserved for
// command output and the MCP protocol.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <path>",
		Short: "Index a source tree and register it as a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.svc.RegisterProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			sum := p.LastSummary
			fmt.Printf("Indexed %s (collection %s)\n", p.Path, p.CollectionID)
			fmt.Printf("  files scanned:    %d\n", sum.FilesScanned)
			fmt.Printf("  files skipped:    %d\n", sum.FilesSkipped)
			fmt.Printf("  chunks created:   %d\n", sum.ChunksCreated)
			fmt.Printf("  chunks unchanged: %d\n", sum.ChunksUnchanged)
			fmt.Printf("  chunks deleted:   %d\n", sum.ChunksDeleted)
			if sum.ChunksSkipped > 0 {
				fmt.Printf("  chunks skipped:   %d\n", sum.ChunksSkipped)
			}
			fmt.Printf("  duration:         %s\n", sum.Duration.Round(time.Millisecond))
			for _, msg := range sum.Errors {
				fmt.Printf("  error: %s\n", msg)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var projectPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an indexed project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if projectPath == "" {
				return fmt.Errorf("--project is required (the CLI holds no active project between runs)")
			}

			results, err := a.svc.SearchProject(cmd.Context(), projectPath, args[0], limit)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%2d. %.4f  %s:%d-%d  [%s]\n",
					r.Rank, r.Score, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Chunk.Language)
				fmt.Println(indent(r.Chunk.Text, "    "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "registered project path to search")
	cmd.Flags().IntVarP(&limit, "limit", "k", 0, "maximum results (default from config)")
	return cmd
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.svc.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects registered. Run: codescout index <path>")
				return nil
			}
			for _, p := range projects {
				fmt.Printf("%s  %s", p.CollectionID, p.Path)
				if !p.LastIndexedAt.IsZero() {
					fmt.Printf("  (indexed %s)", p.LastIndexedAt.Format("2006-01-02 15:04"))
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP stdio server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(a.svc, a.logger)
			return srv.Serve(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CodeScout\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", store.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", store.DriverName)
		},
	}
}

func indent(text, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n"+prefix)
}
