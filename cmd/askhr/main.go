package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/config"
	"github.com/askhr/askhr/internal/server"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "askhr",
	Short: "Conversational query service for HR and learning-management data",
	Long: `askhr answers natural-language questions about HR and LMS records.

Questions are classified, screened, turned into a read-only SQL statement by a
language model and compiled into a call against the HR REST API.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg, os.Stderr)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var (
	compileSQL   string
	compileQuery string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Show the data API call a SQL statement compiles to",
	Long: `Compiles a SQL statement the way a chat turn would, without calling the
data API, and prints the plan as JSON.

Example:
  askhr compile --sql "SELECT * FROM chapter_master WHERE parent_id = 0"`,
	RunE: runCompile,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List canonical tables and the words that select them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTables(cmd.OutOrStdout())
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileSQL, "sql", "", "SQL statement to compile")
	compileCmd.Flags().StringVar(&compileQuery, "query", "", "original question, used when the SQL names no table")
	_ = compileCmd.MarkFlagRequired("sql")

	rootCmd.AddCommand(serveCmd, compileCmd, tablesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.IsDevelopment() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "askhr").Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("server setup failed")
		return err
	}
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	pl, err := server.NewPlanner(cfg)
	if err != nil {
		return err
	}
	plan, planErr := pl.Plan(compileSQL, compileQuery)
	plan.Query = plan.Params.Redacted()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return planErr
}

func printTables(w io.Writer) error {
	byTable := make(map[string][]string)
	for word, table := range catalog.Aliases() {
		byTable[table] = append(byTable[table], word)
	}
	for _, table := range catalog.CanonicalTables() {
		words := byTable[table]
		sort.Strings(words)
		if _, err := fmt.Fprintf(w, "%-32s %s\n", table, strings.Join(words, ", ")); err != nil {
			return err
		}
	}
	return nil
}
