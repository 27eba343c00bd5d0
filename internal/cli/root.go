package cli

import (
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"warda/internal/config"
	"warda/internal/fragment"
	"warda/internal/logging"
	"warda/internal/searchapi"
	"warda/internal/service"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg       *config.AppConfig
	cfgPath   string
	log       *logrus.Entry
	logCloser io.Closer
	formatter *fragment.Formatter
	client    *searchapi.Client
	search    *service.SearchService
}

// Execute is the entrypoint used by main.
func Execute() error {
	return runRoot(newRoot())
}

// runRoot executes cmd and closes the log file even when a subcommand
// fails, since cobra skips post-run hooks after an error.
func runRoot(cmd *cobra.Command, a *app) error {
	defer a.closeLog()
	return cmd.Execute()
}

// NewRootCmd constructs the cobra root command. Running it without a
// subcommand starts the interactive client.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *app) {
	var (
		cfgPath  string
		apiURL   string
		logLevel string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:           "warda",
		Short:         "Recherche sémantique dans les fiches techniques",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, path, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.URL = apiURL
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg, a.cfgPath = cfg, path

			// the TUI owns the terminal, so it only logs to a file
			var fallback io.Writer = cmd.ErrOrStderr()
			if isInteractive(cmd) {
				fallback = io.Discard
			}
			log, closer, err := logging.New("warda", logging.Options{
				Level:    cfg.Log.Level,
				File:     cfg.Log.File,
				Fallback: fallback,
			})
			if err != nil {
				return err
			}
			a.log, a.logCloser = log, closer
			return a.wire()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/warda/config.yaml)")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "search endpoint, overrides api.url and "+config.EnvAPIURL)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace|debug|info|warn|error")

	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newAskCmd(a))
	cmd.AddCommand(newFormatCmd(a))
	cmd.AddCommand(newHealthCmd(a))
	return cmd, a
}

func (a *app) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

func loadConfig(path string) (*config.AppConfig, string, error) {
	if path == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || !cmd.HasParent()
}

// wire assembles formatter, client and service from the loaded config.
func (a *app) wire() error {
	a.formatter = fragment.New(
		fragment.WithTitles(a.cfg.Formatter.ExtraTitles...),
		fragment.WithCapsBounds(a.cfg.Formatter.CapsMinLen, a.cfg.Formatter.CapsMaxLen),
	)
	client, err := searchapi.NewClient(searchapi.Config{
		URL:    a.cfg.API.URL,
		Logger: a.log.WithField("component", "searchapi"),
	})
	if err != nil {
		return err
	}
	a.client = client
	a.search = service.NewSearchService(client, a.formatter, a.log.WithField("component", "service"))
	a.log.WithFields(logrus.Fields{
		"config":  a.cfgPath,
		"api_url": client.URL(),
		"titles":  strings.Join(a.cfg.Formatter.ExtraTitles, ","),
	}).Debug("wired")
	return nil
}

// queryDefaults maps the config section onto service options.
func (a *app) queryDefaults() service.QueryOptions {
	q := a.cfg.Query
	return service.QueryOptions{
		Question:       q.Question,
		TopK:           q.TopK,
		ShowChars:      q.ShowChars,
		UseLLM:         q.LLMEnabled(),
		Model:          q.Model,
		Timeout:        q.TimeoutSecs,
		MaxCharsForLLM: q.MaxCharsForLLM,
	}
}
