package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"warda/internal/domain"
	"warda/internal/present"
	"warda/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive search client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}
}

func runTUI(cmd *cobra.Command, a *app) error {
	m := tui.New(a.search, a.queryDefaults(), a.cfg.Query.Models)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	_, err := p.Run()
	return err
}

func newAskCmd(a *app) *cobra.Command {
	var (
		topK      int
		showChars int
		mode      string
		model     string
		timeout   int
		maxChars  int
		noLLM     bool
		asJSON    bool
		noColor   bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Run one search and print the ranked fragments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}
			opts := a.queryDefaults()
			opts.Question = strings.Join(args, " ")
			flags := cmd.Flags()
			if flags.Changed("top-k") {
				opts.TopK = topK
			}
			if flags.Changed("show-chars") {
				opts.ShowChars = showChars
			}
			if flags.Changed("model") {
				opts.Model = model
			}
			if flags.Changed("timeout") {
				opts.Timeout = timeout
			}
			if flags.Changed("max-chars-llm") {
				opts.MaxCharsForLLM = maxChars
			}
			if noLLM {
				opts.UseLLM = false
			}

			page, err := a.search.Query(cmd.Context(), opts, m)
			if err != nil {
				return err
			}
			if asJSON {
				return present.JSON(cmd.OutOrStdout(), page)
			}
			return present.NewPlain(noColor).Print(cmd.OutOrStdout(), page)
		},
	}
	f := cmd.Flags()
	f.IntVar(&topK, "top-k", 0, "number of fragments (1-20)")
	f.IntVar(&showChars, "show-chars", 0, "characters shown per fragment (200-4000)")
	f.StringVar(&mode, "mode", string(domain.ModeNone), "generation mode: none|per_result|final")
	f.StringVar(&model, "model", "", "LLM model name")
	f.IntVar(&timeout, "timeout", 0, "LLM timeout in seconds (10-180)")
	f.IntVar(&maxChars, "max-chars-llm", 0, "characters sent to the LLM per fragment (300-2500)")
	f.BoolVar(&noLLM, "no-llm", false, "disable LLM generation")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	f.BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}

func newFormatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "format [file]",
		Short: "Reflow raw fragment text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			out := a.formatter.Format(string(data))
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the search backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.search.Health(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", a.client.URL())
			return err
		},
	}
}
