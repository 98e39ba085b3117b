package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jekyll_hyde/handlers"
	"jekyll_hyde/story"
)

var askConsequences bool

var askCmd = &cobra.Command{
	Use:   "ask [dilemma]",
	Short: "Ask both sides about a dilemma and print their advice as JSON",
	Long: `Runs the advice pipeline once without starting the server.

Example:
  jekyll_hyde ask --consequences "Should I read my sister's diary?"
  jekyll_hyde ask 3   # use preset dilemma 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askConsequences, "consequences", "c", false, "include short and long term consequences")
}

func runAsk(cmd *cobra.Command, args []string) error {
	dilemma := strings.TrimSpace(strings.Join(args, " "))
	if d, ok := story.FindDilemma(dilemma); ok {
		dilemma = d.Prompt
	}
	if dilemma == "" {
		return errors.New("dilemma is required")
	}

	h, cleanup, err := buildHandler(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	resp, out, err := h.Advise(cmd.Context(), dilemma, askConsequences)
	if errors.Is(err, handlers.ErrNotConfigured) {
		return fmt.Errorf("no API key set for provider %q", cfg.Provider)
	}
	if err != nil {
		return err
	}
	if out.Fallback {
		logger.Warn("model output unusable, printing fallback advice",
			zap.String("stage", out.Stage), zap.Error(out.Err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

var dilemmasCmd = &cobra.Command{
	Use:   "dilemmas",
	Short: "List the literary preset dilemmas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNOVEL\tCHARACTER\tSITUATION")
		for _, d := range story.NovelDilemmas {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Novel, d.Character, d.Situation)
		}
		return tw.Flush()
	},
}
