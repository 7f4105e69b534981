package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

const analyzeSystemPrompt = `You are a competitive Super Smash Bros. scene analyst. You are given a
structured per-player metrics table derived from start.gg tournament results
and a question from the user.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers and player tags when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and concrete.

Metrics glossary:
- win_rate: raw set win rate across all recorded sets.
- weighted_win_rate: set wins weighted by event size and recency. Bigger,
  more recent events count for more.
- avg_seed_delta: seed minus placement, averaged per event. Positive = the
  player outperforms their seed.
- opponent_strength: average of 1/opponent_seed. Higher = tougher draws.
- upset_rate: share of sets against better-seeded opponents that were won.
- activity_score: events played plus 0.1 per set.
- character_win_rate: win rate restricted to sets where the target character
  was recorded.
- character_usage_rate: share of sets with recorded character data that used
  the target character.
- home_state_inferred: true when the state was inferred from where the player
  competes rather than read from their profile.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzeState      string
	analyzeGameID     int
	analyzeMonths     int
	analyzeCharacter  string
	analyzeAssumeMain bool
	analyzeLimit      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "AI-powered grounded analysis of the metrics table (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzeCmd.Flags().StringVar(&analyzeState, "state", startgg.DefaultState, "two-letter state code to search")
	analyzeCmd.Flags().IntVar(&analyzeGameID, "game", startgg.DefaultVideogameID, "start.gg videogame ID (Ultimate = 1386, Melee = 1)")
	analyzeCmd.Flags().IntVar(&analyzeMonths, "months", startgg.DefaultMonthsBack, "how many months of tournaments to include")
	analyzeCmd.Flags().StringVar(&analyzeCharacter, "character", "Marth", "character to emphasise in the metrics")
	analyzeCmd.Flags().BoolVar(&analyzeAssumeMain, "assume-main", false, "treat the target character as a main when set data is missing")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 50, "maximum number of rows sent to the model")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	question := args[0]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := newPipeline(db)
	if err != nil {
		return err
	}

	filt := startgg.TournamentFilter{
		State:       analyzeState,
		VideogameID: analyzeGameID,
		MonthsBack:  analyzeMonths,
	}
	opts := aggregator.Options{
		TargetCharacter:  analyzeCharacter,
		AssumeTargetMain: analyzeAssumeMain,
	}
	rows, _, err := p.Metrics(cmd.Context(), filt, opts, false)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no player records found for %s", filt.StateOrDefault())
	}
	if analyzeLimit > 0 && len(rows) > analyzeLimit {
		rows = rows[:analyzeLimit]
	}

	dataJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, string(dataJSON), question)
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed — check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
