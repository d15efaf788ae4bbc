package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/internal/prompt"
	"github.com/sells-group/attendee-enrich/internal/twotier"
	"github.com/sells-group/attendee-enrich/pkg/anthropic"
)

var (
	askTemplate   string
	askRecordPath string
	askColumnType string
	askNoContext  bool
	askOffline    bool
)

// lowercaseFields exposes every record key under its lowercased name so
// {{Company}} and {{company}} both resolve.
func lowercaseFields(record map[string]any) map[string]any {
	fields := make(map[string]any, len(record))
	for k, v := range record {
		fields[strings.ToLower(k)] = v
	}
	return fields
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a generative column prompt via tiered Claude models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (ENRICH_ANTHROPIC_KEY)")
		}

		columnType, err := prompt.ParseColumnType(askColumnType)
		if err != nil {
			return err
		}

		record := map[string]any{}
		if askRecordPath != "" {
			raw, err := os.ReadFile(askRecordPath)
			if err != nil {
				return eris.Wrap(err, "ask: read record")
			}
			if err := json.Unmarshal(raw, &record); err != nil {
				return eris.Wrap(err, "ask: parse record")
			}
		}

		rendered := prompt.Render(askTemplate, record, lowercaseFields)

		ai := anthropic.NewClient(cfg.Anthropic.Key)

		var systemContext string
		if !askNoContext {
			systemContext, err = buildAskContext(cmd, ai, rendered)
			if err != nil {
				return err
			}
		}

		resolver := twotier.NewResolver(ai, twotier.Config{
			CheapModel:  cfg.Anthropic.HaikuModel,
			StrongModel: cfg.Anthropic.SonnetModel,
		})

		resolution, err := resolver.Resolve(ctx, rendered, columnType, systemContext)
		if err != nil {
			return err
		}

		zap.L().Info("ask: resolved",
			zap.String("column_type", string(columnType)),
			zap.String("model_used", resolution.ModelUsed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"value":      resolution.Value,
			"model_used": resolution.ModelUsed,
			"raw":        resolution.Raw,
		})
	},
}

// buildAskContext augments the request with directory data when the prompt
// names a known health system.
func buildAskContext(cmd *cobra.Command, ai anthropic.Client, rendered string) (string, error) {
	ctx := cmd.Context()

	var builder *twotier.ContextBuilder
	if askOffline {
		s, err := openStore(ctx)
		if err != nil {
			return "", err
		}
		defer s.Close()
		builder = twotier.NewContextBuilder(ai, newDirectoryCache(&snapshotFetcher{store: s}), cfg.Anthropic.HaikuModel)
		return builder.Build(ctx, rendered), nil
	}

	client, err := newDefinitiveClient()
	if err != nil {
		return "", err
	}
	builder = twotier.NewContextBuilder(ai, newDirectoryCache(client), cfg.Anthropic.HaikuModel)
	return builder.Build(ctx, rendered), nil
}

func init() {
	askCmd.Flags().StringVar(&askTemplate, "template", "", "prompt template with {{field}} placeholders (required)")
	askCmd.Flags().StringVar(&askRecordPath, "record", "", "path to a JSON record for placeholder substitution")
	askCmd.Flags().StringVar(&askColumnType, "type", "text", "column type: text, boolean, or number")
	askCmd.Flags().BoolVar(&askNoContext, "no-context", false, "skip directory-context augmentation")
	askCmd.Flags().BoolVar(&askOffline, "offline", false, "build context from the persisted directory snapshot")
	_ = askCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(askCmd)
}
