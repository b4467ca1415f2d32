package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/ecoscore/internal/config"
	"github.com/dshills/ecoscore/internal/llm"
	"github.com/dshills/ecoscore/internal/logging"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/render"
	"github.com/dshills/ecoscore/internal/score"
	"github.com/dshills/ecoscore/internal/tips"
)

type evaluateFlags struct {
	policy      string
	answers     []string
	transport   string
	diet        string
	energy      string
	format      string
	out         string
	tips        bool
	model       string
	temperature float64
	maxTokens   int
	requireTips bool
	failBelow   string
	noColor     bool
	verbose     bool
	logLevel    string
	logFormat   string

	// provider overrides model resolution; tests inject a mock here.
	provider llm.Provider
	stdout   io.Writer
	stderr   io.Writer
}

// evaluateOutput is the JSON report.
type evaluateOutput struct {
	Result    score.Result `json:"result"`
	Tips      []string     `json:"tips,omitempty"`
	TipsError string       `json:"tips_error,omitempty"`
}

func newEvaluateCmd(rf *rootFlags) *cobra.Command {
	f := &evaluateFlags{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one set of answers",
		Example: `  ecoscore evaluate --transport Bike/Walk --diet Never --energy "All Renewable"
  ecoscore evaluate --policy greenscore --answer transport="Public Transport" --answer diet=Daily --answer energy="Solar/Wind" --format md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), rf.configFile)
			if err != nil {
				return exitError(3, "%v", err)
			}
			f.policy = cfg.Policy
			f.model = cfg.Model
			f.tips = cfg.Tips
			f.logLevel = cfg.LogLevel
			f.logFormat = cfg.LogFormat
			return runEvaluate(cmd.Context(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.policy, "policy", "ecogame", "Built-in policy name or path to a policy YAML file")
	flags.StringArrayVar(&f.answers, "answer", nil, "Answer as category=value (may be repeated)")
	flags.StringVar(&f.transport, "transport", "", "Shorthand for --answer transport=<value>")
	flags.StringVar(&f.diet, "diet", "", "Shorthand for --answer diet=<value>")
	flags.StringVar(&f.energy, "energy", "", "Shorthand for --answer energy=<value>")
	flags.StringVar(&f.format, "format", "text", "Output format: text, md, or json")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.BoolVar(&f.tips, "tips", false, "Ask the model provider for improvement tips")
	flags.StringVar(&f.model, "model", "", "Model ID for tips (e.g., claude-sonnet-4-6, openai:gpt-4o-mini)")
	flags.Float64Var(&f.temperature, "temperature", 0.7, "Model temperature for tips")
	flags.IntVar(&f.maxTokens, "max-tokens", 1024, "Max response tokens for tips")
	flags.BoolVar(&f.requireTips, "require-tips", false, "Exit non-zero if tips cannot be produced")
	flags.StringVar(&f.failBelow, "fail-below", "", "Exit non-zero if the tier is below: developing, good, or excellent")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colored text output")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr (same as --log-level debug)")

	return cmd
}

func runEvaluate(ctx context.Context, f *evaluateFlags) error {
	stdout := f.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := f.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level := f.logLevel
	if level == "" {
		level = "warn"
	}
	if f.verbose {
		level = "debug"
	}
	log := logging.New(logging.Config{Level: level, Format: f.logFormat, Output: stderr})

	var failBelow score.Tier
	if f.failBelow != "" {
		t, ok := score.ParseTier(f.failBelow)
		if !ok {
			return exitError(3, "unknown --fail-below tier: %s", f.failBelow)
		}
		failBelow = t
	}
	switch f.format {
	case "text", "md", "json":
	default:
		return exitError(3, "unknown format: %s", f.format)
	}

	// 1. Load policy
	log.Debug("loading policy", "policy", f.policy)
	p, err := policy.Load(f.policy)
	if err != nil {
		return exitError(3, "failed to load policy: %v", err)
	}

	// 2. Collect answers
	profile, err := collectAnswers(f)
	if err != nil {
		return exitError(3, "%v", err)
	}
	log.Debug("collected answers", "count", len(profile))

	// 3. Score
	result, err := score.Evaluate(profile, p)
	if err != nil {
		var uv *score.UnknownCategoryValueError
		if errors.As(err, &uv) {
			if domain := p.Domain(uv.Field); domain != nil {
				return exitError(3, "%v (allowed: %s)", err, strings.Join(domain, ", "))
			}
		}
		return exitError(3, "%v", err)
	}
	log.Debug("scored", "total", result.Total, "max", result.MaxPossible, "tier", result.Tier)

	// 4. Tips
	var tipLines []string
	var tipsErr error
	if f.tips {
		tipLines, tipsErr = suggestTips(ctx, f, p, profile, log)
		if tipsErr != nil {
			if f.requireTips {
				return exitError(4, "tips unavailable: %v", tipsErr)
			}
			log.Warn("tips unavailable", "error", tipsErr)
		}
	}

	// 5. Output
	var output string
	switch f.format {
	case "json":
		rep := evaluateOutput{Result: result, Tips: tipLines}
		if tipsErr != nil {
			rep.TipsError = tipsErr.Error()
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.Markdown(&result, tipLines)
	default:
		colored := f.out == "" && !f.noColor && !color.NoColor
		output = render.Text(&result, tipLines, colored)
	}

	if f.out != "" {
		log.Debug("writing output", "path", f.out)
		if err := os.WriteFile(f.out, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Fprint(stdout, output)
	}

	// 6. Exit code based on --fail-below
	if failBelow != "" && result.Tier.Rank() < failBelow.Rank() {
		return exitError(2, "tier %s is below %s", result.Tier, failBelow)
	}
	return nil
}

func suggestTips(ctx context.Context, f *evaluateFlags, p *policy.Policy, profile score.Profile, log *slog.Logger) ([]string, error) {
	provider := f.provider
	if provider == nil {
		resolved, err := llm.ResolveProvider(f.model)
		if err != nil {
			return nil, err
		}
		provider = resolved
	}
	log.Debug("requesting tips", "provider", provider.Name())

	gen, err := tips.NewGenerator(tips.Config{
		Provider: provider,
		Settings: llm.Settings{Model: f.model, Temperature: f.temperature, MaxTokens: f.maxTokens},
	})
	if err != nil {
		return nil, err
	}
	return gen.Suggest(ctx, p, profile)
}

// collectAnswers merges --answer pairs with the per-category shorthands.
func collectAnswers(f *evaluateFlags) (score.Profile, error) {
	profile, err := parseAnswers(f.answers)
	if err != nil {
		return nil, err
	}
	shorthand := []struct{ key, value string }{
		{"transport", f.transport},
		{"diet", f.diet},
		{"energy", f.energy},
	}
	for _, s := range shorthand {
		if s.value == "" {
			continue
		}
		if prev, ok := profile[s.key]; ok && prev != s.value {
			return nil, fmt.Errorf("conflicting answers for %s: %q and %q", s.key, prev, s.value)
		}
		profile[s.key] = s.value
	}
	return profile, nil
}

func parseAnswers(pairs []string) (score.Profile, error) {
	profile := score.Profile{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid answer %q: want category=value", pair)
		}
		value = strings.TrimSpace(value)
		if prev, dup := profile[key]; dup && prev != value {
			return nil, fmt.Errorf("conflicting answers for %s: %q and %q", key, prev, value)
		}
		profile[key] = value
	}
	return profile, nil
}
