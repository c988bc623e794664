package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"healthaudit/pkg/cache"
	"healthaudit/pkg/citation"
	"healthaudit/pkg/collect"
	"healthaudit/pkg/concept"
	"healthaudit/pkg/core"
	"healthaudit/pkg/dataset"
	"healthaudit/pkg/guideline"
	"healthaudit/pkg/judge"
	"healthaudit/pkg/model"
	"healthaudit/pkg/pubmed"
	"healthaudit/pkg/reasoning"
	"healthaudit/pkg/report"
	"healthaudit/pkg/reporter"
	"healthaudit/pkg/similarity"
	"healthaudit/pkg/snapshot"
	"healthaudit/pkg/umls"
)

func newAuditCommand() *cobra.Command {
	var (
		questionsPath    string
		goldensPath      string
		guidelinesPath   string
		description      string
		workers          int
		outputPath       string
		format           string
		provider         string
		targetModel      string
		mockReply        string
		ollamaURL        string
		judgeModel       string
		maxTurns         int
		elicitConfidence bool
		rateLimitRPS     float64
		rateLimitBurst   int
		snapshotDir      string
		cacheDir         string
		noCache          bool
		umlsAPIKey       string
		pubmedAPIKey     string
		hfAPIKey         string
		hfModel          string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run a safety audit against a target model",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := resolveString(questionsPath, appConfig.Questions)
			if path == "" {
				return errors.New("questions path is required")
			}
			questions, err := dataset.LoadQuestions(path)
			if err != nil {
				return err
			}

			var goldens []core.GoldenAnswer
			if goldenPath := resolveString(goldensPath, appConfig.GoldenAnswers); goldenPath != "" {
				goldens, err = dataset.LoadGoldenAnswers(goldenPath)
				if err != nil {
					return err
				}
			}

			corpus := loadGuidelines(resolveString(guidelinesPath, appConfig.Guidelines), logger)

			providerResolved := resolveString(provider, appConfig.Provider)
			if providerResolved == "" {
				providerResolved = "mock"
			}
			target, err := buildTarget(providerResolved,
				resolveString(targetModel, appConfig.Target.Model),
				resolveString(mockReply, appConfig.Target.MockReply),
				resolveString(ollamaURL, appConfig.Target.BaseURL))
			if err != nil {
				return err
			}

			if !noCache {
				ttl := time.Duration(appConfig.Cache.TTLHours) * time.Hour
				diskCache, err := cache.New(resolveString(cacheDir, appConfig.Cache.Dir), ttl)
				if err != nil {
					return err
				}
				target = model.CachedTarget{Target: target, Cache: diskCache}
			}

			gen, err := judge.NewAnthropicGeneratorFromEnv(resolveString(judgeModel, appConfig.Judge.Model))
			if err != nil {
				return err
			}
			auditJudge := judge.New(gen, logger)

			var limiter collect.RateLimiter
			rps := rateLimitRPS
			if rps <= 0 {
				rps = appConfig.RateLimit.RPS
			}
			if rps > 0 {
				burst := resolveInt(rateLimitBurst, appConfig.RateLimit.Burst, 1)
				rl, err := collect.NewRateLimiter(rps, burst)
				if err != nil {
					return err
				}
				limiter = rl
			}

			enabled := 0
			for _, q := range questions {
				if q.Enabled {
					enabled++
				}
			}
			progress := newProgressBar(progressWriter(cmd), enabled)
			progress.Update(0)

			collector := &collect.Collector{
				Target:  target,
				Judge:   auditJudge,
				Limiter: limiter,
				Logger:  logger,
				Config: collect.Config{
					MaxTurns:         maxTurns,
					Workers:          resolveInt(workers, appConfig.Workers, 1),
					ElicitConfidence: elicitConfidence,
				},
				Progress: func(completed, _ int) { progress.Update(completed) },
			}
			collected, err := collector.Run(ctx, questions)
			if err != nil {
				return err
			}
			logger.Info("collection finished",
				zap.Int("responses", len(collected.Responses)),
				zap.Int("failures", len(collected.Failures)))

			builder := &report.Builder{
				Judge:      auditJudge,
				Guidelines: corpus,
				Reasoning:  &reasoning.Analyzer{Judge: auditJudge, Logger: logger},
				CitationChecker: &citation.Checker{
					Judge:     auditJudge,
					Validator: pubmed.NewClient(resolveString(pubmedAPIKey, firstNonEmpty(appConfig.PubMed.APIKey, os.Getenv("PUBMED_API_KEY")))),
					Logger:    logger,
				},
				Logger: logger,
			}

			if key := resolveString(umlsAPIKey, firstNonEmpty(appConfig.UMLS.APIKey, os.Getenv("UMLS_API_KEY"))); key != "" {
				umlsClient, err := umls.NewClient(key)
				if err != nil {
					return err
				}
				builder.ConceptValidator = &concept.Validator{
					Judge:  auditJudge,
					Lookup: umlsClient,
					Cache:  concept.NewTermCache(),
					Logger: logger,
				}
			} else {
				logger.Info("no UMLS API key configured, skipping concept validation")
			}

			if len(goldens) > 0 {
				hfKey := resolveString(hfAPIKey, firstNonEmpty(appConfig.HuggingFace.APIKey, os.Getenv("HF_API_KEY")))
				builder.SimilarityScorer = &similarity.Scorer{
					Embedder: similarity.NewHuggingFaceEmbedder(hfKey, resolveString(hfModel, appConfig.HuggingFace.Model)),
					Logger:   logger,
				}
			}

			auditReport, err := builder.Build(ctx, report.Input{
				Description:   resolveString(description, appConfig.Description),
				Questions:     questions,
				Responses:     collected.Responses,
				GoldenAnswers: goldens,
				FailureModes:  core.BuiltinFailureModes,
			})
			if err != nil {
				return err
			}

			writer := cmd.OutOrStdout()
			outputResolved := resolveString(outputPath, appConfig.Output)
			if outputResolved != "" {
				file, err := os.Create(outputResolved)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}

			rep, err := buildReporter(resolveString(format, firstNonEmpty(appConfig.Format, reporter.FormatTable)), writer)
			if err != nil {
				return err
			}
			if err := rep.Report(*auditReport); err != nil {
				return err
			}

			if dir := resolveString(snapshotDir, appConfig.SnapshotDir); dir != "" {
				snap := snapshot.New(target.Name())
				snap.Description = resolveString(description, appConfig.Description)
				snap.Questions = questions
				snap.Responses = collected.Responses
				snap.Failures = collected.Failures
				snap.GoldenAnswers = goldens
				snap.Report = auditReport
				snapPath, err := snapshot.Write(dir, snap)
				if err != nil {
					return err
				}
				logger.Info("snapshot written", zap.String("path", snapPath))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&questionsPath, "questions", "", "path to questions file (json or jsonl)")
	cmd.Flags().StringVar(&goldensPath, "golden-answers", "", "path to golden answers file")
	cmd.Flags().StringVar(&guidelinesPath, "guidelines", "", "path to guideline corpus (default: built-in)")
	cmd.Flags().StringVar(&description, "description", "", "description of the system under audit")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent conversations")
	cmd.Flags().StringVar(&outputPath, "output", "", "output file path")
	cmd.Flags().StringVar(&format, "format", "", "output format (table, json, markdown)")
	cmd.Flags().StringVar(&provider, "provider", "", "target provider (mock, openai, anthropic, gemini, ollama)")
	cmd.Flags().StringVar(&targetModel, "target-model", "", "target model name")
	cmd.Flags().StringVar(&mockReply, "mock-reply", "", "fixed mock target reply")
	cmd.Flags().StringVar(&ollamaURL, "ollama-url", "", "ollama base URL")
	cmd.Flags().StringVar(&judgeModel, "judge-model", "", "judge model name")
	cmd.Flags().IntVar(&maxTurns, "max-turns", collect.MaxTurns, "max conversation turns per question")
	cmd.Flags().BoolVar(&elicitConfidence, "elicit-confidence", false, "ask for self-rated confidence on ground-truth questions")
	cmd.Flags().Float64Var(&rateLimitRPS, "rate-limit-rps", 0, "max target requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&rateLimitBurst, "rate-limit-burst", 1, "rate limit burst size")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory for run snapshots")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "target reply cache directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the target reply cache")
	cmd.Flags().StringVar(&umlsAPIKey, "umls-api-key", "", "UMLS API key (or UMLS_API_KEY)")
	cmd.Flags().StringVar(&pubmedAPIKey, "pubmed-api-key", "", "NCBI API key (or PUBMED_API_KEY)")
	cmd.Flags().StringVar(&hfAPIKey, "hf-api-key", "", "Hugging Face API key (or HF_API_KEY)")
	cmd.Flags().StringVar(&hfModel, "hf-model", "", "Hugging Face embedding model")

	return cmd
}

// loadGuidelines returns nil when the corpus cannot be loaded; the builder
// then omits the adherence section instead of failing the run.
func loadGuidelines(path string, logger *zap.Logger) *guideline.Corpus {
	var (
		corpus *guideline.Corpus
		err    error
	)
	if path == "" {
		corpus, err = guideline.LoadEmbedded()
	} else {
		corpus, err = guideline.LoadFile(path)
	}
	if err != nil {
		logger.Warn("guideline corpus unavailable, omitting adherence section", zap.Error(err))
		return nil
	}
	return corpus
}

func buildTarget(provider, modelName, mockReply, ollamaURL string) (core.Target, error) {
	switch provider {
	case "mock":
		return model.MockTarget{NameValue: firstNonEmpty(modelName, "mock"), ReplyText: mockReply}, nil
	case "openai":
		return model.NewOpenAITargetFromEnv(modelName)
	case "anthropic":
		return model.NewAnthropicTargetFromEnv(modelName)
	case "gemini":
		return model.NewGeminiTargetFromEnv(modelName)
	case "ollama":
		return model.NewOllamaTarget(ollamaURL, modelName), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func buildReporter(format string, writer io.Writer) (reporter.Reporter, error) {
	switch format {
	case reporter.FormatJSON:
		return reporter.JSONReporter{Writer: writer, Pretty: true}, nil
	case reporter.FormatTable:
		return reporter.TableReporter{Writer: writer}, nil
	case reporter.FormatMarkdown:
		return reporter.MarkdownReporter{Writer: writer}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func resolveString(value string, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func resolveInt(value int, fallback int, defaultValue int) int {
	if value > 0 {
		return value
	}
	if fallback > 0 {
		return fallback
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
