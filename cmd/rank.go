package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/ai"
	"github.com/spigell/resume-ranker/internal/export"
	"github.com/spigell/resume-ranker/internal/ingestion"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/metrics"
	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/orchestrator"
	"github.com/spigell/resume-ranker/internal/response"
	"github.com/spigell/resume-ranker/internal/retry"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank resumes against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		if code := rank(cmd); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "path to the job description text file")
	rankCmd.Flags().String("resumes", "", "directory with one .txt resume per candidate")
	rankCmd.Flags().StringP("output-dir", "o", "", "directory for evaluation_results.* files")
	rankCmd.Flags().StringSlice("format", nil, "report formats: json, yaml, xlsx, markdown, html")
	rankCmd.Flags().IntP("concurrency", "c", 0, "maximum concurrent candidate evaluations")
	rankCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	rankCmd.Flags().Bool("pick-model", false, "choose the model interactively from the backend")

	rankCmd.MarkFlagRequired("job")
	rankCmd.MarkFlagRequired("resumes")

	viper.BindPFlag("output.dir", rankCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("output.formats", rankCmd.Flags().Lookup("format"))
	viper.BindPFlag("max-concurrent-evaluations", rankCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("metrics-addr", rankCmd.Flags().Lookup("metrics-addr"))
}

// rank returns the process exit code. Setup errors are fatal; once the metrics
// server is up every path returns so deferred cleanup runs.
func rank(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	formats, err := export.ParseFormats(config.Output.Formats)
	if err != nil {
		logger.Fatal("parsing report formats", zap.Error(err))
	}
	exporter, err := export.NewExporter(config.Output.Dir, formats, logger)
	if err != nil {
		logger.Fatal("creating an exporter", zap.Error(err))
	}

	loader := ingestion.NewLoader(nil, logger)
	jobDescription, err := loader.JobDescription(cmd.Flag("job").Value.String())
	if err != nil {
		logger.Fatal("loading the job description", zap.Error(err))
	}
	resumes, err := loader.Resumes(cmd.Flag("resumes").Value.String())
	if err != nil {
		logger.Fatal("loading resumes", zap.Error(err))
	}

	backend, err := newBackend(ctx, config)
	if err != nil {
		logger.Fatal("creating a backend", zap.String("backend", config.Backend), zap.Error(err))
	}

	if pick, _ := cmd.Flags().GetBool("pick-model"); pick {
		model, err := pickModel(ctx, backend, config.Model)
		if err != nil {
			logger.Fatal("choosing a model", zap.Error(err))
		}
		config.Model = model
	}

	recorder := metrics.NewRecorder()

	gateway := ai.NewGateway(backend, logger,
		ai.WithObserver(recorder),
		ai.WithMaxLogLength(config.MaxLogLength),
	)

	controller, err := retry.New(gateway, config.Retry, logger, retry.WithObserver(recorder))
	if err != nil {
		logger.Fatal("creating a retry controller", zap.Error(err))
	}

	parser, err := response.NewParser()
	if err != nil {
		logger.Fatal("compiling response schemas", zap.Error(err))
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Model:                    config.Model,
		Temperature:              config.Temperature,
		Timeout:                  config.Timeout,
		MaxConcurrentEvaluations: config.MaxConcurrentEvaluations,
		CandidateTimeout:         config.CandidateTimeout,
		Rubric:                   config.Scoring,
	}, controller, parser, logger,
		orchestrator.WithObserver(recorder),
		orchestrator.WithProgress(func(current, total int, message string) {
			logger.Info("progress", zap.Int("done", current), zap.Int("total", total), zap.String("last", message))
		}),
	)
	if err != nil {
		logger.Fatal("creating an orchestrator", zap.Error(err))
	}

	if config.MetricsAddr != "" {
		shutdown := serveMetrics(config.MetricsAddr, recorder, logger)
		defer shutdown()
	}

	report, runErr := orch.Run(ctx, jobDescription, resumes)

	paths, writeErr := exporter.Write(report)

	if config.Output.Table {
		if err := export.WriteTable(os.Stdout, report); err != nil {
			logger.Error("printing the ranking", zap.Error(err))
		}
	}

	return exitCode(logger, report, paths, runErr, writeErr)
}

// exitCode logs how a run ended and maps it to a process exit code.
func exitCode(logger *zap.Logger, report *models.BatchReport, paths []string, runErr, writeErr error) int {
	code := 0
	if writeErr != nil {
		logger.Error("writing reports", zap.Strings("reports", paths), zap.Error(writeErr))
		code = 1
	}

	if runErr != nil {
		var extractionErr *orchestrator.ExtractionError
		if errors.As(runErr, &extractionErr) {
			logger.Error("cannot rank resumes without job requirements",
				zap.String("kind", string(extractionErr.Kind())),
				zap.Strings("reports", paths),
				zap.Error(runErr),
			)
			return 1
		}
		logger.Error("ranking run aborted", zap.Strings("reports", paths), zap.Error(runErr))
		return 1
	}

	if code == 0 {
		logger.Info("ranking finished", zap.String("run_id", report.RunID), zap.Strings("reports", paths))
	}
	return code
}

func serveMetrics(addr string, recorder *metrics.Recorder, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// redacted hides secrets before the config is logged.
func redacted(config *Config) Config {
	c := *config
	if c.Gemini.APIKey != "" {
		c.Gemini.APIKey = "***"
	}
	return c
}
