// Package main provides the CLI entrypoint for parkinsight.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/parkinsight/internal/audio"
	"github.com/verte-zerg/parkinsight/internal/config"
	"github.com/verte-zerg/parkinsight/internal/form"
	"github.com/verte-zerg/parkinsight/internal/logger"
	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/pipeline"
	"github.com/verte-zerg/parkinsight/internal/report"
	"github.com/verte-zerg/parkinsight/internal/runsui"
	"github.com/verte-zerg/parkinsight/internal/store"
)

const (
	defaultVoiceURL     = "https://raw.githubusercontent.com/Aaron246/parkinsight/main/parkinsons_dataset.csv"
	defaultSymptomURL   = "https://raw.githubusercontent.com/Aaron246/parkinsight/main/parkinsons_symptoms_dataset.csv"
	defaultLabel        = "Status"
	defaultTremor       = "Tremor"
	defaultBradykinesia = "Bradykinesia"
	defaultRigidity     = "Rigidity"
	defaultTestSize     = 0.2
	defaultSeed         = 42
	defaultTrees        = 100
	defaultFolds        = 5
	defaultHeadRows     = 10
	defaultCurveWindow  = 1
	defaultLogLevel     = "info"
)

var (
	logLevel string
	logFile  string

	dataVoice        string
	dataSymptom      string
	dataLabel        string
	dataTremor       string
	dataBradykinesia string
	dataRigidity     string

	trainTestSize float64
	trainSeed     int64
	trainTrees    int
	tuneFolds     int
	tuneWorkers   int

	predictAudio        string
	predictTremor       int
	predictBradykinesia int
	predictRigidity     int
	predictRun          string

	exploreHead int

	runsSince       string
	runsLast        int
	runsCurveWindow int
	runsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "parkinsight",
		Short:         "Parkinson's disease screening from voice recordings and symptom scores",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newFormCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dataVoice, "voice-url", defaultVoiceURL, "voice dataset URL or local path")
	cmd.Flags().StringVar(&dataSymptom, "symptom-url", defaultSymptomURL, "symptom dataset URL or local path")
	cmd.Flags().StringVar(&dataLabel, "label", defaultLabel, "label column name")
	cmd.Flags().StringVar(&dataTremor, "tremor-column", defaultTremor, "symptom dataset tremor column")
	cmd.Flags().StringVar(&dataBradykinesia, "bradykinesia-column", defaultBradykinesia, "symptom dataset bradykinesia column")
	cmd.Flags().StringVar(&dataRigidity, "rigidity-column", defaultRigidity, "symptom dataset rigidity column")
}

func addPredictFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&predictAudio, "audio", "", "integer PCM WAV recording to analyse (IEEE float WAV is not supported)")
	cmd.Flags().IntVar(&predictTremor, "tremor", 0, "tremor score (0-9)")
	cmd.Flags().IntVar(&predictBradykinesia, "bradykinesia", 0, "bradykinesia score (0-9)")
	cmd.Flags().IntVar(&predictRigidity, "rigidity", 0, "rigidity score (0-9)")
	cmd.Flags().StringVar(&predictRun, "run", "", "training run ID (default: latest)")
}

// setup loads the config file, applies its values to unset flags and builds
// the logger.
func setup(cmd *cobra.Command) (config.FileConfig, *zap.SugaredLogger, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	log, err := logger.New(logLevel, logFile)
	if err != nil {
		return config.FileConfig{}, nil, err
	}
	return fileCfg, log, nil
}

func applyDataConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "voice-url", &dataVoice, fileCfg.Data.VoiceURL)
	applyStringConfig(cmd, "symptom-url", &dataSymptom, fileCfg.Data.SymptomURL)
	applyStringConfig(cmd, "label", &dataLabel, fileCfg.Data.Label)
	applyStringConfig(cmd, "tremor-column", &dataTremor, fileCfg.Data.TremorColumn)
	applyStringConfig(cmd, "bradykinesia-column", &dataBradykinesia, fileCfg.Data.BradykinesiaColumn)
	applyStringConfig(cmd, "rigidity-column", &dataRigidity, fileCfg.Data.RigidityColumn)
}

func applyPredictConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "audio", &predictAudio, fileCfg.Predict.Audio)
	applyIntConfig(cmd, "tremor", &predictTremor, fileCfg.Predict.Tremor)
	applyIntConfig(cmd, "bradykinesia", &predictBradykinesia, fileCfg.Predict.Bradykinesia)
	applyIntConfig(cmd, "rigidity", &predictRigidity, fileCfg.Predict.Rigidity)
}

func syncLogger(log *zap.SugaredLogger) {
	if err := log.Sync(); err != nil {
		// Best-effort flush.
		_ = err
	}
}

func openStore(log *zap.SugaredLogger) (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			log.Warnw("failed to close db", "error", cerr)
		}
	}, nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train, evaluate and tune the models and persist the artifacts",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	addDataFlags(cmd)
	cmd.Flags().Float64Var(&trainTestSize, "test-size", defaultTestSize, "held-out fraction (0-1)")
	cmd.Flags().Int64Var(&trainSeed, "seed", defaultSeed, "random seed for splits and forests")
	cmd.Flags().IntVar(&trainTrees, "trees", defaultTrees, "trees in the baseline and symptom forests")
	cmd.Flags().IntVar(&tuneFolds, "folds", defaultFolds, "cross-validation folds for tuning")
	cmd.Flags().IntVar(&tuneWorkers, "workers", runtime.NumCPU(), "parallel grid search workers")
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)
	applyDataConfig(cmd, fileCfg)
	applyFloatConfig(cmd, "test-size", &trainTestSize, fileCfg.Train.TestSize)
	applyInt64Config(cmd, "seed", &trainSeed, fileCfg.Train.Seed)
	applyIntConfig(cmd, "trees", &trainTrees, fileCfg.Train.Trees)
	applyIntConfig(cmd, "folds", &tuneFolds, fileCfg.Tune.Folds)
	applyIntConfig(cmd, "workers", &tuneWorkers, fileCfg.Tune.Workers)

	cfg := model.TrainConfig{
		VoiceSource:    dataVoice,
		SymptomSource:  dataSymptom,
		CacheDir:       config.DefaultDatasetCacheDir(),
		Label:          dataLabel,
		SymptomColumns: []string{dataTremor, dataBradykinesia, dataRigidity},
		TestSize:       trainTestSize,
		Seed:           trainSeed,
		Trees:          trainTrees,
		Folds:          tuneFolds,
		Workers:        tuneWorkers,
		GridEstimators: fileCfg.Tune.NEstimators,
		GridMaxDepth:   fileCfg.Tune.MaxDepth,
		GridMinSplit:   fileCfg.Tune.MinSamplesSplit,
		GridMinLeaf:    fileCfg.Tune.MinSamplesLeaf,
		ArtifactsRoot:  config.DefaultArtifactsRoot(),
	}
	if err := validateTrainConfig(cfg); err != nil {
		return err
	}

	st, closeStore, err := openStore(log)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trainer := pipeline.Trainer{Log: log, Store: st, Out: cmd.OutOrStdout()}
	result, err := trainer.Train(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Run %s saved to %s\n", result.Run.ID, result.Run.ArtifactsDir)
	return err
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict from a voice recording and symptom scores",
		Args:  cobra.NoArgs,
		RunE:  runPredictCmd,
	}
	addPredictFlags(cmd)
	return cmd
}

func runPredictCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)
	applyPredictConfig(cmd, fileCfg)
	if predictAudio == "" {
		return fmt.Errorf("--audio is required")
	}
	scores := model.SymptomScores{Tremor: predictTremor, Bradykinesia: predictBradykinesia, Rigidity: predictRigidity}
	if err := scores.Validate(); err != nil {
		return err
	}

	st, closeStore, err := openStore(log)
	if err != nil {
		return err
	}
	defer closeStore()

	set, run, err := pipeline.LoadArtifacts(cmd.Context(), st, predictRun)
	if err != nil {
		return err
	}
	log.Infow("artifacts loaded", "run", run.ID, "dir", run.ArtifactsDir)

	features, diagnosis, err := pipeline.PredictFile(log, set, predictAudio, scores)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderFeatures(out, features); err != nil {
		return err
	}
	return report.RenderDiagnosis(out, diagnosis)
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Print an exploratory summary of both datasets",
		Args:  cobra.NoArgs,
		RunE:  runExploreCmd,
	}
	addDataFlags(cmd)
	cmd.Flags().IntVar(&exploreHead, "head", defaultHeadRows, "leading rows to print per dataset")
	return cmd
}

func runExploreCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)
	applyDataConfig(cmd, fileCfg)
	if exploreHead <= 0 {
		return fmt.Errorf("--head must be > 0")
	}
	cfg := pipeline.ExploreConfig{
		VoiceSource:   dataVoice,
		SymptomSource: dataSymptom,
		CacheDir:      config.DefaultDatasetCacheDir(),
		Label:         dataLabel,
		HeadRows:      exploreHead,
	}
	return pipeline.Explore(cmd.Context(), log, cfg, cmd.OutOrStdout())
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the acoustic features of a WAV recording",
		Args:  cobra.NoArgs,
		RunE:  runExtractCmd,
	}
	cmd.Flags().StringVar(&predictAudio, "audio", "", "integer PCM WAV recording to analyse (IEEE float WAV is not supported)")
	return cmd
}

func runExtractCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)
	applyStringConfig(cmd, "audio", &predictAudio, fileCfg.Predict.Audio)
	if predictAudio == "" {
		return fmt.Errorf("--audio is required")
	}
	start := time.Now()
	features, err := audio.ExtractFile(predictAudio)
	if err != nil {
		return fmt.Errorf("failed to extract features: %w", err)
	}
	log.Infow("features extracted", "path", predictAudio, "elapsed", time.Since(start))
	return report.RenderFeatures(cmd.OutOrStdout(), features)
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recorded training runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().StringVar(&runsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&runsLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&runsCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the accuracy trend")
	cmd.Flags().BoolVar(&runsPlain, "plain", false, "print a table instead of the interactive browser")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	var sinceTime *time.Time
	if runsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", runsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if runsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if runsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg := model.RunsConfig{Since: sinceTime, Last: runsLast, Window: runsCurveWindow}

	st, closeStore, err := openStore(log)
	if err != nil {
		return err
	}
	defer closeStore()

	if runsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		runs, err := st.Summaries(cmd.Context(), cfg.Since)
		if err != nil {
			return fmt.Errorf("failed to load runs: %w", err)
		}
		if cfg.Last > 0 && len(runs) > cfg.Last {
			runs = runs[:cfg.Last]
		}
		return report.RenderRuns(cmd.OutOrStdout(), runs)
	}

	program := tea.NewProgram(runsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run runs TUI: %w", err)
	}
	return nil
}

func newFormCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Interactive screening form",
		Args:  cobra.NoArgs,
		RunE:  runFormCmd,
	}
	addPredictFlags(cmd)
	return cmd
}

func runFormCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(log)
	applyPredictConfig(cmd, fileCfg)

	st, closeStore, err := openStore(log)
	if err != nil {
		return err
	}
	defer closeStore()

	set, run, err := pipeline.LoadArtifacts(cmd.Context(), st, predictRun)
	if err != nil {
		return err
	}
	predict := func(path string, scores model.SymptomScores) (model.VoiceFeatures, model.Diagnosis, error) {
		return pipeline.PredictFile(log, set, path, scores)
	}
	defaults := form.Defaults{
		AudioPath: predictAudio,
		Scores:    model.SymptomScores{Tremor: predictTremor, Bradykinesia: predictBradykinesia, Rigidity: predictRigidity},
		RunID:     run.ID,
	}
	program := tea.NewProgram(form.NewModel(predict, defaults), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run form TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# parkinsight configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# voice-url = %q
# symptom-url = %q
# label = %q
# tremor-column = %q
# bradykinesia-column = %q
# rigidity-column = %q

[train]
# test-size = %.1f        # Held-out fraction (0-1)
# seed = %d               # Random seed for splits and forests
# trees = %d             # Trees in the baseline and symptom forests

[tune]
# folds = %d               # Cross-validation folds
# workers = 4             # Parallel grid search workers (default: CPU count)
# n-estimators = [50, 100, 200]
# max-depth = [0, 10, 20, 30]   # 0 means unlimited
# min-samples-split = [2, 5, 10]
# min-samples-leaf = [1, 2, 4]

[predict]
# audio = "/path/to/recording.wav"
# tremor = 0              # 0-9
# bradykinesia = 0        # 0-9
# rigidity = 0            # 0-9

[log]
# level = %q
# file = "/path/to/parkinsight.log"
`,
		defaultVoiceURL,
		defaultSymptomURL,
		defaultLabel,
		defaultTremor,
		defaultBradykinesia,
		defaultRigidity,
		defaultTestSize,
		defaultSeed,
		defaultTrees,
		defaultFolds,
		defaultLogLevel,
	)
}

func validateTrainConfig(cfg model.TrainConfig) error {
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return fmt.Errorf("--test-size must be between 0 and 1")
	}
	if cfg.Trees <= 0 {
		return fmt.Errorf("--trees must be > 0")
	}
	if cfg.Folds < 2 {
		return fmt.Errorf("--folds must be >= 2")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if cfg.Label == "" {
		return fmt.Errorf("--label must not be empty")
	}
	for _, values := range [][]int{cfg.GridEstimators, cfg.GridMinSplit, cfg.GridMinLeaf} {
		for _, v := range values {
			if v <= 0 {
				return fmt.Errorf("tune grid values must be > 0, got %d", v)
			}
		}
	}
	for _, v := range cfg.GridMaxDepth {
		if v < 0 {
			return fmt.Errorf("tune max-depth values must be >= 0, got %d", v)
		}
	}
	return nil
}
