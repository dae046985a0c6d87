package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/adapter"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/repository"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/usecase/cloudsync"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	storeFile      = "file"
	storeSQLite    = "sqlite"
	storeFirestore = "firestore"

	defaultCollection = "vidscribe"
)

// config holds configuration values
type config struct {
	logLevel   string
	logFormat  string
	configPath string
	file       fileConfig

	// Store
	store               string
	storeDir            string
	firestoreProject    string
	firestoreDatabase   string
	firestoreCollection string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	elevenLabsKey  string
}

// fileConfig is the optional YAML config file. Flags and environment
// variables take precedence over it.
type fileConfig struct {
	Models struct {
		Text          string `yaml:"text"`
		Image         string `yaml:"image"`
		Speech        string `yaml:"speech"`
		Video         string `yaml:"video"`
		Voice         string `yaml:"voice"`
		VoiceFallback string `yaml:"voice_fallback"`
	} `yaml:"models"`
	Store struct {
		Backend    string `yaml:"backend"`
		Dir        string `yaml:"dir"`
		Project    string `yaml:"project"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"store"`
	Poll struct {
		Interval    time.Duration `yaml:"interval"`
		MaxAttempts int           `yaml:"max_attempts"`
	} `yaml:"poll"`
	Sync *model.SyncConfig `yaml:"sync"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("VIDSCRIBE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("VIDSCRIBE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("VIDSCRIBE_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Record store backend (file, sqlite, firestore)",
			Sources:     cli.EnvVars("VIDSCRIBE_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "store-dir",
			Usage:       "Directory of the file and sqlite stores",
			Sources:     cli.EnvVars("VIDSCRIBE_STORE_DIR"),
			Destination: &cfg.storeDir,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the Firestore store",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of the store",
			Sources:     cli.EnvVars("FIRESTORE_COLLECTION"),
			Destination: &cfg.firestoreCollection,
		},
	}
}

// llmFlags returns flags for generation backends with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (falls back to the key saved by `key set gemini`)",
			Sources:     cli.EnvVars("GEMINI_API_KEY", "API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "elevenlabs-api-key",
			Usage:       "ElevenLabs API key (falls back to the key saved by `key set elevenlabs`)",
			Sources:     cli.EnvVars("ELEVEN_LABS_KEY", "ELEVENLABS_API_KEY"),
			Destination: &cfg.elevenLabsKey,
		},
	}
}

func withFlags(cfg *config, flags ...cli.Flag) []cli.Flag {
	flags = append(flags, globalFlags(cfg)...)
	return append(flags, llmFlags(cfg)...)
}

// setup loads the config file and attaches a logger to ctx
func (cfg *config) setup(ctx context.Context) (context.Context, error) {
	logger := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	if cfg.configPath == "" {
		return ctx, nil
	}

	raw, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return ctx, goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath), goerr.T(model.TagValidation))
	}
	if err := yaml.Unmarshal(raw, &cfg.file); err != nil {
		return ctx, goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath), goerr.T(model.TagValidation))
	}

	logger.Debug("config file loaded", "path", cfg.configPath)
	return ctx, nil
}

// loadDotEnv reads .env in the working directory. A missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to load .env")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (cfg *config) storeDirectory() (string, error) {
	if dir := firstNonEmpty(cfg.storeDir, cfg.file.Store.Dir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to find user config directory")
	}
	return filepath.Join(base, "vidscribe"), nil
}

// newKV opens the record store backend
func (cfg *config) newKV(ctx context.Context) (repository.KV, error) {
	backend := firstNonEmpty(cfg.store, cfg.file.Store.Backend, storeFile)

	switch backend {
	case storeFile, storeSQLite:
		dir, err := cfg.storeDirectory()
		if err != nil {
			return nil, err
		}
		if backend == storeFile {
			return repository.NewFileKV(dir)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, goerr.Wrap(err, "failed to create store directory", goerr.V("dir", dir))
		}
		return repository.NewSQLiteKV(ctx, filepath.Join(dir, "vidscribe.db"))

	case storeFirestore:
		project := firstNonEmpty(cfg.firestoreProject, cfg.file.Store.Project)
		if project == "" {
			return nil, goerr.New("firestore-project is required for the firestore store", goerr.T(model.TagValidation))
		}
		return repository.NewFirestoreKV(ctx,
			project,
			firstNonEmpty(cfg.firestoreDatabase, cfg.file.Store.Database),
			firstNonEmpty(cfg.firestoreCollection, cfg.file.Store.Collection, defaultCollection),
		)

	default:
		return nil, goerr.New("unknown store backend", goerr.V("store", backend), goerr.T(model.TagValidation))
	}
}

// env is everything a command needs, built from config
type env struct {
	kv       repository.KV
	records  *repository.Records
	settings *repository.Settings
}

func (cfg *config) newEnv(ctx context.Context) (*env, error) {
	kv, err := cfg.newKV(ctx)
	if err != nil {
		return nil, err
	}
	return &env{
		kv:       kv,
		records:  repository.NewRecords(kv),
		settings: repository.NewSettings(kv),
	}, nil
}

func (e *env) Close(ctx context.Context) {
	if err := e.kv.Close(); err != nil {
		logging.From(ctx).Warn("failed to close store", "error", err)
	}
}

// newGemini resolves credentials from flags, then the settings store. A
// missing credential yields nil so that the failure surfaces as a
// configuration error when a workflow runs.
func (cfg *config) newGemini(ctx context.Context, settings *repository.Settings) (adapter.Gemini, error) {
	key := cfg.geminiAPIKey
	if key == "" {
		saved, ok, err := settings.Get(ctx, repository.SettingGeminiKey)
		if err != nil {
			return nil, err
		}
		if ok {
			key = saved
		}
	}

	gc := adapter.GeminiConfig{APIKey: key}
	if key == "" && cfg.geminiProject != "" {
		gc.Project = cfg.geminiProject
		gc.Location = cfg.geminiLocation
	}
	if gc.Validate() != nil {
		logging.From(ctx).Debug("gemini is not configured")
		return nil, nil
	}

	client, err := adapter.NewGemini(ctx, gc)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (cfg *config) newElevenLabs(ctx context.Context, settings *repository.Settings) (adapter.ElevenLabs, error) {
	key := cfg.elevenLabsKey
	if key == "" {
		saved, ok, err := settings.Get(ctx, repository.SettingElevenLabsKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		key = saved
	}
	return adapter.NewElevenLabs(key)
}

// newGenerator builds the request client with models from the config file
func (cfg *config) newGenerator(ctx context.Context, e *env, opts ...generate.Option) (*generate.Client, error) {
	gemini, err := cfg.newGemini(ctx, e.settings)
	if err != nil {
		return nil, err
	}

	var options []generate.Option
	m := cfg.file.Models
	if m.Text != "" {
		options = append(options, generate.WithTextModel(m.Text))
	}
	if m.Image != "" {
		options = append(options, generate.WithImageModel(m.Image))
	}
	if m.Speech != "" {
		options = append(options, generate.WithSpeechModel(m.Speech))
	}
	if m.Video != "" {
		options = append(options, generate.WithVideoModel(m.Video))
	}
	if m.Voice != "" || m.VoiceFallback != "" {
		options = append(options, generate.WithVoiceModels(
			firstNonEmpty(m.Voice, generate.DefaultVoiceModel),
			firstNonEmpty(m.VoiceFallback, generate.DefaultFallbackVoiceModel),
		))
	}
	if cfg.file.Poll.Interval > 0 {
		options = append(options, generate.WithPollInterval(cfg.file.Poll.Interval))
	}
	if cfg.file.Poll.MaxAttempts > 0 {
		options = append(options, generate.WithPollMaxAttempts(cfg.file.Poll.MaxAttempts))
	}

	voice, err := cfg.newElevenLabs(ctx, e.settings)
	if err != nil {
		return nil, err
	}
	if voice != nil {
		options = append(options, generate.WithElevenLabs(voice))
	}

	options = append(options, opts...)
	return generate.New(gemini, options...), nil
}

func (cfg *config) newStudio(ctx context.Context, e *env, opts ...generate.Option) (*studio.Studio, error) {
	gen, err := cfg.newGenerator(ctx, e, opts...)
	if err != nil {
		return nil, err
	}
	return studio.New(gen, e.records), nil
}

// syncConfig resolves the object storage settings: saved settings first,
// then the config file
func (cfg *config) syncConfig(ctx context.Context, e *env) (*model.SyncConfig, error) {
	saved, ok, err := e.settings.SyncConfig(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return saved, nil
	}
	if cfg.file.Sync != nil && cfg.file.Sync.Validate() == nil {
		return cfg.file.Sync, nil
	}
	return nil, goerr.New("cloud sync is not configured, run `vidscribe sync configure`", goerr.T(model.TagCredential))
}

func (cfg *config) newSync(ctx context.Context, e *env) (*cloudsync.UseCase, error) {
	sc, err := cfg.syncConfig(ctx, e)
	if err != nil {
		return nil, err
	}

	storage, err := adapter.NewStorage(ctx, adapter.StorageConfig{
		Bucket:          sc.Bucket,
		Project:         sc.Project,
		CredentialsFile: sc.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	return cloudsync.New(storage, cloudsync.WithPrefix(sc.KeyPrefix())), nil
}
