package repository

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

const (
	SettingGeminiKey     = "GEMINI_API_KEY"
	SettingElevenLabsKey = "ELEVEN_LABS_KEY"
	SettingSyncConfig    = "VIDSCRIBE_SYNC_CONFIG"
)

// Settings holds small configuration values such as credentials. An empty
// value is the same as no value.
type Settings struct {
	kv KV
}

func NewSettings(kv KV) *Settings {
	return &Settings{kv: kv}
}

func (s *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read setting", goerr.V("key", key))
	}
	value := strings.TrimSpace(string(raw))
	if !found || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value. Setting an empty value deletes the key.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Delete(ctx, key)
	}

	err := s.kv.Update(ctx, key, func([]byte, bool) ([]byte, error) {
		return []byte(value), nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to write setting", goerr.V("key", key))
	}
	return nil
}

func (s *Settings) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return goerr.Wrap(err, "failed to delete setting", goerr.V("key", key))
	}
	return nil
}

// SyncConfig returns the saved cloud sync configuration. A broken value is
// reported as absent.
func (s *Settings) SyncConfig(ctx context.Context) (*model.SyncConfig, bool, error) {
	raw, found, err := s.Get(ctx, SettingSyncConfig)
	if err != nil || !found {
		return nil, false, err
	}

	var cfg model.SyncConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		logging.From(ctx).Warn("sync config is corrupted, ignoring", "error", err)
		return nil, false, nil
	}
	if cfg.Validate() != nil {
		return nil, false, nil
	}
	return &cfg, true, nil
}

func (s *Settings) SaveSyncConfig(ctx context.Context, cfg *model.SyncConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal sync config")
	}
	return s.Set(ctx, SettingSyncConfig, string(raw))
}

func (s *Settings) ClearSyncConfig(ctx context.Context) error {
	return s.Delete(ctx, SettingSyncConfig)
}
