package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const DefaultSyncPrefix = "vidscribe"

// SyncConfig configures the remote item archive in Cloud Storage
type SyncConfig struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix"`
	Project         string `json:"project,omitempty" yaml:"project"`
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file"`
}

func (x *SyncConfig) Validate() error {
	if strings.TrimSpace(x.Bucket) == "" {
		return goerr.New("sync bucket is not configured", goerr.T(TagValidation))
	}
	return nil
}

// KeyPrefix returns the prefix without surrounding slashes, defaulting to
// DefaultSyncPrefix
func (x *SyncConfig) KeyPrefix() string {
	p := strings.Trim(strings.TrimSpace(x.Prefix), "/")
	if p == "" {
		return DefaultSyncPrefix
	}
	return p
}
