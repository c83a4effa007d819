package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ShiyouQi888/on-tab/internal/flagx"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "60s" or as integer nanoseconds.
type JsonConfig struct {
	DatabasePath string         `json:"database_path"`
	IdentityURL  string         `json:"identity_url"`
	RemoteDSN    string         `json:"remote_dsn"`
	SyncInterval timex.Duration `json:"sync_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named
// by the -c/-config flag. Fields absent from the file keep their previous
// values. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.IdentityURL != "" {
		cfg.IdentityURL = jc.IdentityURL
	}
	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
}
