// Package cfg centralizes the agent's small amount of runtime
// configuration, following the teacher's cfg/credentials.go pattern of a
// package-level viper instance bound to environment variables (with an
// optional config file layered underneath it).
package cfg

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// EnvCollectorEndpoint is read by the original Rust agent too; kept
	// identical so operators migrating from it don't need to change
	// anything in their deployment manifests.
	EnvCollectorEndpoint = "METRIST_ORCHESTRATOR_ENDPOINT"

	defaultCollectorEndpoint = "127.0.0.1:51712"

	keyCollectorEndpoint = "collector_endpoint"
	keyBPFObjectPath     = "bpf_object_path"
	keyLogLevel          = "log_level"

	defaultBPFObjectPath = "bpf/tlsmon.o"
	defaultLogLevel      = "info"
)

var v = viper.New()

func init() {
	v.SetDefault(keyCollectorEndpoint, defaultCollectorEndpoint)
	v.SetDefault(keyBPFObjectPath, defaultBPFObjectPath)
	v.SetDefault(keyLogLevel, defaultLogLevel)

	_ = v.BindEnv(keyCollectorEndpoint, EnvCollectorEndpoint)
	_ = v.BindEnv(keyBPFObjectPath, "TLSFLOW_BPF_OBJECT")
	_ = v.BindEnv(keyLogLevel, "TLSFLOW_LOG_LEVEL")

	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".tlsflow"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	// Config file is optional; env vars and defaults always work without it.
	_ = v.ReadInConfig()
}

// CollectorEndpoint returns the destination for the per-transaction stats
// datagrams (spec.md §6, "downstream sink").
func CollectorEndpoint() string {
	return v.GetString(keyCollectorEndpoint)
}

// BPFObjectPath returns the path to the compiled probe object file. The
// build pipeline producing it is out of scope for this agent (spec.md §1).
func BPFObjectPath() string {
	return v.GetString(keyBPFObjectPath)
}

// LogLevel returns the configured console log level as a string; callers
// parse it with printer.ParseLevel.
func LogLevel() string {
	return v.GetString(keyLogLevel)
}

// SetForTest overrides a config key; only meant for table-driven tests in
// this module and its siblings.
func SetForTest(key string, value interface{}) {
	v.Set(key, value)
}
