// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Reason string   `yaml:"reason" json:"reason"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

type Penalty struct {
	Reason string   `yaml:"reason" json:"reason"`
	Weight int      `yaml:"weight" json:"weight"`
	Any    []string `yaml:"any" json:"any"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Store struct {
		// sqlite | memory. Empty path also falls back to memory.
		Driver string `yaml:"driver" json:"driver"`
		Path   string `yaml:"path" json:"path"`
	} `yaml:"store" json:"store"`

	Pipeline struct {
		TargetContacts  int `yaml:"target_contacts" json:"target_contacts"`
		DiscoverSeconds int `yaml:"discover_timeout_seconds" json:"discover_timeout_seconds"`
		EmailsSeconds   int `yaml:"emails_timeout_seconds" json:"emails_timeout_seconds"`
		ResearchSeconds int `yaml:"research_timeout_seconds" json:"research_timeout_seconds"`
		DraftsSeconds   int `yaml:"drafts_timeout_seconds" json:"drafts_timeout_seconds"`
	} `yaml:"pipeline" json:"pipeline"`

	Search struct {
		RatePerSec float64 `yaml:"rate_per_sec" json:"rate_per_sec"`
		Burst      int     `yaml:"burst" json:"burst"`
	} `yaml:"search" json:"search"`

	OpenAI struct {
		Model          string `yaml:"model" json:"model"`
		BaseURL        string `yaml:"base_url" json:"base_url"`
		KeyringAccount string `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"openai" json:"openai"`

	Retention struct {
		Days       int `yaml:"days" json:"days"`               // 0 disables the sweep
		SweepHours int `yaml:"sweep_hours" json:"sweep_hours"` // sweep interval
	} `yaml:"retention" json:"retention"`

	Priority struct {
		TitleRules []Rule    `yaml:"title_rules" json:"title_rules"`
		Penalties  []Penalty `yaml:"penalties" json:"penalties"`
	} `yaml:"priority" json:"priority"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
