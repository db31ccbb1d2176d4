package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/khelghar/gametable/internal/housie"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
	Housie *HousieConfig  `hcl:"housie,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	AdminPassword string `hcl:"admin_password,optional"`
}

// TableConfig defines one betting table
type TableConfig struct {
	Name           string `hcl:"name,label"`
	Boot           int    `hcl:"boot"`
	MaxPlayers     int    `hcl:"max_players,optional"`
	TurnSeconds    int    `hcl:"turn_seconds,optional"`
	SessionMinutes int    `hcl:"session_minutes,optional"`
	Bots           int    `hcl:"bots,optional"`
}

// HousieConfig defines the number-calling game. The winner counts default
// to one each; an explicit 0 disables that prize. A ticket_limit of 0
// keeps every generated ticket active.
type HousieConfig struct {
	Tickets             int    `hcl:"tickets,optional"`
	TicketLimit         int    `hcl:"ticket_limit,optional"`
	CallIntervalSeconds int    `hcl:"call_interval_seconds,optional"`
	EarlySevenWinners   *int   `hcl:"early_seven_winners,optional"`
	LineWinners         *int   `hcl:"line_winners,optional"`
	FullHouseWinners    *int   `hcl:"full_house_winners,optional"`
	ScheduledStart      string `hcl:"scheduled_start,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableConfig{
			{
				Name:           "main",
				Boot:           10,
				MaxPlayers:     teenpatti.MaxSeats,
				TurnSeconds:    teenpatti.DefaultTurnSeconds,
				SessionMinutes: 60,
				Bots:           3,
			},
		},
		Housie: &HousieConfig{
			Tickets:             30,
			CallIntervalSeconds: 8,
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Missing file falls back to defaults
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	for i := range config.Tables {
		if config.Tables[i].MaxPlayers == 0 {
			config.Tables[i].MaxPlayers = teenpatti.MaxSeats
		}
		if config.Tables[i].TurnSeconds == 0 {
			config.Tables[i].TurnSeconds = teenpatti.DefaultTurnSeconds
		}
		if config.Tables[i].SessionMinutes == 0 {
			config.Tables[i].SessionMinutes = 60
		}
	}

	if config.Housie != nil {
		if config.Housie.Tickets == 0 {
			config.Housie.Tickets = 30
		}
		if config.Housie.CallIntervalSeconds == 0 {
			config.Housie.CallIntervalSeconds = 8
		}
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := map[string]bool{}
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("table %s: duplicate name", table.Name)
		}
		seen[table.Name] = true

		if table.Boot <= 0 {
			return fmt.Errorf("table %s: boot must be positive", table.Name)
		}
		if table.MaxPlayers < 2 || table.MaxPlayers > teenpatti.MaxSeats {
			return fmt.Errorf("table %s: max players must be between 2 and %d", table.Name, teenpatti.MaxSeats)
		}
		if table.TurnSeconds < 5 {
			return fmt.Errorf("table %s: turn_seconds must be at least 5", table.Name)
		}
		if table.Bots < 0 || table.Bots >= table.MaxPlayers {
			return fmt.Errorf("table %s: bots must leave at least one open seat", table.Name)
		}
	}

	if c.Housie != nil {
		if c.Housie.Tickets < 1 {
			return fmt.Errorf("housie: tickets must be positive")
		}
		if c.Housie.TicketLimit < 0 {
			return fmt.Errorf("housie: ticket_limit must not be negative")
		}
		if c.Housie.CallIntervalSeconds < 1 {
			return fmt.Errorf("housie: call_interval_seconds must be positive")
		}
		for name, v := range map[string]*int{
			"early_seven_winners": c.Housie.EarlySevenWinners,
			"line_winners":        c.Housie.LineWinners,
			"full_house_winners":  c.Housie.FullHouseWinners,
		} {
			if v != nil && *v < 0 {
				return fmt.Errorf("housie: %s must not be negative", name)
			}
		}
		if _, err := c.Housie.StartTime(); err != nil {
			return fmt.Errorf("housie: %w", err)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByName returns a table configuration by name
func (c *ServerConfig) GetTableByName(name string) *TableConfig {
	for _, table := range c.Tables {
		if table.Name == name {
			return &table
		}
	}
	return nil
}

// StartTime parses the optional scheduled_start value. A zero time means
// the game has no announced start.
func (c *HousieConfig) StartTime() (time.Time, error) {
	if c.ScheduledStart == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.ScheduledStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduled_start must be RFC 3339: %w", err)
	}
	return t, nil
}

// PrizeQuotas maps the configured winner counts onto prize names. Unset
// counts pay a single winner; an explicit 0 disables the prize.
func (c *HousieConfig) PrizeQuotas() map[string]int {
	return map[string]int{
		housie.PrizeEarlySeven: winnerQuota(c.EarlySevenWinners),
		housie.PrizeTopLine:    winnerQuota(c.LineWinners),
		housie.PrizeMiddleLine: winnerQuota(c.LineWinners),
		housie.PrizeBottomLine: winnerQuota(c.LineWinners),
		housie.PrizeFullHouse:  winnerQuota(c.FullHouseWinners),
	}
}

func winnerQuota(v *int) int {
	if v == nil {
		return 1
	}
	return *v
}
