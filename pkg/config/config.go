package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURI      = "ws://localhost:38281"
	DefaultMaxMessageSize = 10 * 1024 * 1024
	DefaultMaxMessages    = 1000
)

// ErrExists is returned by WriteDefault when the target file is already there.
var ErrExists = errors.New("config file already exists")

// Config is everything a reader session needs. It is built once by the CLI
// and handed to the client; nothing reads the environment after that.
type Config struct {
	ServerURI      string   `yaml:"server-uri" mapstructure:"server-uri"`
	PlayerName     string   `yaml:"player-name" mapstructure:"player-name"`
	Password       string   `yaml:"password" mapstructure:"password"`
	Game           string   `yaml:"game" mapstructure:"game"`
	TargetPlayers  []string `yaml:"target-players" mapstructure:"target-players"`
	MaxMessageSize int64    `yaml:"max-message-size" mapstructure:"max-message-size"`
	MaxMessages    int      `yaml:"max-messages" mapstructure:"max-messages"`
	CatalogGames   []string `yaml:"catalog-games" mapstructure:"catalog-games"`
	Interactive    bool     `yaml:"interactive" mapstructure:"interactive"`
	Verbose        bool     `yaml:"verbose" mapstructure:"verbose"`
	StatusAddr     string   `yaml:"status-addr" mapstructure:"status-addr"`
	HistoryDB      string   `yaml:"history-db" mapstructure:"history-db"`
}

func Default() Config {
	return Config{
		ServerURI:      DefaultServerURI,
		MaxMessageSize: DefaultMaxMessageSize,
		MaxMessages:    DefaultMaxMessages,
		Interactive:    true,
	}
}

// Normalize trims string fields and drops blank list entries.
func (c *Config) Normalize() {
	c.ServerURI = strings.TrimSpace(c.ServerURI)
	c.PlayerName = strings.TrimSpace(c.PlayerName)
	c.Game = strings.TrimSpace(c.Game)
	c.StatusAddr = strings.TrimSpace(c.StatusAddr)
	c.HistoryDB = strings.TrimSpace(c.HistoryDB)
	c.TargetPlayers = compact(c.TargetPlayers)
	c.CatalogGames = compact(c.CatalogGames)
}

func (c Config) Validate() error {
	if c.ServerURI == "" {
		return fmt.Errorf("server uri is required")
	}
	u, err := url.Parse(c.ServerURI)
	if err != nil {
		return fmt.Errorf("server uri: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server uri must use ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server uri has no host")
	}
	if c.Game == "" {
		return fmt.Errorf("game is required")
	}
	if c.PlayerName == "" {
		return fmt.Errorf("player name is required")
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	if c.MaxMessages < 0 {
		return fmt.Errorf("max messages must not be negative, got %d", c.MaxMessages)
	}
	return nil
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type field struct {
	key     string
	comment string
	value   *yaml.Node
}

// WriteDefault writes a commented config file with default values. An
// existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultYAML renders the default configuration with a comment on every key.
func DefaultYAML() ([]byte, error) {
	d := Default()
	fields := []field{
		{"server-uri", "websocket address of the multiworld server", scalar(d.ServerURI)},
		{"player-name", "slot name to authenticate as", scalar("")},
		{"password", "room password, if the server has one", scalar("")},
		{"game", "game of the slot", scalar("")},
		{"target-players", "only show events naming these players; empty shows everyone", sequence(nil)},
		{"max-message-size", "largest inbound websocket message in bytes", integer(d.MaxMessageSize)},
		{"max-messages", "lines kept per pane", integer(int64(d.MaxMessages))},
		{"catalog-games", "games to request name tables for; empty requests all", sequence(nil)},
		{"interactive", "run the terminal UI", boolean(d.Interactive)},
		{"verbose", "log roster and catalog details", boolean(d.Verbose)},
		{"status-addr", "serve a status page on this address, e.g. 127.0.0.1:8080", scalar("")},
		{"history-db", "record notifications in this sqlite file", scalar("")},
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: f.key, HeadComment: f.comment}
		root.Content = append(root.Content, key, f.value)
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "apreader configuration",
		Content:     []*yaml.Node{root},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func integer(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)}
}

func boolean(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(v)}
}

func sequence(vs []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range vs {
		n.Content = append(n.Content, scalar(v))
	}
	return n
}
