package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/apreader/client/pkg/config"
)

const envPrefix = "APREADER"

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apreader",
		Short:         "Follow item sends, receipts and finds of an Archipelago multiworld.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd.Flags(), cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runReader(cmd.Context(), *cfg)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringP("config", "c", "", "path to a YAML config file (env: APREADER_CONFIG)")
	fs.StringVarP(&cfg.ServerURI, "server-uri", "s", cfg.ServerURI, "websocket address of the server (env: APREADER_SERVER_URI)")
	fs.StringVarP(&cfg.PlayerName, "player-name", "n", cfg.PlayerName, "slot name to connect as (env: APREADER_PLAYER_NAME)")
	fs.StringVarP(&cfg.Password, "password", "p", cfg.Password, "room password (env: APREADER_PASSWORD)")
	fs.StringVarP(&cfg.Game, "game", "g", cfg.Game, "game of the slot (env: APREADER_GAME)")
	fs.StringSliceVarP(&cfg.TargetPlayers, "target-players", "t", cfg.TargetPlayers, "only show events naming these players (env: APREADER_TARGET_PLAYERS)")
	fs.Int64Var(&cfg.MaxMessageSize, "max-message-size", cfg.MaxMessageSize, "largest inbound message in bytes (env: APREADER_MAX_MESSAGE_SIZE)")
	fs.IntVar(&cfg.MaxMessages, "max-messages", cfg.MaxMessages, "lines kept per pane, 0 keeps all (env: APREADER_MAX_MESSAGES)")
	fs.StringSliceVar(&cfg.CatalogGames, "catalog-games", cfg.CatalogGames, "games to request name tables for (env: APREADER_CATALOG_GAMES)")
	fs.BoolVarP(&cfg.Interactive, "interactive", "i", cfg.Interactive, "run the terminal UI (env: APREADER_INTERACTIVE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "display additional output (env: APREADER_VERBOSE)")
	fs.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "serve a status page on this address (env: APREADER_STATUS_ADDR)")
	fs.StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "record notifications in this sqlite file (env: APREADER_HISTORY_DB)")

	cmd.AddCommand(newInitCmd(), newHistoryCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("apreader v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig fills every flag the user did not set from the environment or
// the config file, in that order of precedence, then normalizes cfg.
func loadConfig(fs *pflag.FlagSet, cfg *config.Config) error {
	v := newViper()

	path, _ := fs.GetString("config")
	if path == "" {
		_ = v.BindEnv("config")
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if serr := fs.Set(f.Name, flagValue(v.Get(f.Name))); serr != nil && err == nil {
			err = fmt.Errorf("invalid %s: %w", f.Name, serr)
		}
	})
	if err != nil {
		return err
	}

	cfg.Normalize()
	return nil
}

// flagValue renders a viper value the way pflag parses it back. Lists from
// a config file become one CSV record, as string slice flags expect.
func flagValue(val any) string {
	var items []string
	switch val := val.(type) {
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return fmt.Sprintf("%v", val)
	}

	if len(items) == 0 {
		return ""
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(items)
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}
