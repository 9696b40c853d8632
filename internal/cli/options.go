package cli

import (
	"github.com/idia-astro/ilifudb/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GlobalOptions are the flags every command accepts. Non-empty values
// override the config file and the environment.
type GlobalOptions struct {
	ConfigPath string
	DSN        string
	Driver     string
	Verbose    bool
}

// AddFlags registers the global flags on fs.
func (o *GlobalOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", config.DefaultPath(), "Config file (TOML)")
	fs.StringVar(&o.DSN, "db", "", "SQLite file or PostgreSQL connection string")
	fs.StringVar(&o.Driver, "driver", "", "Database driver: sqlite or postgres")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Log every operation to stderr")
}

// Resolve loads the config file and applies the flag overrides.
func (o GlobalOptions) Resolve() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.Database.DSN = o.DSN
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
		cfg.Log.LogUseCases = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newConfigCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Print the effective configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Resolve()
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
