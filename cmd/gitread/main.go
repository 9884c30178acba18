package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/gitread/pkg/repo"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the persistent
// flags have been parsed.
type app struct {
	repoPath   string
	configPath string
	colorMode  string
	debug      bool

	settings Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "gitread",
		Short:         "Read-only browser for git repositories",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.repoPath, "repo", "C", ".", "path inside the repository to read")
	flags.StringVar(&a.configPath, "config", "", "settings file (default is $HOME/.gitread.toml)")
	flags.StringVar(&a.colorMode, "color", "", "colorize output: auto, always or never")
	flags.BoolVar(&a.debug, "debug", false, "log debug events to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newDiffCmd(a))
	root.AddCommand(newLastChangeCmd(a))
	root.AddCommand(newRefsCmd(a))
	root.AddCommand(newReflogCmd(a))
	root.AddCommand(newCatFileCmd(a))
	root.AddCommand(newLsTreeCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newWatchCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	settings, err := loadSettings(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("color") {
		settings.Color = a.colorMode
	}
	if err := settings.validate(); err != nil {
		return err
	}
	a.settings = settings

	if a.debug || settings.Debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		a.logger = logger
	}
	return nil
}

func (a *app) openRepo() (*repo.Repo, error) {
	return repo.Open(a.repoPath,
		repo.WithLogger(a.logger),
		repo.WithCacheSize(a.settings.CacheSize),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gitread %s\n", version)
		},
	}
}
