package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "mediaindex",
		Short:         "Media library index",
		Long:          "Keeps a queryable index of a media library in sync with its local or S3 (MinIO) storage and applies safe mutations to both.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&path, "config", "", "path to a config file; searches "+strings.Join(configPaths, ", ")+" for config.yaml when unset")
	flags.Bool("no-color", false, "disable colored log output ("+envPrefix+"_LOG_NO_COLOR)")
	flags.String("log-level", "info", "minimum log level: debug, info, warn or error ("+envPrefix+"_LOG_LEVEL)")

	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.no_color", flags.Lookup("no-color"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}
