package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwantia/mediaindex/internal/agent"
	"github.com/mwantia/mediaindex/internal/config"
	"github.com/mwantia/mediaindex/pkg/index"
)

func NewMediaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the media library",
		Long:  "Browse the media index and create, upload, rename or delete entries in storage and index together.",
	}

	cmd.AddCommand(NewMediaListCommand())
	cmd.AddCommand(NewMediaTestCommand())
	cmd.AddCommand(NewMediaCreateDirectoryCommand())
	cmd.AddCommand(NewMediaUploadCommand())
	cmd.AddCommand(NewMediaMoveCommand())
	cmd.AddCommand(NewMediaRemoveCommand())

	return cmd
}

func NewMediaListCommand() *cobra.Command {
	var humanReadable bool
	var longFormat bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List media index entries",
		Long:  "List all entries indexed directly within the defined folder.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				items, err := engine.List(ctx, dir)
				if err != nil {
					return describe(err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, item := range items {
					name := item.Filename
					if item.IsFolder() {
						name += "/"
					}
					if !longFormat {
						fmt.Fprintln(w, name)
						continue
					}

					size := "-"
					if item.Size != nil {
						size = formatSize(*item.Size, humanReadable)
					}
					modified := "-"
					if item.ModifiedAt != nil {
						modified = item.ModifiedAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.Kind, size, modified, name, item.URL)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVarP(&humanReadable, "human", "H", false, "Enable human-readable format")
	cmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Display long format")

	return cmd
}

func NewMediaTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <path>",
		Short: "Test media storage",
		Long:  "Tests if the defined path exists within the media storage.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, name := splitPath(args[0])

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				exists, err := engine.Exists(ctx, dir, name)
				if err != nil {
					return describe(err)
				}
				if !exists {
					return fmt.Errorf("'%s' does not exist", args[0])
				}

				fmt.Fprintf(cmd.OutOrStdout(), "'%s' exists\n", args[0])
				return nil
			})
		},
	}

	return cmd
}

func NewMediaCreateDirectoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create media folder",
		Long:  "Create a new folder within an existing indexed folder (or the root).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, name := splitPath(args[0])

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				result, err := engine.CreateDirectory(ctx, dir, name)
				return report(cmd.OutOrStdout(), "Created", result, err)
			})
		},
	}

	return cmd
}

func NewMediaUploadCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file> [folder]",
		Short: "Upload a local file",
		Long:  "Upload a local file into an indexed folder (or the root). The stored name is sanitized.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 1 {
				dir = args[1]
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				result, err := engine.Upload(ctx, dir, name, file)
				return report(cmd.OutOrStdout(), "Uploaded", result, err)
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Filename to store the upload as (default is the local name)")

	return cmd
}

func NewMediaMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <path> <new-name>",
		Short: "Rename media entry",
		Long:  "Rename a file or folder in place. Files keep their extension, only the base name changes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, name := splitPath(args[0])

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				result, err := engine.Rename(ctx, dir, name, args[1])
				return report(cmd.OutOrStdout(), "Renamed to", result, err)
			})
		},
	}

	return cmd
}

func NewMediaRemoveCommand() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Removes media entry",
		Long:  "Removes the file defined in the path. Folders (and everything below them) require --recursive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, name := splitPath(args[0])

			return withEngine(cmd, func(ctx context.Context, engine index.MediaIndex) error {
				result, err := engine.Delete(ctx, dir, name, recursive)
				return report(cmd.OutOrStdout(), "Removed", result, err)
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove a folder and all of its contents")

	return cmd
}

func withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine index.MediaIndex) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return agent.NewAgent(cfg).Run(cmd.Context(), fn)
}

func report(w io.Writer, verb string, result *index.Result, err error) error {
	if err != nil {
		return describe(err)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warning)
	}
	fmt.Fprintf(w, "%s '%s'\n", verb, result.Path)
	return nil
}

func describe(err error) error {
	return fmt.Errorf("%s (%w)", index.Describe(err), err)
}

// splitPath separates the last segment without cleaning the path, so that
// parent segments still reach the engine and get rejected there.
func splitPath(p string) (string, string) {
	p = strings.Trim(p, "/")
	dir, name := path.Split(p)
	return strings.TrimSuffix(dir, "/"), name
}

func formatSize(size int64, human bool) string {
	if !human {
		return fmt.Sprintf("%d", size)
	}

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
