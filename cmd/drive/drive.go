// Package drive provides the "sheetkit drive" file storage commands.
package drive

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/drive"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
)

// NewCommand returns the drive command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Browse and transfer cloud storage files",
	}

	cmd.AddCommand(newLsCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newPutCommand())
	cmd.AddCommand(newGetCommand())

	return cmd
}

func printFiles(cmd *cobra.Command, command string, files []drive.File) error {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		return output.PrintJSON(command, files)
	}
	for _, f := range files {
		kind := "file"
		if f.IsFolder() {
			kind = "dir"
		}
		fmt.Printf("%-4s %-36s %10d  %s\n", kind, f.ID, f.Size, f.Name)
	}
	return nil
}

func newLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List a storage folder (default root)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := ""
			if len(args) > 0 {
				folderID = args[0]
			}

			client, err := auth.RequireAuth(cmd.Context())
			if err != nil {
				return err
			}

			files, err := drive.NewClient(client).ListFolder(cmd.Context(), folderID)
			if err != nil {
				return err
			}
			return printFiles(cmd, "drive ls", files)
		},
	}
	return cmd
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search storage by file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := auth.RequireAuth(cmd.Context())
			if err != nil {
				return err
			}

			files, err := drive.NewClient(client).Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printFiles(cmd, "drive search", files)
		},
	}
}

func newPutCommand() *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "put <local-file>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := auth.RequireAuth(cmd.Context())
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Uploading " + args[0])
			spin.Start()
			file, err := drive.NewClient(client).Upload(cmd.Context(), args[0], folderID)
			if err != nil {
				spin.Stop("Upload failed")
				return err
			}
			spin.Stop("Uploaded " + file.Name)

			fmt.Printf("%s\t%s\n", file.ID, file.WebLink)
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "Destination folder ID (default root)")
	return cmd
}

func newGetCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <file-id>",
		Short: "Download a file by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}

			client, err := auth.RequireAuth(cmd.Context())
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Downloading " + args[0])
			spin.Start()
			n, err := drive.NewClient(client).Download(cmd.Context(), args[0], outPath)
			if err != nil {
				spin.Stop("Download failed")
				return err
			}
			spin.Stop(fmt.Sprintf("Wrote %s (%d bytes)", outPath, n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Local path to write (required)")
	return cmd
}
