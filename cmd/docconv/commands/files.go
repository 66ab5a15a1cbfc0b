package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/docconv/cmd/docconv/ui"
)

var (
	compressTargetSize int64
	convertTimeout     time.Duration
)

var compressImageCmd = &cobra.Command{
	Use:   "compress-image <input> <output>",
	Short: "Recompress an image as grayscale JPEG under a byte budget",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompressImage,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a document to the format implied by the output extension",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

var extractArchiveCmd = &cobra.Command{
	Use:   "extract-archive <archive> <output-dir>",
	Short: "Unpack an archive into a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtractArchive,
}

func init() {
	compressImageCmd.Flags().Int64VarP(&compressTargetSize, "target-size", "t", 500<<10, "byte budget for the image")
	convertCmd.Flags().DurationVar(&convertTimeout, "timeout", 10*time.Minute, "overall time limit")
	extractArchiveCmd.Flags().DurationVar(&convertTimeout, "timeout", 10*time.Minute, "overall time limit")

	rootCmd.AddCommand(compressImageCmd, convertCmd, extractArchiveCmd)
}

func runCompressImage(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.service.CompressImage(args[0], args[1], compressTargetSize)
	if err != nil {
		return err
	}

	if res.Met {
		ui.Success("Wrote %s (%s, quality %d)", res.Path, ui.FormatBytes(int64(res.Size)), res.Quality)
	} else {
		ui.Warning("Wrote %s at lowest quality, %s is over the budget", res.Path, ui.FormatBytes(int64(res.Size)))
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), convertTimeout)
	defer cancel()

	spin := ui.NewSpinner("Converting " + args[0])
	spin.Start()
	err = e.service.ConvertFormat(ctx, args[0], args[1])
	spin.Stop()
	if err != nil {
		ui.Error("%v", err)
		return err
	}

	ui.Success("Wrote %s", args[1])
	return nil
}

func runExtractArchive(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), convertTimeout)
	defer cancel()

	spin := ui.NewSpinner("Extracting " + args[0])
	spin.Start()
	err = e.service.ExtractArchive(ctx, args[0], args[1])
	spin.Stop()
	if err != nil {
		ui.Error("%v", err)
		return err
	}

	ui.Success("Extracted %s into %s", args[0], args[1])
	return nil
}
