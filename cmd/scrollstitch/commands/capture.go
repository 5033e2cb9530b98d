package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/export"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a scrolling window as one image",
	Long: `Bring a window to the front, scroll it to the top, then page down one
screen at a time, capturing each page until the content stops moving.
The pages are stitched into a single image and saved.

Without a selector the focused window is captured. Press Ctrl+C to stop
early; the pages captured so far are still stitched.`,
	Example: `  # Capture the focused window into the configured output directory
  scrollstitch capture

  # Capture a window by title, at most 20 pages
  scrollstitch capture --title "Release notes" --max-iterations 20

  # Capture a window by id into a specific file
  scrollstitch capture --window 0x1400003 -o page.jpg`,
	RunE: runCapture,
}

var (
	captureWindow        string
	captureTitle         string
	captureClass         string
	captureMaxIterations int
	captureOutput        string
	captureFormat        string
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVarP(&captureWindow, "window", "w", "", "window id (decimal or 0x hex)")
	captureCmd.Flags().StringVarP(&captureTitle, "title", "t", "", "regular expression matched against window titles")
	captureCmd.Flags().StringVarP(&captureClass, "class", "c", "", "regular expression matched against window classes")
	captureCmd.Flags().IntVarP(&captureMaxIterations, "max-iterations", "n", 0, "maximum number of pages (default from config)")
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "output file (default is a dated file in output.dir)")
	captureCmd.Flags().StringVarP(&captureFormat, "format", "f", "", "output format when --output is not set (png or jpeg)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log := logger.WithComponent("capture")

	if captureFormat != "" {
		cfg.Output.Format = captureFormat
	}
	writer, err := cfg.Writer()
	if err != nil {
		return err
	}
	if captureOutput != "" {
		if writer.Format, err = export.FormatFromPath(captureOutput); err != nil {
			return err
		}
	}

	query := window.Query{Title: captureTitle, Class: captureClass}
	if captureWindow != "" {
		if query.ID, err = window.ParseHandle(captureWindow); err != nil {
			return err
		}
	}

	rt, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	target, err := window.Select(rt.windows, query)
	if err != nil {
		return err
	}
	log.Info().
		Str("window_id", target.Handle.String()).
		Str("title", target.Title).
		Str("class", target.Class).
		Msg("Capturing window")

	ctrl, err := rt.controller(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := ctrl.Run(ctx, scrolling.Request{
		Target:        target.Handle,
		MaxIterations: captureMaxIterations,
		Observer: func(ev scrolling.Event) {
			if ev.Kind == scrolling.EventFrame {
				fmt.Fprintf(os.Stderr, "\rCaptured %d page(s)", ev.Frames)
			}
		},
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		if errors.Is(err, scrolling.ErrNoContentCaptured) {
			return fmt.Errorf("nothing captured from window %s: %w", target.Handle, err)
		}
		return err
	}

	path := captureOutput
	if path != "" {
		err = writer.SaveAs(path, res.Image, target.Title)
	} else {
		path, err = writer.Save(res.Image, target.Title)
	}
	if err != nil {
		return err
	}

	printCaptureSummary(res)
	fmt.Println(path)
	return nil
}

func printCaptureSummary(res *scrolling.Result) {
	unaligned := 0
	for _, seg := range res.Segments[1:] {
		if !seg.Found {
			unaligned++
		}
	}

	fmt.Fprintf(os.Stderr, "Pages:     %d\n", res.Frames)
	fmt.Fprintf(os.Stderr, "Size:      %dx%d\n", res.Image.Width, res.Image.Height)
	fmt.Fprintf(os.Stderr, "Stopped:   %s\n", res.Reason)
	if unaligned > 0 {
		fmt.Fprintf(os.Stderr, "Unaligned: %d seam(s) appended without overlap\n", unaligned)
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "Warning:   %v\n", res.Err)
	}
	fmt.Fprintf(os.Stderr, "Duration:  %s\n", res.Duration.Round(time.Millisecond))
}
