package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/ScrollStitch/internal/export"
	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
	"github.com/spf13/cobra"
)

var stitchCmd = &cobra.Command{
	Use:   "stitch IMAGE IMAGE...",
	Short: "Stitch existing screenshots into one image",
	Long: `Stitch screenshots of a scrolled page, given in scroll order, into a single
image. All screenshots must have the same width.

Each seam is reported with the overlap that was found; screenshots whose
overlap cannot be found are appended in full. Useful for tuning the
overlap settings without touching a live window.`,
	Example: `  # Stitch three pages
  scrollstitch stitch page1.png page2.png page3.png -o full.png

  # Try a finer search step
  scrollstitch stitch page*.png -o full.png --step 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStitch,
}

var (
	stitchOutput      string
	stitchStripHeight int
	stitchSampleWidth int
	stitchStep        int
	stitchThreshold   float64
)

func init() {
	rootCmd.AddCommand(stitchCmd)

	stitchCmd.Flags().StringVarP(&stitchOutput, "output", "o", "", "output file (png or jpeg by extension)")
	stitchCmd.Flags().IntVar(&stitchStripHeight, "strip-height", 0, "rows compared per candidate offset (default from config)")
	stitchCmd.Flags().IntVar(&stitchSampleWidth, "sample-width", 0, "width of the sampled column window (default from config)")
	stitchCmd.Flags().IntVar(&stitchStep, "step", 0, "distance between candidate offsets (default from config)")
	stitchCmd.Flags().Float64Var(&stitchThreshold, "threshold", 0, "fraction of sampled pixels that must match (default from config)")
	stitchCmd.MarkFlagRequired("output")
}

func runStitch(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	opts := cfg.OverlapOptions()
	if stitchStripHeight > 0 {
		opts.StripHeight = stitchStripHeight
	}
	if stitchSampleWidth > 0 {
		opts.SampleWidth = stitchSampleWidth
	}
	if stitchStep > 0 {
		opts.Step = stitchStep
	}
	if stitchThreshold > 0 {
		opts.Threshold = stitchThreshold
	}

	writer, err := cfg.Writer()
	if err != nil {
		return err
	}
	if writer.Format, err = export.FormatFromPath(stitchOutput); err != nil {
		return err
	}

	frames := make([]*frame.Frame, 0, len(args))
	for _, path := range args {
		img, err := export.Load(path)
		if err != nil {
			return err
		}
		frames = append(frames, frame.FromImage(img))
	}

	img, segments, err := stitch.New(stitch.NewLocator(opts)).Stitch(frames)
	if err != nil {
		return err
	}

	printSeams(args, segments)

	if err := writer.SaveAs(stitchOutput, img, ""); err != nil {
		return err
	}
	fmt.Printf("Stitched %d image(s) into %s (%dx%d)\n", len(frames), stitchOutput, img.Width, img.Height)
	return nil
}

func printSeams(paths []string, segments []stitch.Segment) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "IMAGE\tOVERLAP\tROWS ADDED")
	fmt.Fprintln(w, "-----\t-------\t----------")

	for i, seg := range segments {
		overlap := "-"
		switch {
		case i == 0:
		case seg.Found:
			overlap = fmt.Sprintf("%d", seg.Offset)
		default:
			overlap = "not found"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", paths[seg.Index], overlap, seg.Rows)
	}
}
