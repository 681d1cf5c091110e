package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/landmark-studio/internal/config"
	"github.com/kozaktomas/landmark-studio/internal/detector"
	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

var detectCmd = &cobra.Command{
	Use:   "detect <path>...",
	Short: "Detect and report facial landmarks for images",
	Long: `Detect facial landmarks on one or more images and print the aggregated
group coordinates, per-group confidence and the anatomical validation
report. Directories are expanded to the image files they contain.

With --output, the full JSON result document is written next to the
report: to the given file for a single image, or into the given
directory (one <name>.landmarks.json per image) for a batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("output", "", "File (single image) or directory (batch) for JSON results")
	detectCmd.Flags().Bool("json", false, "Print results as JSON instead of a report")
}

// imageExtensions are the file types the detect command picks up from directories.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

// collectImagePaths expands the detect arguments into a sorted list of image files.
func collectImagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found")
	}
	sort.Strings(paths)
	return paths, nil
}

// detectOne runs detection on a single image and returns the result document.
func detectOne(ctx context.Context, client *detector.Client, reg *landmark.Registry, path string) (landmark.Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the CLI arguments
	if err != nil {
		return landmark.Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := detector.InspectImage(data)
	if err != nil {
		return landmark.Result{}, fmt.Errorf("inspecting %s: %w", path, err)
	}

	detection, err := client.Detect(ctx, data)
	if err != nil {
		return landmark.Result{}, fmt.Errorf("detecting %s: %w", path, err)
	}

	sess := session.New(reg)
	if _, err := sess.SetImage(info.Hash, info.Shape, detection.Landmarks); err != nil {
		return landmark.Result{}, fmt.Errorf("aggregating %s: %w", path, err)
	}
	if ok, err := sess.VerifyTransform(); err == nil && !ok {
		fmt.Fprintf(os.Stderr, "Warning: coordinate round trip for %s drifts by more than 1 pixel\n", path)
	}
	return sess.Export(), nil
}

// printReport prints a human-readable result for one image.
func printReport(path string, result landmark.Result) {
	fmt.Printf("%s (%dx%d)\n", path, result.Image.Width, result.Image.Height)
	for _, g := range result.Groups {
		fmt.Printf("  %-18s (%10.4f, %10.4f)  confidence %.2f [%s]\n",
			g.Label, g.Point.X, g.Point.Y, g.Confidence, g.Tier)
	}

	if result.Validation.IsValid {
		fmt.Println("  Validation: OK")
	} else {
		fmt.Println("  Validation:")
		for _, warning := range result.Validation.Warnings {
			fmt.Printf("    - %s\n", warning)
		}
	}
	fmt.Println()
}

// writeResult writes one result document as JSON.
func writeResult(path string, result landmark.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// outputPath resolves where the JSON document for an image goes in batch mode.
func outputPath(outputDir, imagePath string) string {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(outputDir, base+".landmarks.json")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	reg, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("building group registry: %w", err)
	}

	paths, err := collectImagePaths(args)
	if err != nil {
		return err
	}

	output := mustGetString(cmd, "output")
	jsonOutput := mustGetBool(cmd, "json")
	batch := len(paths) > 1

	if batch && output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	var bar *progressbar.ProgressBar
	if batch && !jsonOutput {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Detecting landmarks"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	client := detector.NewClient(cfg.Detector.URL)
	ctx := cmd.Context()

	results := make(map[string]landmark.Result, len(paths))
	var failures int
	for _, path := range paths {
		result, err := detectOne(ctx, client, reg, path)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		results[path] = result

		switch {
		case batch && output != "":
			if err := writeResult(outputPath(output, path), result); err != nil {
				return err
			}
		case output != "":
			if err := writeResult(output, result); err != nil {
				return err
			}
		}
	}
	if bar != nil {
		fmt.Println()
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		for _, path := range paths {
			if result, ok := results[path]; ok {
				printReport(path, result)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d images failed", failures, len(paths))
	}
	return nil
}
