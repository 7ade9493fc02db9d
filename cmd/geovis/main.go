package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"geovis/internal/logx"
	"geovis/internal/models"
	"geovis/internal/tui"
	"geovis/pkg/config"
	"geovis/pkg/dem"
	"geovis/pkg/export"
	"geovis/pkg/session"
	"geovis/pkg/volume"
)

func main() {
	// Parse command line arguments
	segyPath := flag.String("segy", "", "SEGY file to load")
	demPath := flag.String("dem", "", "DEM raster (TIFF, PNG or JPEG) to load; a <name>.yaml sidecar is read if present")
	configPath := flag.String("config", "", "YAML configuration file")
	createConfig := flag.String("create-config", "", "Write a default configuration file to this path and exit")
	kindList := flag.String("kind", "", "Comma-separated kinds to build in batch mode (dem,density,wiggle,volume); empty builds every kind with data")
	start := flag.Int("start", 0, "First trace of the window")
	count := flag.Int("count", 0, "Number of traces in the window (0 uses wiggle.maxTraces)")
	preset := flag.String("preset", "", "Transfer function preset, overrides transfer.preset")
	outDir := flag.String("out", "", "Output directory, overrides output.dir")
	interactive := flag.Bool("tui", false, "Run the interactive terminal UI")
	extractSlices := flag.Bool("extract-slices", false, "Save JPEG slices along all axes of the exported volume")
	synthPath := flag.String("synth", "", "Write a synthetic SEGY section to this path and load it")
	flag.Parse()

	if *createConfig != "" {
		if err := config.CreateDefaultConfigFile(*createConfig); err != nil {
			log.Fatalf("Failed to create config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *createConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *preset != "" {
		cfg.Transfer.Preset = *preset
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *count <= 0 {
		*count = cfg.Wiggle.MaxTraces
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if *synthPath != "" {
		if err := writeSynthetic(*synthPath); err != nil {
			log.Fatalf("Failed to write synthetic SEGY: %v", err)
		}
		*segyPath = *synthPath
	}
	if *segyPath == "" && *demPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	logFile, err := setupLogging(cfg, *interactive)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	surface, err := export.NewSurface(cfg.Output.Dir, cfg.Output.CompressVolume)
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	sess, err := session.New(cfg, surface)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if !*interactive {
		fmt.Println("================================")
		fmt.Println("GEOVIS - SEISMIC SECTION AND TERRAIN VISUALIZATION")
		fmt.Println("================================")
	}

	if *segyPath != "" {
		buf, err := os.ReadFile(*segyPath)
		if err != nil {
			log.Fatalf("Failed to read SEGY: %v", err)
		}
		info, err := sess.LoadSEGY(buf)
		if err != nil {
			log.Fatalf("Failed to decode SEGY: %v", err)
		}
		if !*interactive {
			fmt.Printf("SEGY: %d traces x %d samples, dt %d us, %s, record %.0f ms\n",
				info.TraceCount, info.SampleCount, info.DtMicros, info.FormatName, info.RecordLength)
			if f, err := sess.DominantFrequency(*start, *count); err == nil {
				fmt.Printf("Dominant frequency over the window: %.1f Hz\n", f)
			}
		}
	}
	if *demPath != "" {
		// the configured clip is applied once, by the session
		opts := session.DEMOptions(cfg)
		opts.ClipLowPercentile, opts.ClipHighPercentile = 0, 0
		grid, err := dem.ReadFile(*demPath, opts)
		if err != nil {
			log.Fatalf("Failed to read DEM: %v", err)
		}
		if err := sess.LoadDEM(grid); err != nil {
			log.Fatalf("Failed to load DEM: %v", err)
		}
		if !*interactive {
			fmt.Printf("DEM: %d x %d, elevation %.2f..%.2f\n", grid.Width, grid.Height, grid.ZMin, grid.ZMax)
		}
	}

	if *interactive {
		p := tea.NewProgram(tui.New(sess, *count), tea.WithAltScreen(), tea.WithMouseAllMotion())
		if _, err := p.Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	kinds, err := selectKinds(*kindList, sess)
	if err != nil {
		log.Fatalf("Invalid -kind: %v", err)
	}

	fmt.Printf("Building %d visualization(s), traces %d..%d, preset %s\n",
		len(kinds), *start, *start+*count-1, sess.Preset())
	ctx := context.Background()
	for _, kind := range kinds {
		t0 := time.Now()
		if _, err := sess.RequestVisualization(ctx, kind, *start, *count); err != nil {
			log.Fatalf("Building %s failed: %v", kind, err)
		}
		fmt.Printf("- %-8s %6.2fs  %s\n", kind, time.Since(t0).Seconds(), strings.Join(surface.Files(kind), ", "))
	}
	fmt.Printf("\nOutput written to: %s\n", surface.Dir())

	if *extractSlices {
		if err := saveSlices(sess, surface); err != nil {
			log.Fatalf("Slice extraction failed: %v", err)
		}
	}
}

// setupLogging installs a text handler at the configured level. The TUI owns
// the terminal, so there the log goes to a file in the output directory.
func setupLogging(cfg *config.Config, interactive bool) (*os.File, error) {
	opts := &slog.HandlerOptions{Level: logx.ParseLevel(cfg.Logging.Level)}
	if !interactive {
		if cfg.Output.Verbose {
			logx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		}
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.Output.Dir, "geovis.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logx.SetLogger(slog.New(slog.NewTextHandler(f, opts)))
	return f, nil
}

// selectKinds parses the -kind list, or picks every kind whose input is loaded.
func selectKinds(list string, sess *session.Session) ([]models.Kind, error) {
	if list == "" {
		var kinds []models.Kind
		if sess.Grid() != nil {
			kinds = append(kinds, models.KindDEM)
		}
		if sess.Dataset() != nil {
			kinds = append(kinds, models.KindDensity, models.KindWiggle, models.KindVolume)
		}
		return kinds, nil
	}
	var kinds []models.Kind
	for _, name := range strings.Split(list, ",") {
		k, err := models.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// saveSlices reads the exported volume back and writes slice sequences
// colored with the current transfer function.
func saveSlices(sess *session.Session, surface *export.Surface) error {
	var sidecar string
	for _, f := range surface.Files(models.KindVolume) {
		if strings.HasSuffix(f, ".yaml") && !strings.HasSuffix(f, "_transfer.yaml") {
			sidecar = f
		}
	}
	if sidecar == "" {
		return errors.New("no volume was exported; build -kind volume first")
	}

	vol, err := export.ReadVolume(sidecar)
	if err != nil {
		return err
	}
	pts, _ := sess.TransferFunction()
	mapping := pts.MapToScalarRange(float64(vol.ValueRange[0]), float64(vol.ValueRange[1]))
	viewer := volume.NewViewer(vol, mapping)

	fmt.Println("\nExtracting volume slices along all axes...")
	for _, axis := range []string{"x", "y", "z"} {
		axisDir := filepath.Join(surface.Dir(), "slices", axis)
		n, err := viewer.SaveSliceSequence(axis, axisDir)
		if err != nil {
			log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			continue
		}
		fmt.Printf("Saved %d %s-axis slices to: %s\n", n, axis, axisDir)
	}
	fmt.Println("Slice extraction completed!")
	return nil
}
