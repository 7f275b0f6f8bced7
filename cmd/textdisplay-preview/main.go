// Command textdisplay-preview plays the host role for text widgets: it loads
// widget configurations, ticks them at the host cadence and writes frames to a
// PNG file and/or a live web preview.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"textdisplay"
	"textdisplay/internal/host"
)

var (
	Version   = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configs     []string
		configDir   string
		listConfigs bool
		text        string
		width       int
		height      int
		fps         int
		outputMode  string
		outputFile  string
		listen      string
		frames      int
		logFile     string
		debug       bool
		showVersion bool
	)

	pflag.StringSliceVarP(&configs, "config", "c", nil, "Widget configuration names or files, rotated in order")
	pflag.StringVar(&configDir, "config-dir", "./config", "Configuration directory")
	pflag.BoolVar(&listConfigs, "list-configs", false, "List available configuration files")
	pflag.StringVarP(&text, "text", "t", "", "Show this text with default options instead of loading configs")
	pflag.IntVarP(&width, "width", "W", 64, "Surface width in pixels")
	pflag.IntVarP(&height, "height", "H", 32, "Surface height in pixels")
	pflag.IntVar(&fps, "fps", 30, "Ticks per second")
	pflag.StringVarP(&outputMode, "output", "o", "file", "Output: file, web or both")
	pflag.StringVar(&outputFile, "output-file", "preview.png", "PNG file for file output")
	pflag.StringVar(&listen, "listen", "127.0.0.1:8080", "Listen address for web output")
	pflag.IntVarP(&frames, "frames", "n", 0, "Render N ticks and exit (0 runs until interrupted)")
	pflag.StringVar(&logFile, "log-file", "", "Also write logs to this file, rotated")
	pflag.BoolVar(&debug, "debug", false, "Enable debug logging")
	pflag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	pflag.Parse()

	if showVersion {
		fmt.Printf("textdisplay-preview %s (%s)\n", Version, BuildTime)
		return 0
	}

	logger := newLogger(logFile, debug)
	log := logger.WithField("module", "main")

	configManager := textdisplay.NewConfigManager(configDir)

	if listConfigs {
		names, err := configManager.ListConfigs()
		if err != nil {
			log.Errorf("Config enumeration failed: %v", err)
			return 1
		}
		fmt.Println("Available configurations:")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return 0
	}

	if width <= 0 || height <= 0 {
		log.Errorf("Invalid surface size %dx%d", width, height)
		return 2
	}
	if fps <= 0 {
		fps = 30
	}

	outputs := host.NewOutputManager(logger)
	h := host.New(host.Config{
		Width:    width,
		Height:   height,
		Interval: time.Second / time.Duration(fps),
	}, outputs, logger)
	defer h.Close()

	registry := textdisplay.NewWidgetRegistry()
	if err := addWidgets(h, registry, configManager, configs, text, logger); err != nil {
		log.Error(err)
		return 1
	}

	mode := strings.ToLower(outputMode)
	if mode == "file" || mode == "both" {
		outputs.AddHandler(host.NewFileOutputHandler(outputFile))
	}
	if mode == "web" || mode == "both" {
		web := host.NewWebOutputHandler(listen, func() interface{} { return h.Status() }, logger)
		web.Start()
		outputs.AddHandler(web)
	}
	if outputs.Len() == 0 {
		log.Errorf("Unknown output %q", outputMode)
		return 2
	}
	defer outputs.Close()

	log.Infof("started, pid is %d", os.Getpid())
	log.Infof("Surface: %dx%d | Output: %s | %d fps", width, height, mode, fps)

	if frames > 0 {
		published := h.RunFrames(frames)
		log.Infof("Rendered %d ticks, published %d frames", frames, published)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := h.Run(ctx); err != nil && err != context.Canceled {
		log.Errorf("Host stopped: %v", err)
		return 1
	}
	return 0
}

func newLogger(logFile string, debug bool) *logrus.Logger {
	level := logrus.InfoLevel
	if debug {
		level = logrus.DebugLevel
	}

	var output io.Writer = os.Stdout
	if logFile != "" {
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		})
	}
	return textdisplay.NewLogger(output, level, logFile == "")
}

func addWidgets(h *host.Host, registry *textdisplay.WidgetRegistry, cm *textdisplay.ConfigManager,
	configs []string, text string, logger logrus.FieldLogger) error {

	if text != "" {
		w, err := registry.New(textdisplay.TextWidgetType, textdisplay.Options{Text: &text}, logger)
		if err != nil {
			return err
		}
		h.Add("text", w)
		return nil
	}

	if len(configs) == 0 {
		names, err := cm.ListConfigs()
		if err != nil {
			return err
		}
		configs = names
	}
	if len(configs) == 0 {
		return fmt.Errorf("no configurations found; use --config, --config-dir or --text")
	}

	for _, name := range configs {
		opts, err := loadOptions(cm, name)
		if err != nil {
			return fmt.Errorf("config load failed '%s': %w", name, err)
		}
		w, err := registry.New(textdisplay.TextWidgetType, *opts, logger)
		if err != nil {
			return err
		}
		h.Add(name, w)
	}
	return nil
}

// loadOptions treats names with an extension or a path separator as files.
func loadOptions(cm *textdisplay.ConfigManager, name string) (*textdisplay.Options, error) {
	if filepath.Ext(name) != "" || strings.ContainsRune(name, filepath.Separator) {
		return textdisplay.LoadOptions(name)
	}
	return cm.LoadConfig(name)
}
