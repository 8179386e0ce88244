// Command speakwave-cli fills the speech form from flags and previews or
// saves the result once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgnsrekt/speakwave/internal/app"
	"github.com/dgnsrekt/speakwave/internal/config"
	"github.com/dgnsrekt/speakwave/internal/logging"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (default $SPEAKWAVE_CONFIG)")
		text       = flag.String("text", "", "text to speak")
		voice      = flag.String("voice", "", "voice ID, name or index (default from config)")
		rate       = flag.Int("rate", 0, "speaking rate in words per minute, 100-300 (default from config)")
		volume     = flag.Int("volume", -1, "volume 0-10 (default from config)")
		pitch      = flag.Int("pitch", 0, "pitch percent 50-200 (default from config)")
		name       = flag.String("name", "", "output filename without extension")
		format     = flag.String("format", "", "output format: mp3 or wav (default from config)")
		dir        = flag.String("dir", "", "output directory (default from config)")
		preview    = flag.Bool("preview", false, "play the speech instead of saving it")
		listVoices = flag.Bool("list-voices", false, "list available voices and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	// Interactive use: keep the log quiet unless asked.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := logging.NewWithWriter(os.Stderr, level, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Message(err))
		return 1
	}

	if *listVoices {
		for _, opt := range ui.VoiceOptions(a.Voices) {
			fmt.Printf("%-40s %s\n", opt.Label, opt.Voice.ID)
		}
		return 0
	}

	form := app.ApplyOverrides(a.Defaults, a.Voices, app.Overrides{
		Text:      *text,
		Voice:     *voice,
		Rate:      *rate,
		Volume:    *volume,
		Pitch:     *pitch,
		Filename:  *name,
		Format:    *format,
		Directory: *dir,
	})

	if err := form.Validate(len(a.Voices)); err != nil {
		fmt.Fprintln(os.Stderr, ui.Message(err))
		return 2
	}

	if *preview {
		if err := a.Session.Preview(ctx, form.Params(a.Voices)); err != nil {
			fmt.Fprintln(os.Stderr, ui.Message(err))
			return 1
		}
		return 0
	}

	path, err := a.Session.Save(ctx, form.SaveParams(a.Voices))
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Message(err))
		return 1
	}
	fmt.Println("Saved to " + path)
	return 0
}
