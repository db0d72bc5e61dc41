package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	recorder "github.com/mappa-audio/recorder-go"
	"github.com/mappa-audio/recorder-go/audio"
	"github.com/mappa-audio/recorder-go/internal/logging"
	"github.com/mappa-audio/recorder-go/internal/wav"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:     "recorder",
		Short:   "Capture audio from the default input device",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newRecordCmd(), newDevicesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRecordCmd() *cobra.Command {
	var (
		rate     int
		channels int
		format   string
		buffer   int
		duration time.Duration
		out      string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the default input device into a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := audio.ParseSampleFormat(format)
			if err != nil {
				return err
			}

			log := logging.New(logLevel)

			rec, err := recorder.New(recorder.Config{
				SampleRate: rate,
				Channels:   channels,
				Sample:     sample,
				BufferSize: buffer,
			}, recorder.WithLogger(log))
			if err != nil {
				return err
			}
			defer rec.Close()

			blocks, err := rec.Start()
			if err != nil {
				return err
			}

			w, err := wav.Create(out, rec.Config().Format())
			if err != nil {
				rec.Stop()
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			var timeout <-chan time.Time
			if duration > 0 {
				timeout = time.After(duration)
			}

			log.Info().Str("out", out).Msg("Recording; press Ctrl-C to stop")

			frames, captureErr := capture(rec, blocks, w, sigChan, timeout)

			if err := w.Close(); err != nil && captureErr == nil {
				captureErr = err
			}
			if captureErr != nil {
				return captureErr
			}

			length := time.Duration(float64(frames) / float64(rate) * float64(time.Second))
			log.Info().
				Int("frames", frames).
				Str("length", length.String()).
				Msg("Recording saved")
			return nil
		},
	}

	cmd.Flags().IntVar(&rate, "rate", 16000, "target sample rate in Hz")
	cmd.Flags().IntVar(&channels, "channels", 1, "target channel count")
	cmd.Flags().StringVar(&format, "format", "f32", "target sample format (f32, i16, i32)")
	cmd.Flags().IntVar(&buffer, "buffer", 0, "delivery buffer size in blocks (0 = default)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().StringVarP(&out, "out", "o", "recording.wav", "output WAV path")

	return cmd
}

// blockWriter is the sink capture writes into; satisfied by wav.Writer.
type blockWriter interface {
	WriteBlock(recorder.Block) error
}

// capture drains the delivery channel into w until the channel closes or a
// stop is requested. A channel that closes before any Stop means the session
// died on a stream error; Stop is still called so the error surfaces instead
// of the recording silently ending.
func capture(rec *recorder.Recorder, blocks <-chan recorder.Block, w blockWriter, sigChan <-chan os.Signal, timeout <-chan time.Time) (int, error) {
	frames := 0
	stopped := false
	var stopErr error
	for {
		select {
		case blk, ok := <-blocks:
			if !ok {
				if !stopped {
					stopErr = rec.Stop()
				}
				return frames, stopErr
			}
			frames += blk.Frames
			if err := w.WriteBlock(blk); err != nil {
				rec.Stop()
				return frames, err
			}
		case <-sigChan:
			stopErr = rec.Stop()
			stopped = true
			sigChan = nil
		case <-timeout:
			stopErr = rec.Stop()
			stopped = true
			timeout = nil
		}
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := audio.NewPortAudio()
			if err != nil {
				return err
			}
			defer backend.Close()

			devices, err := backend.Devices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				marker := " "
				if d.Default {
					marker = "*"
				}
				fmt.Printf("%s %-40s %d ch @ %d Hz\n", marker, d.Name, d.Channels, d.DefaultRate)
			}
			return nil
		},
	}
}
