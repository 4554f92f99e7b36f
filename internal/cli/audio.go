package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/logging"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/service"
	appsync "github.com/nhle/voicenote/internal/sync"
)

func (e *env) transcribeCmd() *cobra.Command {
	var opts mealFlags
	cmd := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Upload an audio file as a note, or as a meal with --meal",
		Long: `Upload an audio file for transcription. The file type is detected from
its content. Without --meal the backend files the transcript as a note and
suggests todos; with --meal it logs a meal entry instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.uploadFile(cmd, args[0], opts)
		},
	}
	opts.bind(cmd, true)
	return cmd
}

func (e *env) recordCmd() *cobra.Command {
	var (
		opts     mealFlags
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone and upload the clip",
		Long: `Record from the microphone with ffmpeg. Recording stops when Enter is
pressed or --duration elapses, and the clip is uploaded. Interrupting
discards the clip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			meal, err := opts.options()
			if err != nil {
				return err
			}
			clip, err := e.capture(cmd, duration)
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				return errors.New(audio.DescribeError(err))
			}
			return e.upload(cmd.Context(), cmd.OutOrStdout(), clip, opts.meal, meal)
		},
	}
	opts.bind(cmd, true)
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (default: wait for Enter)")
	return cmd
}

// capture records until Enter, the duration or cancellation.
func (e *env) capture(cmd *cobra.Command, duration time.Duration) (audio.Clip, error) {
	ctx := cmd.Context()
	rc := e.cfg.Recorder
	rec := audio.NewRecorder(
		audio.NewFFmpegDevice(rc.InputFormat, rc.InputDevice, e.logger),
		audio.WithMinBytes(rc.MinBytes),
		audio.WithTimeslice(rc.Timeslice()),
		audio.WithLogger(e.logger),
	)
	if err := rec.Start(ctx); err != nil {
		return audio.Clip{}, err
	}

	if duration > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Recording for %s…\n", duration)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "Recording… press Enter to stop.")
	}

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		close(enter)
	}()
	var timeout <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-ctx.Done():
		rec.Cancel()
		return audio.Clip{}, ctx.Err()
	case <-enter:
	case <-timeout:
	}
	clip, err := rec.Stop()
	if err != nil {
		return audio.Clip{}, err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Captured %s in %s.\n", clip.HumanSize(), clip.Duration.Round(time.Second))
	return clip, nil
}

func (e *env) uploadFile(cmd *cobra.Command, path string, opts mealFlags) error {
	meal, err := opts.options()
	if err != nil {
		return err
	}
	clip, err := audio.LoadFile(path)
	if err != nil {
		return err
	}
	return e.upload(cmd.Context(), cmd.OutOrStdout(), clip, opts.meal, meal)
}

// upload sends clip as a note, or as a meal when asMeal is set, and prints
// the result.
func (e *env) upload(ctx context.Context, w io.Writer, clip audio.Clip, asMeal bool, meal model.MealTranscribeOptions) error {
	if asMeal {
		m, err := e.svc.TranscribeMeal().Mutate(ctx, service.MealUpload{Clip: clip, Options: meal})
		if err != nil {
			return err
		}
		return e.render(w, m, func(w io.Writer) error {
			fmt.Fprintf(w, "Meal #%d logged\n\n", m.ID)
			return writeMeal(w, m)
		})
	}

	res, err := e.svc.Transcribe().Mutate(ctx, clip)
	if err != nil {
		return err
	}
	return e.render(w, res, func(w io.Writer) error {
		if err := writeFields(w,
			"Note", fmt.Sprintf("#%d", res.NoteID),
			"Title", res.Title,
			"Folder", res.FolderPath,
			"Tags", strings.Join(res.Tags, ", "),
		); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", res.Transcription)
		if todos := res.SuggestedTodos(); len(todos) > 0 {
			fmt.Fprintf(w, "\n%s suggested:\n", humanize.Plural(len(todos), "todo", "todos"))
			return writeTodos(w, todos)
		}
		return nil
	})
}

func (e *env) watchCmd() *cobra.Command {
	var (
		opts     mealFlags
		existing bool
		patterns []string
		settle   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Upload audio files as they appear in a directory",
		Long: `Watch a directory, for example a phone sync folder, and upload every new
audio file once it stops changing. Uploaded files move to DIR/.processed;
failed files stay in place. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meal, err := opts.options()
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				patterns = e.cfg.Watch.Patterns
			}
			w, err := appsync.NewInboxWatcher(args[0], patterns,
				appsync.WithSettle(settle),
				appsync.WithExisting(existing),
				appsync.WithInboxLogger(e.logger),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s… press Ctrl+C to stop.\n", args[0])
			return w.Run(cmd.Context(), func(ctx context.Context, path string) error {
				clip, err := audio.LoadFile(path)
				if err != nil {
					return err
				}
				e.logger.Info("uploading inbox file", zap.String(logging.FieldFile, path))
				return e.upload(ctx, cmd.OutOrStdout(), clip, opts.meal, meal)
			})
		},
	}
	opts.bind(cmd, true)
	cmd.Flags().BoolVar(&existing, "existing", false, "Also upload matching files already in the directory")
	cmd.Flags().StringSliceVarP(&patterns, "pattern", "p", nil, "Glob of files to pick up (repeatable)")
	cmd.Flags().DurationVar(&settle, "settle", 0, "How long a file must be unchanged before upload")
	return cmd
}
