package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/app"
	"github.com/nhle/voicenote/internal/audio"
	appsync "github.com/nhle/voicenote/internal/sync"
)

// runTUI starts the terminal UI and blocks until it exits.
func (e *env) runTUI(ctx context.Context) error {
	if e.store != nil {
		n, err := e.cache.Restore()
		if err != nil {
			e.logger.Warn("restoring query cache", zap.Error(err))
		} else {
			e.logger.Debug("restored query cache", zap.Int("entries", n))
		}
	}

	notifier := appsync.NewNotifier()
	defer notifier.Stop()

	rc := e.cfg.Recorder
	recorder := audio.NewRecorder(
		audio.NewFFmpegDevice(rc.InputFormat, rc.InputDevice, e.logger),
		audio.WithMinBytes(rc.MinBytes),
		audio.WithTimeslice(rc.Timeslice()),
		audio.WithLogger(e.logger),
	)
	defer recorder.Cancel()

	m := app.New(app.Deps{
		Service:   e.svc,
		Notifier:  notifier,
		Recorder:  recorder,
		Account:   e.creds,
		Config:    *e.cfg,
		Logger:    e.logger,
		OnSignOut: e.clearLocal,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// clearLocal drops the persisted query cache.
func (e *env) clearLocal() error {
	if e.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.store.ClearQueries(ctx)
}
