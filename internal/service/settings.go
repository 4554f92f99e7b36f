package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

func (s *Service) WatchSettings(l query.Listener) *query.Observer {
	return watch(s, SettingsKey(), true, s.api.GetSettings, l)
}

func (s *Service) Settings(ctx context.Context) (model.UserSettings, error) {
	return get(ctx, s, SettingsKey(), s.api.GetSettings)
}

// UpdateSettings saves settings and stores the server's copy.
func (s *Service) UpdateSettings() *query.Mutator[model.SettingsUpdate, model.UserSettings] {
	return query.NewMutator(query.Mutation[model.SettingsUpdate, model.UserSettings]{
		Fn: s.api.UpdateSettings,
		OnSuccess: func(st model.UserSettings, _ model.SettingsUpdate, _ any) {
			s.cache.SetData(SettingsKey(), st)
		},
	})
}
