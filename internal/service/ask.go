package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// WatchAskHistory observes one page of past questions.
func (s *Service) WatchAskHistory(p model.PageParams, l query.Listener) *query.Observer {
	p = s.Page(p)
	return watch(s, AskHistoryKey(p), true, func(ctx context.Context) (model.AskHistoryList, error) {
		return s.api.AskHistory(ctx, p)
	}, l)
}

func (s *Service) AskHistory(ctx context.Context, p model.PageParams) (model.AskHistoryList, error) {
	p = s.Page(p)
	return get(ctx, s, AskHistoryKey(p), func(ctx context.Context) (model.AskHistoryList, error) {
		return s.api.AskHistory(ctx, p)
	})
}

func (s *Service) AskEntry(ctx context.Context, id int) (model.AskResult, error) {
	return get(ctx, s, AskEntryKey(id), func(ctx context.Context) (model.AskResult, error) {
		return s.api.GetAskHistory(ctx, id)
	})
}

// Ask poses a question. The answer joins the history.
func (s *Service) Ask() *query.Mutator[model.AskRequest, model.AskResult] {
	return query.NewMutator(query.Mutation[model.AskRequest, model.AskResult]{
		Fn: s.api.Ask,
		OnSuccess: func(res model.AskResult, _ model.AskRequest, _ any) {
			if res.ID > 0 {
				s.cache.SetData(AskEntryKey(res.ID), res)
			}
			s.invalidate(root(rootAskHistory))
		},
	})
}

func (s *Service) DeleteAskHistory() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DeleteAskHistory(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.cache.Remove(AskEntryKey(id))
			s.invalidate(root(rootAskHistory))
		},
	})
}
