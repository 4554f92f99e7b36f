package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// WatchFeedback observes one page of submitted feedback.
func (s *Service) WatchFeedback(p model.PageParams, l query.Listener) *query.Observer {
	p = s.Page(p)
	return watch(s, FeedbackKey(p), true, func(ctx context.Context) (model.FeedbackList, error) {
		return s.api.ListFeedback(ctx, p)
	}, l)
}

// Feedback reads one page of submitted feedback.
func (s *Service) Feedback(ctx context.Context, p model.PageParams) (model.FeedbackList, error) {
	p = s.Page(p)
	return get(ctx, s, FeedbackKey(p), func(ctx context.Context) (model.FeedbackList, error) {
		return s.api.ListFeedback(ctx, p)
	})
}

// SubmitFeedback sends feedback optimistically. A provisional entry with a
// temporary client id is put at the top of the first page before the
// request goes out; a failure restores the page as it was, and every
// outcome refetches the feedback lists so server ids and fields replace
// the provisional ones.
func (s *Service) SubmitFeedback() *query.Mutator[model.FeedbackInput, model.Feedback] {
	first := FeedbackKey(s.Page(model.PageParams{}))
	return query.Optimistic(
		query.Mutation[model.FeedbackInput, model.Feedback]{Fn: s.api.SubmitFeedback},
		query.CacheOptimism(s.cache, first, root(rootFeedback), s.withProvisional),
	)
}

// withProvisional prepends a provisional entry built from in.
func (s *Service) withProvisional(prev model.FeedbackList, had bool, in model.FeedbackInput) model.FeedbackList {
	provisional := model.Feedback{
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Rating:      in.Rating,
		CreatedAt:   s.now(),
		ClientID:    s.clientID(),
	}
	if !had {
		prev = model.FeedbackList{Page: model.Page{Limit: s.pageSize}}
	}

	items := make([]model.Feedback, 0, len(prev.Feedback)+1)
	items = append(items, provisional)
	items = append(items, prev.Feedback...)

	next := prev
	next.Feedback = items
	next.Total = prev.Total + 1
	return next
}
