package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

func (s *Service) WatchDigests(p model.PageParams, l query.Listener) *query.Observer {
	p = s.Page(p)
	return watch(s, DigestsKey(p), true, func(ctx context.Context) (model.DigestList, error) {
		return s.api.ListDigests(ctx, p)
	}, l)
}

func (s *Service) Digests(ctx context.Context, p model.PageParams) (model.DigestList, error) {
	p = s.Page(p)
	return get(ctx, s, DigestsKey(p), func(ctx context.Context) (model.DigestList, error) {
		return s.api.ListDigests(ctx, p)
	})
}

func (s *Service) Digest(ctx context.Context, id int) (model.Digest, error) {
	return get(ctx, s, DigestKey(id), func(ctx context.Context) (model.Digest, error) {
		return s.api.GetDigest(ctx, id)
	})
}

// Summarize creates a digest.
func (s *Service) Summarize() *query.Mutator[model.SummarizeRequest, model.Digest] {
	return query.NewMutator(query.Mutation[model.SummarizeRequest, model.Digest]{
		Fn: s.api.Summarize,
		OnSuccess: func(d model.Digest, _ model.SummarizeRequest, _ any) {
			s.cache.SetData(DigestKey(d.ID), d)
			s.invalidate(root(rootDigests))
		},
	})
}

func (s *Service) DeleteDigest() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DeleteDigest(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.cache.Remove(DigestKey(id))
			s.invalidate(root(rootDigests))
		},
	})
}
