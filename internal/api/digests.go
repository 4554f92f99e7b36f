package api

import (
	"context"
	"fmt"

	"github.com/nhle/voicenote/internal/model"
)

// Summarize asks the backend for a digest of recent notes.
func (c *Client) Summarize(
	ctx context.Context,
	in model.SummarizeRequest,
) (model.Digest, error) {
	if err := c.Validate(in); err != nil {
		return model.Digest{}, err
	}
	var d model.Digest
	if err := c.Post(ctx, "/api/summarize", in, "Failed to summarize notes", &d); err != nil {
		return model.Digest{}, err
	}
	return d, nil
}

// ListDigests returns stored digests.
func (c *Client) ListDigests(
	ctx context.Context,
	p model.PageParams,
) (model.DigestList, error) {
	var list model.DigestList
	err := c.Get(ctx, "/api/digests", pageQuery(p), "Failed to load digests", &list)
	if err != nil {
		return model.DigestList{}, err
	}
	return list, nil
}

// GetDigest fetches one digest.
func (c *Client) GetDigest(ctx context.Context, id int) (model.Digest, error) {
	var d model.Digest
	path := fmt.Sprintf("/api/digests/%d", id)
	if err := c.Get(ctx, path, nil, "Failed to load digest", &d); err != nil {
		return model.Digest{}, err
	}
	return d, nil
}

// DeleteDigest deletes a digest.
func (c *Client) DeleteDigest(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/digests/%d", id)
	return c.Delete(ctx, path, "Failed to delete digest", nil)
}
