package api

import (
	"context"
	"fmt"

	"github.com/nhle/voicenote/internal/model"
)

// Ask poses a natural-language question over the user's notes.
func (c *Client) Ask(ctx context.Context, in model.AskRequest) (model.AskResult, error) {
	if err := c.Validate(in); err != nil {
		return model.AskResult{}, err
	}
	var res model.AskResult
	if err := c.Post(ctx, "/api/ask", in, "Failed to get an answer", &res); err != nil {
		return model.AskResult{}, err
	}
	return res, nil
}

// AskHistory lists previously asked questions.
func (c *Client) AskHistory(
	ctx context.Context,
	p model.PageParams,
) (model.AskHistoryList, error) {
	var list model.AskHistoryList
	err := c.Get(ctx, "/api/ask-history", pageQuery(p), "Failed to load history", &list)
	if err != nil {
		return model.AskHistoryList{}, err
	}
	return list, nil
}

// GetAskHistory fetches one past answer.
func (c *Client) GetAskHistory(ctx context.Context, id int) (model.AskResult, error) {
	var res model.AskResult
	path := fmt.Sprintf("/api/ask-history/%d", id)
	if err := c.Get(ctx, path, nil, "Failed to load answer", &res); err != nil {
		return model.AskResult{}, err
	}
	return res, nil
}

// DeleteAskHistory deletes one past answer.
func (c *Client) DeleteAskHistory(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/ask-history/%d", id)
	return c.Delete(ctx, path, "Failed to delete history entry", nil)
}
