package api

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
)

// SubmitFeedback sends a bug report, feature request or comment.
func (c *Client) SubmitFeedback(
	ctx context.Context,
	in model.FeedbackInput,
) (model.Feedback, error) {
	if err := c.Validate(in); err != nil {
		return model.Feedback{}, err
	}
	var fb model.Feedback
	if err := c.Post(ctx, "/api/feedback", in, "Failed to submit feedback", &fb); err != nil {
		return model.Feedback{}, err
	}
	return fb, nil
}

// ListFeedback returns the user's submitted feedback, newest first.
func (c *Client) ListFeedback(
	ctx context.Context,
	p model.PageParams,
) (model.FeedbackList, error) {
	var list model.FeedbackList
	err := c.Get(ctx, "/api/feedback", pageQuery(p), "Failed to load feedback", &list)
	if err != nil {
		return model.FeedbackList{}, err
	}
	return list, nil
}
