package api

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
)

// Transcribe uploads an audio clip. The backend transcribes it, files it as
// a note and extracts suggested todos.
func (c *Client) Transcribe(
	ctx context.Context,
	file FilePart,
) (model.TranscriptionResult, error) {
	if len(file.Data) == 0 {
		return model.TranscriptionResult{}, &ValidationError{Message: "Recording is empty"}
	}
	file.Field = "file"

	var result model.TranscriptionResult
	err := c.PostMultipart(ctx, "/api/transcribe", file, nil,
		"Failed to transcribe audio", &result)
	if err != nil {
		return model.TranscriptionResult{}, err
	}
	return result, nil
}

// TranscribeMeal uploads a spoken meal description.
func (c *Client) TranscribeMeal(
	ctx context.Context,
	file FilePart,
	opts model.MealTranscribeOptions,
) (model.MealEntry, error) {
	if len(file.Data) == 0 {
		return model.MealEntry{}, &ValidationError{Message: "Recording is empty"}
	}
	file.Field = "file"

	fields := map[string]string{}
	if opts.MealType != "" {
		fields["meal_type"] = string(opts.MealType)
	}
	if opts.MealDate != "" {
		fields["meal_date"] = opts.MealDate
	}
	if opts.MealTime != "" {
		fields["meal_time"] = opts.MealTime
	}

	var meal model.MealEntry
	err := c.PostMultipart(ctx, "/api/meals/transcribe", file, fields,
		"Failed to transcribe meal", &meal)
	if err != nil {
		return model.MealEntry{}, err
	}
	return meal, nil
}
