package api

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
)

func (c *Client) GetSettings(ctx context.Context) (model.UserSettings, error) {
	var s model.UserSettings
	if err := c.Get(ctx, "/api/settings", nil, "Failed to load settings", &s); err != nil {
		return model.UserSettings{}, err
	}
	return s, nil
}

func (c *Client) UpdateSettings(
	ctx context.Context,
	in model.SettingsUpdate,
) (model.UserSettings, error) {
	if err := c.Validate(in); err != nil {
		return model.UserSettings{}, err
	}
	var s model.UserSettings
	if err := c.Put(ctx, "/api/settings", in, "Failed to update settings", &s); err != nil {
		return model.UserSettings{}, err
	}
	return s, nil
}
