package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/voicenote/internal/model"
)

// ListMeals returns one page of meals matching the filter.
func (c *Client) ListMeals(
	ctx context.Context,
	f model.MealFilter,
) (model.MealList, error) {
	q := pageQuery(f.PageParams)
	if f.MealType != "" {
		q.Set("meal_type", string(f.MealType))
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}

	var list model.MealList
	if err := c.Get(ctx, "/api/meals", q, "Failed to load meals", &list); err != nil {
		return model.MealList{}, err
	}
	return list, nil
}

// GetMeal fetches one meal.
func (c *Client) GetMeal(ctx context.Context, id int) (model.MealEntry, error) {
	var meal model.MealEntry
	path := fmt.Sprintf("/api/meals/%d", id)
	if err := c.Get(ctx, path, nil, "Failed to load meal", &meal); err != nil {
		return model.MealEntry{}, err
	}
	return meal, nil
}

// UpdateMeal edits a meal's type, date, time or transcription.
func (c *Client) UpdateMeal(
	ctx context.Context,
	id int,
	in model.MealUpdate,
) (model.MealEntry, error) {
	if err := c.Validate(in); err != nil {
		return model.MealEntry{}, err
	}
	var meal model.MealEntry
	path := fmt.Sprintf("/api/meals/%d", id)
	if err := c.Put(ctx, path, in, "Failed to update meal", &meal); err != nil {
		return model.MealEntry{}, err
	}
	return meal, nil
}

// DeleteMeal deletes a meal and its items.
func (c *Client) DeleteMeal(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/meals/%d", id)
	return c.Delete(ctx, path, "Failed to delete meal", nil)
}

// MealCalendar returns per-day meal summaries for a month.
func (c *Client) MealCalendar(
	ctx context.Context,
	year, month int,
) (model.CalendarMonth, error) {
	if month < 1 || month > 12 {
		return model.CalendarMonth{}, &ValidationError{
			Message: fmt.Sprintf("Invalid month %d", month),
		}
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	var cal model.CalendarMonth
	if err := c.Get(ctx, "/api/meals/calendar", q, "Failed to load calendar", &cal); err != nil {
		return model.CalendarMonth{}, err
	}
	return cal, nil
}

// AddMealItem adds a food item to a meal.
func (c *Client) AddMealItem(
	ctx context.Context,
	mealID int,
	in model.MealItemInput,
) (model.MealItem, error) {
	if err := c.Validate(in); err != nil {
		return model.MealItem{}, err
	}
	var item model.MealItem
	path := fmt.Sprintf("/api/meals/%d/items", mealID)
	if err := c.Post(ctx, path, in, "Failed to add item", &item); err != nil {
		return model.MealItem{}, err
	}
	return item, nil
}

// UpdateMealItem edits a food item.
func (c *Client) UpdateMealItem(
	ctx context.Context,
	mealID, itemID int,
	in model.MealItemInput,
) (model.MealItem, error) {
	if err := c.Validate(in); err != nil {
		return model.MealItem{}, err
	}
	var item model.MealItem
	path := fmt.Sprintf("/api/meals/%d/items/%d", mealID, itemID)
	if err := c.Put(ctx, path, in, "Failed to update item", &item); err != nil {
		return model.MealItem{}, err
	}
	return item, nil
}

// DeleteMealItem removes a food item from a meal.
func (c *Client) DeleteMealItem(ctx context.Context, mealID, itemID int) error {
	path := fmt.Sprintf("/api/meals/%d/items/%d", mealID, itemID)
	return c.Delete(ctx, path, "Failed to delete item", nil)
}
