package service

import (
	"context"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// MealEdit is an update to one meal.
type MealEdit struct {
	ID     int
	Update model.MealUpdate
}

// MealItemEdit adds (ItemID 0) or changes a food item.
type MealItemEdit struct {
	MealID int
	ItemID int
	Input  model.MealItemInput
}

// MealItemRef names one food item.
type MealItemRef struct {
	MealID int
	ItemID int
}

// WatchMeals observes one page of meals.
func (s *Service) WatchMeals(f model.MealFilter, l query.Listener) *query.Observer {
	f.PageParams = s.Page(f.PageParams)
	return watch(s, MealsKey(f), true, func(ctx context.Context) (model.MealList, error) {
		return s.api.ListMeals(ctx, f)
	}, l)
}

// Meals reads one page of meals.
func (s *Service) Meals(ctx context.Context, f model.MealFilter) (model.MealList, error) {
	f.PageParams = s.Page(f.PageParams)
	return get(ctx, s, MealsKey(f), func(ctx context.Context) (model.MealList, error) {
		return s.api.ListMeals(ctx, f)
	})
}

// WatchMeal observes one meal.
func (s *Service) WatchMeal(id int, l query.Listener) *query.Observer {
	return watch(s, MealKey(id), id > 0, func(ctx context.Context) (model.MealEntry, error) {
		return s.api.GetMeal(ctx, id)
	}, l)
}

// Meal reads one meal.
func (s *Service) Meal(ctx context.Context, id int) (model.MealEntry, error) {
	return get(ctx, s, MealKey(id), func(ctx context.Context) (model.MealEntry, error) {
		return s.api.GetMeal(ctx, id)
	})
}

// WatchCalendar observes the meal calendar of one month.
func (s *Service) WatchCalendar(year, month int, l query.Listener) *query.Observer {
	return watch(s, CalendarKey(year, month), true, func(ctx context.Context) (model.CalendarMonth, error) {
		return s.api.MealCalendar(ctx, year, month)
	}, l)
}

// Calendar reads the meal calendar of one month.
func (s *Service) Calendar(ctx context.Context, year, month int) (model.CalendarMonth, error) {
	return get(ctx, s, CalendarKey(year, month), func(ctx context.Context) (model.CalendarMonth, error) {
		return s.api.MealCalendar(ctx, year, month)
	})
}

// UpdateMeal edits a meal.
func (s *Service) UpdateMeal() *query.Mutator[MealEdit, model.MealEntry] {
	return query.NewMutator(query.Mutation[MealEdit, model.MealEntry]{
		Fn: func(ctx context.Context, e MealEdit) (model.MealEntry, error) {
			return s.api.UpdateMeal(ctx, e.ID, e.Update)
		},
		OnSuccess: func(m model.MealEntry, _ MealEdit, _ any) {
			s.cache.SetData(MealKey(m.ID), m)
			s.mealsChanged()
		},
	})
}

// DeleteMeal deletes a meal.
func (s *Service) DeleteMeal() *query.Mutator[int, None] {
	return query.NewMutator(query.Mutation[int, None]{
		Fn: func(ctx context.Context, id int) (None, error) {
			return None{}, s.api.DeleteMeal(ctx, id)
		},
		OnSuccess: func(_ None, id int, _ any) {
			s.cache.Remove(MealKey(id))
			s.mealsChanged()
		},
	})
}

// SaveMealItem adds or updates a food item.
func (s *Service) SaveMealItem() *query.Mutator[MealItemEdit, model.MealItem] {
	return query.NewMutator(query.Mutation[MealItemEdit, model.MealItem]{
		Fn: func(ctx context.Context, e MealItemEdit) (model.MealItem, error) {
			if e.ItemID == 0 {
				return s.api.AddMealItem(ctx, e.MealID, e.Input)
			}
			return s.api.UpdateMealItem(ctx, e.MealID, e.ItemID, e.Input)
		},
		OnSuccess: func(_ model.MealItem, e MealItemEdit, _ any) {
			s.invalidate(MealKey(e.MealID), root(rootMeals))
		},
	})
}

// DeleteMealItem removes a food item.
func (s *Service) DeleteMealItem() *query.Mutator[MealItemRef, None] {
	return query.NewMutator(query.Mutation[MealItemRef, None]{
		Fn: func(ctx context.Context, r MealItemRef) (None, error) {
			return None{}, s.api.DeleteMealItem(ctx, r.MealID, r.ItemID)
		},
		OnSuccess: func(_ None, r MealItemRef, _ any) {
			s.invalidate(MealKey(r.MealID), root(rootMeals))
		},
	})
}

func (s *Service) mealsChanged() {
	s.invalidate(root(rootMeals), root(rootMealCalendar))
}
