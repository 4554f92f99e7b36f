package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/voicenote/internal/model"
)

func (e *env) mealsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meals",
		Aliases: []string{"meal"},
		Short:   "Browse and edit the meal log",
	}

	var (
		mealType string
		from, to string
		limit    int
		offset   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List logged meals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mt, err := parseMealType(mealType)
			if err != nil {
				return err
			}
			for _, d := range []string{from, to} {
				if err := checkDate(d); err != nil {
					return err
				}
			}
			meals, err := e.svc.Meals(cmd.Context(), model.MealFilter{
				MealType:   mt,
				StartDate:  from,
				EndDate:    to,
				PageParams: model.PageParams{Limit: limit, Offset: offset},
			})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), meals, func(w io.Writer) error {
				rows := make([][]string, len(meals.Meals))
				for i, m := range meals.Meals {
					rows[i] = []string{
						strconv.Itoa(m.ID),
						m.MealDate,
						deref(m.MealTime),
						string(m.MealType),
						oneLine(itemNames(m.Items), 60),
					}
				}
				return writeTable(w, []string{"ID", "DATE", "TIME", "TYPE", "ITEMS"}, rows)
			})
		},
	}
	list.Flags().StringVarP(&mealType, "type", "t", "", "Only this meal type (breakfast, lunch, dinner, snack)")
	list.Flags().StringVar(&from, "from", "", "Earliest date, YYYY-MM-DD")
	list.Flags().StringVar(&to, "to", "", "Latest date, YYYY-MM-DD")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Skip this many meals")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one meal with its food items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := e.svc.Meal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), m, func(w io.Writer) error {
				return writeMeal(w, m)
			})
		},
	}

	var month string
	calendar := &cobra.Command{
		Use:   "calendar",
		Short: "Show which days of a month have meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid month %q: use YYYY-MM", month)
				}
				at = t
			}
			cal, err := e.svc.Calendar(cmd.Context(), at.Year(), int(at.Month()))
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), cal, func(w io.Writer) error {
				rows := make([][]string, len(cal.Days))
				for i, d := range cal.Days {
					types := make([]string, len(d.MealTypes))
					for j, t := range d.MealTypes {
						types[j] = string(t)
					}
					rows[i] = []string{d.Date, strconv.Itoa(d.Count), strings.Join(types, ", ")}
				}
				fmt.Fprintf(w, "%s %d\n", time.Month(cal.Month), cal.Year)
				return writeTable(w, []string{"DATE", "MEALS", "TYPES"}, rows)
			})
		},
	}
	calendar.Flags().StringVarP(&month, "month", "m", "", "Month to show, YYYY-MM (default: this month)")

	var yes bool
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := e.confirm(cmd, fmt.Sprintf("Delete meal %d?", id))
				if err != nil || !ok {
					return err
				}
			}
			if _, err := e.svc.DeleteMeal().Mutate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %d\n", id)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	var opts mealFlags
	transcribe := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Upload a spoken meal description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.meal = true
			return e.uploadFile(cmd, args[0], opts)
		},
	}
	opts.bind(transcribe, false)

	cmd.AddCommand(list, show, calendar, del, transcribe)
	return cmd
}

// mealFlags are the overrides accepted by meal uploads.
type mealFlags struct {
	meal     bool
	mealType string
	date     string
	at       string
}

func (f *mealFlags) bind(cmd *cobra.Command, withSwitch bool) {
	if withSwitch {
		cmd.Flags().BoolVar(&f.meal, "meal", false, "Log the clip as a meal instead of a note")
	}
	cmd.Flags().StringVar(&f.mealType, "type", "", "Meal type override (breakfast, lunch, dinner, snack)")
	cmd.Flags().StringVar(&f.date, "date", "", "Meal date override, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.at, "time", "", "Meal time override, HH:MM")
}

func (f mealFlags) options() (model.MealTranscribeOptions, error) {
	mt, err := parseMealType(f.mealType)
	if err != nil {
		return model.MealTranscribeOptions{}, err
	}
	if err := checkDate(f.date); err != nil {
		return model.MealTranscribeOptions{}, err
	}
	if f.at != "" {
		if _, err := time.Parse("15:04", f.at); err != nil {
			return model.MealTranscribeOptions{}, fmt.Errorf("invalid time %q: use HH:MM", f.at)
		}
	}
	return model.MealTranscribeOptions{MealType: mt, MealDate: f.date, MealTime: f.at}, nil
}

func parseMealType(s string) (model.MealType, error) {
	if s == "" {
		return "", nil
	}
	for _, mt := range model.MealTypes {
		if string(mt) == strings.ToLower(s) {
			return mt, nil
		}
	}
	return "", fmt.Errorf("invalid meal type %q: use breakfast, lunch, dinner or snack", s)
}

func checkDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return nil
}

func itemNames(items []model.MealItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

func writeMeal(w io.Writer, m model.MealEntry) error {
	if err := writeFields(w,
		"ID", strconv.Itoa(m.ID),
		"Type", string(m.MealType),
		"Date", m.MealDate,
		"Time", deref(m.MealTime),
		"Logged", ago(m.CreatedAt),
	); err != nil {
		return err
	}
	if m.Transcription != "" {
		fmt.Fprintf(w, "\n%s\n", m.Transcription)
	}
	if len(m.Items) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	rows := make([][]string, len(m.Items))
	for i, it := range m.Items {
		rows[i] = []string{strconv.Itoa(it.ID), it.Name, deref(it.Portion)}
	}
	return writeTable(w, []string{"ID", "ITEM", "PORTION"}, rows)
}
