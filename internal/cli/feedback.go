package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/voicenote/internal/model"
)

func (e *env) feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send feedback about the app",
	}

	var (
		kind        string
		description string
		rating      int
	)
	submit := &cobra.Command{
		Use:   "submit TITLE...",
		Short: "Submit a bug report, feature request or comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.FeedbackInput{
				Type:  model.FeedbackType(strings.ToLower(kind)),
				Title: strings.Join(args, " "),
			}
			if description != "" {
				in.Description = &description
			}
			if cmd.Flags().Changed("rating") {
				in.Rating = &rating
			}
			fb, err := e.svc.SubmitFeedback().Mutate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), fb, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Thanks! Feedback #%d received.\n", fb.ID)
				return err
			})
		},
	}
	submit.Flags().StringVarP(&kind, "type", "t", string(model.FeedbackGeneral), "bug, feature or general")
	submit.Flags().StringVarP(&description, "description", "d", "", "Details")
	submit.Flags().IntVarP(&rating, "rating", "r", 0, "Rating from 1 to 5")

	var (
		limit  int
		offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List submitted feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := e.svc.Feedback(cmd.Context(), model.PageParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				rows := make([][]string, len(list.Feedback))
				for i, fb := range list.Feedback {
					stars := ""
					if fb.Rating != nil {
						stars = strings.Repeat("★", *fb.Rating)
					}
					rows[i] = []string{
						strconv.Itoa(fb.ID),
						string(fb.Type),
						oneLine(fb.Title, 60),
						stars,
						ago(fb.CreatedAt),
					}
				}
				return writeTable(w, []string{"ID", "TYPE", "TITLE", "RATING", "SENT"}, rows)
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Skip this many entries")

	cmd.AddCommand(submit, list)
	return cmd
}

func (e *env) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change account settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.svc.Settings(cmd.Context())
			if err != nil {
				return err
			}
			return e.writeSettings(cmd.OutOrStdout(), s)
		},
	}

	var autoAccept bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("auto-accept") {
				return fmt.Errorf("nothing to change: pass --auto-accept=true or --auto-accept=false")
			}
			s, err := e.svc.UpdateSettings().Mutate(cmd.Context(), model.SettingsUpdate{AutoAcceptTodos: &autoAccept})
			if err != nil {
				return err
			}
			return e.writeSettings(cmd.OutOrStdout(), s)
		},
	}
	set.Flags().BoolVar(&autoAccept, "auto-accept", false, "Accept suggested todos automatically")

	cmd.AddCommand(set)
	return cmd
}

func (e *env) writeSettings(w io.Writer, s model.UserSettings) error {
	return e.render(w, s, func(w io.Writer) error {
		return writeFields(w,
			"Auto-accept todos", strconv.FormatBool(s.AutoAcceptTodos),
			"Updated", ago(s.UpdatedAt),
		)
	})
}
