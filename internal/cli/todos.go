package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
	"github.com/nhle/voicenote/internal/service"
)

// batchLimit bounds concurrent requests for multi-id commands.
const batchLimit = 4

func (e *env) todosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Manage todos",
	}

	var (
		status string
		limit  int
		offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := model.TodoStatus(status)
			if st != "" && !validStatus(st) {
				return fmt.Errorf("invalid status %q: use suggested, accepted or completed", status)
			}
			todos, err := e.svc.Todos(cmd.Context(), st, model.PageParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), todos, func(w io.Writer) error {
				return writeTodos(w, todos.Todos)
			})
		},
	}
	list.Flags().StringVarP(&status, "status", "s", "", "Only todos with this status")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Skip this many todos")

	var (
		noteID      int
		description string
	)
	create := &cobra.Command{
		Use:   "create TITLE...",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.TodoInput{Title: strings.Join(args, " ")}
			if description != "" {
				in.Description = &description
			}
			if noteID > 0 {
				in.NoteID = &noteID
			}
			td, err := e.svc.CreateTodo().Mutate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), td, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created todo %d: %s\n", td.ID, td.Title)
				return err
			})
		},
	}
	create.Flags().IntVar(&noteID, "note", 0, "Link the todo to this note")
	create.Flags().StringVarP(&description, "description", "d", "", "Longer description")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			td, err := e.svc.Todo(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), td, func(w io.Writer) error {
				note := ""
				if td.NoteID != nil {
					note = strconv.Itoa(*td.NoteID)
				}
				return writeFields(w,
					"ID", strconv.Itoa(td.ID),
					"Title", td.Title,
					"Status", string(td.Status),
					"Note", note,
					"Description", deref(td.Description),
					"Created", ago(td.CreatedAt),
				)
			})
		},
	}

	cmd.AddCommand(list, create, show,
		todoBatchCmd(e, "accept", "Accept suggested todos", (*service.Service).AcceptTodo),
		todoBatchCmd(e, "complete", "Mark todos completed", (*service.Service).CompleteTodo),
		todoBatchCmd(e, "dismiss", "Dismiss suggested todos", (*service.Service).DismissTodo),
		todoBatchCmd(e, "delete", "Delete todos", (*service.Service).DeleteTodo),
	)
	return cmd
}

// todoBatchCmd applies one mutation to every id given. The svc field is
// only set once the root pre-run has finished, so the mutator is resolved
// inside RunE.
func todoBatchCmd[R any](e *env, name, short string, mutator func(*service.Service) *query.Mutator[int, R]) *cobra.Command {
	return &cobra.Command{
		Use:   name + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if err := runBatch(cmd.Context(), ids, mutator(e.svc)); err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s todo %d\n", pastTense(name), id)
			}
			return nil
		},
	}
}

// runBatch runs mu for every id with bounded concurrency. The first
// failure cancels the rest.
func runBatch[R any](ctx context.Context, ids []int, mu *query.Mutator[int, R]) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := mu.Mutate(ctx, id); err != nil {
				return fmt.Errorf("todo %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func pastTense(verb string) string {
	switch verb {
	case "accept":
		return "Accepted"
	case "complete":
		return "Completed"
	case "dismiss":
		return "Dismissed"
	default:
		return "Deleted"
	}
}

func validStatus(s model.TodoStatus) bool {
	switch s {
	case model.TodoSuggested, model.TodoAccepted, model.TodoCompleted:
		return true
	}
	return false
}

func writeTodos(w io.Writer, todos []model.Todo) error {
	rows := make([][]string, len(todos))
	for i, td := range todos {
		note := ""
		if td.NoteID != nil {
			note = strconv.Itoa(*td.NoteID)
		}
		rows[i] = []string{
			strconv.Itoa(td.ID),
			string(td.Status),
			oneLine(td.Title, 60),
			note,
			ago(td.CreatedAt),
		}
	}
	return writeTable(w, []string{"ID", "STATUS", "TITLE", "NOTE", "CREATED"}, rows)
}

// confirm asks a yes/no question on the command's input.
func (e *env) confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
	return false, nil
}
