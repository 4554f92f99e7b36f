package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/voicenote/internal/model"
)

func (e *env) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List, show and delete notes",
	}

	var (
		folder string
		limit  int
		offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := e.svc.Notes(cmd.Context(), folder, model.PageParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), noteList(page), func(w io.Writer) error {
				return writeEntries(w, page.Entries)
			})
		},
	}
	list.Flags().StringVar(&folder, "folder", "", "Only notes in this folder")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Skip this many notes")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one note with its todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			note, err := e.svc.Note(cmd.Context(), id)
			if err != nil {
				return err
			}
			todos, err := e.svc.NoteTodos(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := struct {
				model.Note `yaml:",inline"`
				Todos      []model.Todo `json:"todos" yaml:"todos"`
			}{note, todos.Todos}
			return e.render(cmd.OutOrStdout(), out, func(w io.Writer) error {
				if err := writeFields(w,
					"ID", strconv.Itoa(note.ID),
					"Title", note.Title,
					"Folder", note.FolderPath,
					"Tags", strings.Join(note.Tags, ", "),
					"Created", ago(note.CreatedAt),
				); err != nil {
					return err
				}
				fmt.Fprintf(w, "\n%s\n", note.Content)
				if len(todos.Todos) > 0 {
					fmt.Fprintln(w)
					return writeTodos(w, todos.Todos)
				}
				return nil
			})
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := e.confirm(cmd, fmt.Sprintf("Delete note %d?", id))
				if err != nil || !ok {
					return err
				}
			}
			if _, err := e.svc.DeleteNote().Mutate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(list, show, del)
	return cmd
}

func (e *env) searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search notes by content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			page, err := e.svc.Search(cmd.Context(), q, limit)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), noteList(page), func(w io.Writer) error {
				return writeEntries(w, page.Entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results")
	return cmd
}

func (e *env) tagsCmd() *cobra.Command {
	var (
		tag   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with note counts, or the notes of one tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tag != "" {
				page, err := e.svc.TagNotes(cmd.Context(), tag, limit)
				if err != nil {
					return err
				}
				return e.render(cmd.OutOrStdout(), noteList(page), func(w io.Writer) error {
					return writeEntries(w, page.Entries)
				})
			}
			tags, err := e.svc.Tags(cmd.Context())
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), tags, func(w io.Writer) error {
				rows := make([][]string, len(tags.Tags))
				for i, t := range tags.Tags {
					rows[i] = []string{"#" + t.Tag, strconv.Itoa(t.Count)}
				}
				return writeTable(w, []string{"TAG", "NOTES"}, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "List the notes carrying this tag")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum notes")
	return cmd
}

func (e *env) foldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "Show the folder tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := e.svc.Folders(cmd.Context())
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), tree, func(w io.Writer) error {
				if len(tree.Folders) == 0 {
					_, err := fmt.Fprintln(w, "No folders yet.")
					return err
				}
				model.Walk(tree.Folders, func(n model.FolderNode, depth int) bool {
					fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), n.Name, n.NoteCount)
					return true
				})
				return nil
			})
		},
	}
}

// noteRow is the serialized form of a list entry.
type noteRow struct {
	model.Note `yaml:",inline"`
	Rank       float64 `json:"rank,omitempty" yaml:"rank,omitempty"`
	Snippet    string  `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

type noteListOut struct {
	Notes      []noteRow `json:"notes" yaml:"notes"`
	model.Page `yaml:",inline"`
}

func noteList(p model.EntryPage) noteListOut {
	out := noteListOut{Notes: make([]noteRow, len(p.Entries)), Page: p.Page}
	for i, en := range p.Entries {
		out.Notes[i] = noteRow{Note: en.Note, Rank: en.Rank, Snippet: en.Snippet}
	}
	return out
}

func writeEntries(w io.Writer, entries []model.NoteEntry) error {
	rows := make([][]string, len(entries))
	for i, en := range entries {
		summary := en.Note.Title
		if en.Kind == model.EntrySearch && en.Snippet != "" {
			summary += " · " + oneLine(en.Snippet, 40)
		}
		rows[i] = []string{
			strconv.Itoa(en.Note.ID),
			oneLine(summary, 60),
			en.Note.FolderPath,
			strings.Join(en.Note.Tags, " "),
			ago(en.Note.CreatedAt),
		}
	}
	return writeTable(w, []string{"ID", "TITLE", "FOLDER", "TAGS", "CREATED"}, rows)
}
