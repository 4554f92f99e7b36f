package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/voicenote/internal/model"
)

func (e *env) askCmd() *cobra.Command {
	var sources int
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a question answered from your notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.svc.Ask().Mutate(cmd.Context(), model.AskRequest{
				Question:   strings.Join(args, " "),
				MaxSources: sources,
			})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return writeAnswer(w, res)
			})
		},
	}
	cmd.Flags().IntVarP(&sources, "sources", "s", 0, "Maximum notes to cite")
	return cmd
}

func (e *env) historyCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List asked questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := e.svc.AskHistory(cmd.Context(), model.PageParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				rows := make([][]string, len(list.Items))
				for i, it := range list.Items {
					rows[i] = []string{
						strconv.Itoa(it.ID),
						oneLine(it.Question, 40),
						oneLine(it.Answer, 50),
						ago(it.CreatedAt),
					}
				}
				return writeTable(w, []string{"ID", "QUESTION", "ANSWER", "ASKED"}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many entries")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one past answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := e.svc.AskEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return writeAnswer(w, res)
			})
		},
	}
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a past answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := e.svc.DeleteAskHistory().Mutate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted answer %d\n", id)
			return nil
		},
	}
	cmd.AddCommand(show, del)
	return cmd
}

func writeAnswer(w io.Writer, res model.AskResult) error {
	fmt.Fprintf(w, "Q: %s\n\n%s\n", res.Question, res.Answer)
	if len(res.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	rows := make([][]string, len(res.Sources))
	for i, s := range res.Sources {
		rows[i] = []string{
			strconv.Itoa(s.NoteID),
			oneLine(s.Title, 40),
			fmt.Sprintf("%.0f%%", s.Relevance*100),
		}
	}
	return writeTable(w, []string{"NOTE", "SOURCE", "RELEVANCE"}, rows)
}

func (e *env) summarizeCmd() *cobra.Command {
	var (
		days   int
		folder string
		notes  []int
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Create a digest of recent notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := e.svc.Summarize().Mutate(cmd.Context(), model.SummarizeRequest{
				NoteIDs:    notes,
				FolderPath: folder,
				Days:       days,
			})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), d, func(w io.Writer) error {
				return writeDigest(w, d)
			})
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 7, "Summarize notes from this many days")
	cmd.Flags().StringVar(&folder, "folder", "", "Only notes in this folder")
	cmd.Flags().IntSliceVar(&notes, "note", nil, "Summarize these notes instead (repeatable)")
	return cmd
}

func (e *env) digestsCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "digests",
		Short: "List digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := e.svc.Digests(cmd.Context(), model.PageParams{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				rows := make([][]string, len(list.Digests))
				for i, d := range list.Digests {
					rows[i] = []string{
						strconv.Itoa(d.ID),
						strconv.Itoa(d.NoteCount),
						oneLine(d.Summary, 60),
						ago(d.CreatedAt),
					}
				}
				return writeTable(w, []string{"ID", "NOTES", "SUMMARY", "CREATED"}, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many digests")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := e.svc.Digest(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), d, func(w io.Writer) error {
				return writeDigest(w, d)
			})
		},
	}
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := e.svc.DeleteDigest().Mutate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted digest %d\n", id)
			return nil
		},
	}
	cmd.AddCommand(show, del)
	return cmd
}

func writeDigest(w io.Writer, d model.Digest) error {
	fmt.Fprintf(w, "Digest #%d · %d notes · %s\n\n%s\n", d.ID, d.NoteCount, ago(d.CreatedAt), d.Summary)
	if len(d.KeyThemes) > 0 {
		fmt.Fprintf(w, "\nThemes: %s\n", strings.Join(d.KeyThemes, ", "))
	}
	if len(d.ActionItems) > 0 {
		fmt.Fprintln(w, "\nAction items:")
		for _, a := range d.ActionItems {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	return nil
}
