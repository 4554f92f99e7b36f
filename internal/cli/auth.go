package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/credential"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/store"
)

func (e *env) loginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Store an API token in the system keyring",
		Long:        "Store an API token in the system keyring. Without --token the token is read from standard input.",
		Args:        cobra.NoArgs,
		Annotations: offline,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "API token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				token = strings.TrimSpace(line)
			}
			if err := e.creds.SetToken(token); err != nil {
				return err
			}
			if os.Getenv(credential.TokenEnv) != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s is set and takes precedence over the stored token.\n", credential.TokenEnv)
			}
			if _, err := e.client.GetSettings(cmd.Context()); err != nil {
				if api.IsUnauthorized(err) {
					_ = e.creds.Clear()
					return errors.New("the server rejected this token")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s\n", e.client.BaseURL())
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "API token")
	return cmd
}

func (e *env) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Remove the stored token and the cached data",
		Args:        cobra.NoArgs,
		Annotations: offline,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.creds.Clear(); err != nil {
				return err
			}
			if err := e.clearLocal(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (e *env) recordingsCmd() *cobra.Command {
	var (
		status string
		kind   string
		limit  int
	)
	cmd := &cobra.Command{
		Use:         "recordings",
		Short:       "List clips uploaded from this machine",
		Args:        cobra.NoArgs,
		Annotations: offline,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.store == nil {
				return errors.New("local history is off: set cache.persist to true")
			}
			filter := store.RecordingFilter{Limit: limit}
			if status != "" {
				st := model.RecordingStatus(status)
				filter.Status = &st
			}
			if kind != "" {
				k := model.RecordingKind(kind)
				filter.Kind = &k
			}
			recs, err := e.store.GetRecordings(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), recs, func(w io.Writer) error {
				rows := make([][]string, len(recs))
				for i, r := range recs {
					result := r.Error
					switch {
					case r.NoteID != nil:
						result = "note #" + strconv.Itoa(*r.NoteID)
					case r.MealID != nil:
						result = "meal #" + strconv.Itoa(*r.MealID)
					}
					source := r.Source
					if source == "" {
						source = "microphone"
					}
					rows[i] = []string{
						string(r.Kind),
						string(r.Status),
						oneLine(source, 40),
						oneLine(result, 40),
						ago(r.CreatedAt),
					}
				}
				return writeTable(w, []string{"KIND", "STATUS", "SOURCE", "RESULT", "CREATED"}, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "pending, uploaded or failed")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "note or meal")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	return cmd
}
