package browse

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

func TestModePrecedence(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want Mode
	}{
		{"empty", Selection{}, ModeFolder},
		{"folder", Selection{Folder: "work"}, ModeFolder},
		{"tag over folder", Selection{Tag: "milk", Folder: "work"}, ModeTag},
		{"search over tag", Selection{Search: "x", Tag: "milk"}, ModeSearch},
		{"blank search ignored", Selection{Search: "  ", Tag: "milk"}, ModeTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Mode())
		})
	}
}

func TestSearchClearsTagInSameUpdate(t *testing.T) {
	sel := Selection{}.WithTag("groceries")
	sel = sel.WithSearch("milk")

	assert.Equal(t, "milk", sel.Search)
	assert.Empty(t, sel.Tag)
	assert.Empty(t, sel.Folder)

	sel = sel.WithFolder("work")
	assert.Empty(t, sel.Search)
	assert.Equal(t, ModeFolder, sel.Mode())

	assert.Equal(t, Selection{}, sel.WithSearch("   "))
}

func TestSelectionStaysExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	type step struct {
		op  int
		arg string
	}
	genStep := gopter.CombineGens(gen.IntRange(0, 3), gen.AlphaString()).
		Map(func(v []interface{}) step { return step{op: v[0].(int), arg: v[1].(string)} })

	properties.Property("never more than one selection set", prop.ForAll(
		func(steps []step) bool {
			sel := Selection{}
			for _, s := range steps {
				switch s.op {
				case 0:
					sel = sel.WithSearch(s.arg)
				case 1:
					sel = sel.WithTag(s.arg)
				case 2:
					sel = sel.WithFolder(s.arg)
				default:
					sel = sel.Clear()
				}
				set := 0
				for _, f := range []string{sel.Search, sel.Tag, sel.Folder} {
					if f != "" {
						set++
					}
				}
				if set > 1 {
					return false
				}
				en := Plan(sel)
				enabled := 0
				for _, b := range []bool{en.Notes, en.Tag, en.Search} {
					if b {
						enabled++
					}
				}
				if enabled != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genStep),
	))

	properties.TestingRun(t)
}

func TestPlan(t *testing.T) {
	assert.Equal(t, Enabled{Notes: true}, Plan(Selection{Folder: "a"}))
	assert.Equal(t, Enabled{Tag: true}, Plan(Selection{Tag: "a"}))
	assert.Equal(t, Enabled{Search: true}, Plan(Selection{Search: "a"}))
}

func TestNormalize(t *testing.T) {
	n := model.Note{ID: 7, Title: "Groceries", Content: "milk"}

	items := Normalize([]model.NoteEntry{
		{Kind: model.EntrySearch, Note: n, Rank: 0.82, Snippet: "<b>x</b>"},
		{Kind: model.EntryPlain, Note: n},
	})
	require.Len(t, items, 2)

	assert.Equal(t, n, items[0].Note)
	require.NotNil(t, items[0].Rank)
	assert.Equal(t, 0.82, *items[0].Rank)
	require.NotNil(t, items[0].Snippet)
	assert.Equal(t, "<b>x</b>", *items[0].Snippet)

	assert.Equal(t, Item{Note: n}, items[1])
}

func TestNormalizeKeepsNoteFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("entity fields pass through unchanged", prop.ForAll(
		func(id int, title string, rank float64, search bool) bool {
			kind := model.EntryPlain
			if search {
				kind = model.EntrySearch
			}
			n := model.Note{ID: id, Title: title}
			it := Normalize([]model.NoteEntry{{Kind: kind, Note: n, Rank: rank, Snippet: title}})[0]
			if it.ID != id || it.Title != title {
				return false
			}
			if !search {
				return it.Rank == nil && it.Snippet == nil
			}
			return it.Rank != nil && *it.Rank == rank && *it.Snippet == title
		},
		gen.Int(), gen.AlphaString(), gen.Float64Range(0, 1), gen.Bool(),
	))

	properties.TestingRun(t)
}

func page(notes ...model.Note) model.EntryPage {
	return model.EntryPage{Entries: model.PlainEntries(notes), Page: model.Page{Total: len(notes)}}
}

func TestDeriveUsesActiveQuery(t *testing.T) {
	snaps := Snapshots{
		Notes: query.Snapshot{HasData: true, Data: page(model.Note{ID: 1})},
		Tag:   query.Snapshot{HasData: true, Data: page(model.Note{ID: 2}, model.Note{ID: 3})},
		Search: query.Snapshot{HasData: true, Data: model.EntryPage{
			Entries: model.SearchEntries([]model.SearchResult{{Note: model.Note{ID: 4}, Rank: 1}}),
		}},
	}

	v := Derive(Selection{}, snaps)
	assert.Equal(t, StatusPopulated, v.Status)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 1, v.Items[0].ID)

	v = Derive(Selection{Tag: "x"}, snaps)
	assert.Len(t, v.Items, 2)
	assert.Equal(t, ModeTag, v.Mode)

	v = Derive(Selection{Search: "x"}, snaps)
	require.Len(t, v.Items, 1)
	assert.NotNil(t, v.Items[0].Rank)
}

func TestDeriveStates(t *testing.T) {
	boom := errors.New("boom")

	v := Derive(Selection{}, Snapshots{Notes: query.Snapshot{IsFetching: true}})
	assert.Equal(t, StatusLoading, v.Status)

	v = Derive(Selection{}, Snapshots{Notes: query.Snapshot{Err: boom}})
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, boom, v.Err)

	v = Derive(Selection{}, Snapshots{Notes: query.Snapshot{Err: boom, IsFetching: true}})
	assert.Equal(t, StatusLoading, v.Status, "retrying")

	v = Derive(Selection{}, Snapshots{Notes: query.Snapshot{
		HasData: true, Data: page(model.Note{ID: 1}), Err: boom, IsFetching: true,
	}})
	assert.Equal(t, StatusPopulated, v.Status)
	assert.True(t, v.Refreshing)
	assert.Equal(t, boom, v.Err)
}

func TestDeriveEmptyTagNamesTheTag(t *testing.T) {
	sel := Selection{}.WithTag("groceries")
	v := Derive(sel, Snapshots{Tag: query.Snapshot{HasData: true, Data: page()}})

	assert.Equal(t, StatusEmpty, v.Status)
	assert.Empty(t, v.Items)
	assert.Contains(t, v.EmptyMessage, "groceries")
}

func TestEmptyMessages(t *testing.T) {
	assert.Equal(t, `No notes match "milk"`, EmptyMessage(Selection{Search: " milk "}))
	assert.Equal(t, "No notes in work", EmptyMessage(Selection{Folder: "work"}))
	assert.Contains(t, EmptyMessage(Selection{}), "No notes yet")
}
