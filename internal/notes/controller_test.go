package notes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/backend/backendtest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T) (*backendtest.Fake, backend.User) {
	t.Helper()
	f := backendtest.NewFake()
	u := f.AddUser("a@example.com", "secret1")
	f.SignInAs("a@example.com")
	return f, u
}

func seed(f *backendtest.Fake, userID string, n int) []backend.Note {
	out := make([]backend.Note, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.SeedNote(userID, fmt.Sprintf("Note %d", i), "", fmt.Sprintf("body %d", i)))
	}
	return out
}

// showingText 公式与零值情况

func TestProperty_ShowingText(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("showing text follows the range formula", prop.ForAll(
		func(page, pageSize, count, fetched int) bool {
			got := ShowingText(page, pageSize, fetched, count)
			if count == 0 {
				return got == "Showing 0 of 0 notes"
			}
			start := (page-1)*pageSize + 1
			end := start + fetched - 1
			if end > count {
				end = count
			}
			want := fmt.Sprintf("Showing %d–%d of %d notes", start, end, count)
			if got != want {
				t.Logf("got %q want %q", got, want)
				return false
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 20),
		gen.IntRange(0, 500),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

// 修改搜索词总是把页码重置为 1

func TestProperty_SearchResetsPage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("changing search resets page to 1", prop.ForAll(
		func(page int, before, after string) bool {
			c := New(backendtest.NewFake(), Options{})
			c.SetSearch(before)
			c.SetPage(page)
			changed := c.SetSearch(after)
			if before == after {
				return !changed && c.Page() == page
			}
			return changed && c.Page() == 1
		},
		gen.IntRange(1, 100),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 6))
	assert.Equal(t, 1, TotalPages(6, 6))
	assert.Equal(t, 2, TotalPages(7, 6))
}

func TestSetPageClamps(t *testing.T) {
	c := New(backendtest.NewFake(), Options{})
	c.SetPage(3)
	c.SetPage(0)
	assert.Equal(t, 1, c.Page())
	c.SetPage(-4)
	assert.Equal(t, 1, c.Page())
}

func TestFetchPagesNewestFirst(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 8)

	c := New(f, Options{})
	applied, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)

	v := c.View()
	assert.False(t, v.Loading)
	assert.Equal(t, 8, v.Count)
	assert.Equal(t, 2, v.TotalPages)
	require.Len(t, v.Cards, 6)
	assert.Equal(t, "Note 8", v.Cards[0].Title)
	assert.Equal(t, "Showing 1–6 of 8 notes", v.ShowingText)
	assert.True(t, v.HasNext)

	c.SetPage(2)
	_, err = c.Fetch(context.Background())
	require.NoError(t, err)
	v = c.View()
	require.Len(t, v.Cards, 2)
	assert.Equal(t, "Showing 7–8 of 8 notes", v.ShowingText)
	assert.True(t, v.HasPrev)
	assert.False(t, v.HasNext)
}

func TestFetchSearch(t *testing.T) {
	f, u := signedIn(t)
	f.SeedNote(u.ID, "Groceries", "", "milk, eggs")
	f.SeedNote(u.ID, "Work", "standup", "agenda")
	f.SeedNote(u.ID, "Recipes", "MILKSHAKE", "")

	c := New(f, Options{})
	c.SetSearch("  milk ")
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	v := c.View()
	assert.Equal(t, 2, v.Count)
	titles := []string{v.Cards[0].Title, v.Cards[1].Title}
	assert.ElementsMatch(t, []string{"Groceries", "Recipes"}, titles)

	c.SetSearch("nothing-here")
	_, err = c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `No notes match "nothing-here".`, c.View().Empty)
}

func TestFetchFailureClearsList(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 3)

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	f.FailOn(backendtest.OpCount, &backend.Error{Status: http.StatusInternalServerError, Message: "count exploded"})
	f.FailOn(backendtest.OpList, &backend.Error{Status: http.StatusInternalServerError, Message: "list exploded"})
	applied, err := c.Fetch(context.Background())
	assert.True(t, applied)
	assert.Error(t, err)

	v := c.View()
	assert.Empty(t, v.Cards)
	assert.Equal(t, 0, v.Count)
	assert.Equal(t, "count exploded", v.Error)
	assert.Empty(t, v.Empty)

	f.FailOn(backendtest.OpCount, nil)
	f.FailOn(backendtest.OpList, errors.New("dial tcp: connection refused"))
	_, err = c.Fetch(context.Background())
	assert.Error(t, err)
	assert.Equal(t, ErrLoadFallback, c.View().Error)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 8)

	c := New(f, Options{})
	gate := f.Block(backendtest.OpList)

	type result struct {
		applied bool
		err     error
	}
	first := make(chan result, 1)
	go func() {
		applied, err := c.Fetch(context.Background())
		first <- result{applied, err}
	}()
	<-gate.Entered

	c.SetPage(2)
	applied, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)

	gate.Release()
	r := <-first
	assert.NoError(t, r.err)
	assert.False(t, r.applied)

	v := c.View()
	assert.Equal(t, 2, v.Page)
	assert.Len(t, v.Cards, 2)
}

func TestFetchAfterCloseIsDropped(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 2)

	c := New(f, Options{})
	gate := f.Block(backendtest.OpList)
	done := make(chan bool, 1)
	go func() {
		applied, _ := c.Fetch(context.Background())
		done <- applied
	}()
	<-gate.Entered
	c.Close()
	gate.Release()

	assert.False(t, <-done)
	assert.True(t, c.View().Loading)
	assert.Empty(t, c.View().Cards)
}

func TestDeleteIsOptimistic(t *testing.T) {
	f, u := signedIn(t)
	notes := seed(f, u.ID, 3)

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	gate := f.Block(backendtest.OpDelete)
	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background(), notes[1].ID) }()
	<-gate.Entered

	v := c.View()
	assert.Equal(t, 2, v.Count)
	assert.Len(t, v.Cards, 2)
	assert.Equal(t, notes[1].ID, v.DeletingID)

	gate.Release()
	require.NoError(t, <-done)

	v = c.View()
	assert.Empty(t, v.DeletingID)
	assert.Equal(t, 2, v.Count)
	_, exists := f.Note(notes[1].ID)
	assert.False(t, exists)
}

func TestFailedDeleteRestoresSnapshot(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 4)

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	before := c.Notes()
	beforeCount := c.View().Count

	f.FailOn(backendtest.OpDelete, &backend.Error{Status: http.StatusForbidden, Message: "permission denied for table notes"})
	err = c.Delete(context.Background(), before[0].ID)
	require.Error(t, err)

	assert.Equal(t, before, c.Notes())
	v := c.View()
	assert.Equal(t, beforeCount, v.Count)
	assert.Equal(t, "permission denied for table notes", v.Error)
	assert.Empty(t, v.DeletingID)
}

func TestFailedDeleteKeepsNewerFetch(t *testing.T) {
	f, u := signedIn(t)
	seed(f, u.ID, 2)

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	rows := c.Notes()
	require.Len(t, rows, 2)

	f.SeedNote(u.ID, "Third", "", "added elsewhere")

	listGate := f.Block(backendtest.OpList)
	fetched := make(chan bool, 1)
	go func() {
		applied, _ := c.Fetch(context.Background())
		fetched <- applied
	}()
	<-listGate.Entered

	deleteGate := f.Block(backendtest.OpDelete)
	f.FailOn(backendtest.OpDelete, &backend.Error{Status: http.StatusForbidden, Message: "permission denied for table notes"})
	deleted := make(chan error, 1)
	go func() {
		deleted <- c.Delete(context.Background(), rows[0].ID)
	}()
	<-deleteGate.Entered

	listGate.Release()
	require.True(t, <-fetched)
	v := c.View()
	require.Equal(t, 3, v.Count)
	require.Len(t, v.Cards, 3)

	deleteGate.Release()
	require.Error(t, <-deleted)

	v = c.View()
	assert.Equal(t, 3, v.Count)
	assert.Len(t, v.Cards, 3)
	assert.Equal(t, "permission denied for table notes", v.Error)
}

func TestDeleteLastOnPageMovesBack(t *testing.T) {
	f, u := signedIn(t)
	notes := seed(f, u.ID, 7)

	c := New(f, Options{})
	c.SetPage(2)
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, c.Notes(), 1)
	assert.Equal(t, notes[0].ID, c.Notes()[0].ID)

	require.NoError(t, c.Delete(context.Background(), notes[0].ID))
	v := c.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 6, v.Count)
	assert.Len(t, v.Cards, 6)
}

func TestDeleteOnFirstPageKeepsPage(t *testing.T) {
	f, u := signedIn(t)
	notes := seed(f, u.ID, 1)

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), notes[0].ID))
	v := c.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 0, v.Count)
	assert.Equal(t, "Showing 0 of 0 notes", v.ShowingText)
}

func TestGroceriesScenario(t *testing.T) {
	f, u := signedIn(t)
	n := f.SeedNote(u.ID, "Groceries", "", "milk, eggs")

	c := New(f, Options{})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	v := c.View()
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Groceries", v.Cards[0].Title)
	assert.Equal(t, "milk, eggs", v.Cards[0].Subtitle)

	require.NoError(t, c.Delete(context.Background(), n.ID))
	_, err = c.Fetch(context.Background())
	require.NoError(t, err)
	v = c.View()
	assert.Empty(t, v.Cards)
	assert.Equal(t, "No notes yet.", v.Empty)
}

func TestNewCardFallbacks(t *testing.T) {
	card := NewCard(backend.Note{ID: "n1", Title: "  ", Content: "first line\n\n   second   line"})
	assert.Equal(t, UntitledTitle, card.Title)
	assert.Equal(t, "first line second line", card.Subtitle)

	long := NewCard(backend.Note{Content: strings.Repeat("x", 200)})
	assert.True(t, strings.HasSuffix(long.Subtitle, "…"))

	withSub := NewCard(backend.Note{Title: "T", Subtitle: " sub ", Content: "body"})
	assert.Equal(t, "sub", withSub.Subtitle)
}
