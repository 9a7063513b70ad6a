package meetingnote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/testutil"
	"github.com/ovaphlow/cellgroup/internal/week"
)

func ptr[T any](v T) *T { return &v }

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain formatting kept", in: "<p><strong>Hi</strong> <u>there</u></p>", want: "<p><strong>Hi</strong> <u>there</u></p>"},
		{name: "script dropped", in: `<p>ok</p><script>alert(1)</script>`, want: "<p>ok</p>"},
		{name: "handler dropped", in: `<img src="x.png" onerror="alert(1)">`, want: `<img src="x.png">`},
		{name: "javascript url dropped", in: `<a href="javascript:alert(1)">x</a>`, want: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := NewService(db)
	ctx := context.Background()

	wed := week.NewDate(2024, time.January, 3)
	sunday := testutil.Week(t, "2024-01-07")

	n, err := svc.Create(ctx, CreateInput{WeekDate: wed, Title: " Prayer night ", Content: `<p>Bring snacks</p><script>x()</script>`})
	require.NoError(t, err)
	assert.Equal(t, sunday, n.WeekDate)
	assert.Equal(t, "Prayer night", n.Title)
	assert.Equal(t, "<p>Bring snacks</p>", n.Content)

	t.Run("week required", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{Title: "x"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("duplicate week", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{WeekDate: sunday, Title: "Again"})
		assert.ErrorIs(t, err, ErrWeekTaken)
		assert.Equal(t, 1, testutil.CountRows(t, db, "meeting_notes"))
	})

	t.Run("partial update", func(t *testing.T) {
		got, err := svc.Update(ctx, n.ID, UpdateInput{Content: ptr(`<p onclick="x()">Updated</p>`)})
		require.NoError(t, err)
		assert.Equal(t, "Prayer night", got.Title)
		assert.Equal(t, "<p>Updated</p>", got.Content)

		_, err = svc.Update(ctx, n.ID, UpdateInput{Title: ptr("  ")})
		assert.ErrorIs(t, err, ErrTitleRequired)
		_, err = svc.Update(ctx, "missing", UpdateInput{Title: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("moving onto a taken week", func(t *testing.T) {
		other, err := svc.Create(ctx, CreateInput{WeekDate: sunday.AddWeeks(1), Title: "Next"})
		require.NoError(t, err)
		_, err = svc.Update(ctx, other.ID, UpdateInput{WeekDate: &sunday})
		assert.ErrorIs(t, err, ErrWeekTaken)
	})

	t.Run("list newest first", func(t *testing.T) {
		notes, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "Next", notes[0].Title)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, n.ID))
		assert.ErrorIs(t, svc.Delete(ctx, n.ID), ErrNotFound)
		_, err := svc.Get(ctx, n.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
