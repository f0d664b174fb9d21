package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/session"
)

func TestPendingRecordResolvedByButton(t *testing.T) {
	f := newFixture(t, nil) // no model: every message goes through the fallback

	replies := f.text(300, "coffee 500")
	require.Len(t, replies, 1)
	assert.Equal(t, msgChooseCategory, replies[0].Text)
	assert.True(t, hasButton(replies[0].Buttons, cbCategoryPrefix+"must_products"))

	pending := f.row(2)
	assert.Equal(t, domain.StatusPending, pending.Status)
	assert.Equal(t, int64(500), pending.Amount)
	assert.Equal(t, "", pending.Category)

	replies = f.press(301, cbCategoryPrefix+"must_products")
	del, ok := findReply(replies, ActionDelete)
	require.True(t, ok)
	assert.Equal(t, session.MessageRef{ChatID: testChat, MessageID: 301}, del.Target)
	sent, ok := findReply(replies, ActionSend)
	require.True(t, ok)
	assert.Contains(t, sent.Text, "Groceries")
	assert.Contains(t, sent.Text, "500")

	got := f.row(2)
	assert.Equal(t, domain.StatusOK, got.Status)
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, domain.NeedsReviewFalse, got.NeedsReview)
	assert.Equal(t, []domain.EventType{domain.EventAppended, domain.EventResolved}, f.sink.types())
}

func TestResolveTwiceReportsNotFound(t *testing.T) {
	f := newFixture(t, nil, rec(testAuthor, "1", domain.StatusPending, "", 500))
	ctx := context.Background()

	summary, found, err := f.h.ResolvePending(ctx, testAuthor, "Groceries")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, summary.Row)
	assert.Equal(t, "note 1", summary.CommentRaw)
	assert.Equal(t, int64(500), summary.Amount)

	_, found, err = f.h.ResolvePending(ctx, testAuthor, "Transport")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "Groceries", f.row(2).Category, "finalized row must not change")

	replies := f.press(9, cbCategoryPrefix+"must_transport")
	sent, ok := findReply(replies, ActionSend)
	require.True(t, ok)
	assert.Equal(t, msgPendingMissing, sent.Text)
	_, deleted := findReply(replies, ActionDelete)
	assert.False(t, deleted)
}

func TestResolvePicksNewestPendingOfAuthor(t *testing.T) {
	f := newFixture(t, nil,
		rec(testAuthor, "1", domain.StatusPending, "", 100),
		rec(testAuthor, "2", domain.StatusPending, "", 200),
		rec("other", "3", domain.StatusPending, "", 300),
	)

	summary, found, err := f.h.ResolvePending(context.Background(), testAuthor, "Housing")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, summary.Row)

	assert.Equal(t, domain.StatusPending, f.row(2).Status)
	assert.Equal(t, domain.StatusOK, f.row(3).Status)
	assert.Equal(t, domain.StatusPending, f.row(4).Status)
}

func TestResolveUnknownCategory(t *testing.T) {
	f := newFixture(t, nil, rec(testAuthor, "1", domain.StatusPending, "", 500))

	replies := f.press(9, cbCategoryPrefix+"no_such")
	require.Len(t, replies, 1)
	assert.Equal(t, ActionToast, replies[0].Action)
	assert.True(t, replies[0].Alert)
	assert.Equal(t, msgUnknownCat, replies[0].Text)
	assert.Equal(t, domain.StatusPending, f.row(2).Status)
}
