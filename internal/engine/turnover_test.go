package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzavyalov/bankdm/internal/model"
)

func TestComputeTurnover_SumsLegsPerAccount(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	d := model.MustDate("2018-01-09")

	_, err := st.InsertPostings(ctx, []model.Posting{
		{OperDate: d, DebetAccountRK: 1, DebetAmount: dec("30"), CreditAccountRK: 3, CreditAmount: dec("30")},
		{OperDate: d, DebetAccountRK: 3, DebetAmount: dec("10"), CreditAccountRK: 1, CreditAmount: dec("10")},
		{OperDate: d, DebetAccountRK: 2, DebetAmount: dec("5"), CreditAccountRK: 3, CreditAmount: dec("10")},
	})
	require.NoError(t, err)

	e := New(st)
	rows, err := e.ComputeTurnover(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)

	got, err := st.TurnoversByDate(ctx, d)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Account 1 is local: reporting amounts equal native amounts.
	assert.True(t, got[1].DebetAmount.Equal(dec("30")), "acct 1 debet = %s", got[1].DebetAmount)
	assert.True(t, got[1].CreditAmount.Equal(dec("10")), "acct 1 credit = %s", got[1].CreditAmount)
	assert.True(t, got[1].DebetAmountRub.Equal(dec("30")), "acct 1 debet rub = %s", got[1].DebetAmountRub)

	// Account 2 is foreign at rate 2: reporting amounts are doubled.
	assert.True(t, got[2].DebetAmount.Equal(dec("5")), "acct 2 debet = %s", got[2].DebetAmount)
	assert.True(t, got[2].DebetAmountRub.Equal(dec("10")), "acct 2 debet rub = %s", got[2].DebetAmountRub)
	assert.True(t, got[2].CreditAmount.IsZero(), "acct 2 credit = %s", got[2].CreditAmount)

	// Account 3 appears on both sides of the same date.
	assert.True(t, got[3].DebetAmount.Equal(dec("10")), "acct 3 debet = %s", got[3].DebetAmount)
	assert.True(t, got[3].CreditAmount.Equal(dec("40")), "acct 3 credit = %s", got[3].CreditAmount)
}

func TestComputeTurnover_SkipsUnresolvedAccount(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	d := model.MustDate("2018-01-09")

	// Account 99 has no dimension version at all.
	_, err := st.InsertPostings(ctx, []model.Posting{
		{OperDate: d, DebetAccountRK: 99, DebetAmount: dec("7"), CreditAccountRK: 1, CreditAmount: dec("7")},
	})
	require.NoError(t, err)

	e := New(st)
	rows, err := e.ComputeTurnover(ctx, d)
	require.NoError(t, err, "an unresolvable account must not fail the batch")
	assert.Equal(t, int64(1), rows)

	got, err := st.TurnoversByDate(ctx, d)
	require.NoError(t, err)
	_, ok := got[99]
	assert.False(t, ok, "unresolved account must be excluded from the mart")
	assert.True(t, got[1].CreditAmount.Equal(dec("7")))
}

func TestComputeTurnover_RerunReplacesPriorResult(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	d := model.MustDate("2018-01-09")

	_, err := st.InsertPostings(ctx, []model.Posting{
		{OperDate: d, DebetAccountRK: 1, DebetAmount: dec("30"), CreditAccountRK: 3, CreditAmount: dec("30")},
	})
	require.NoError(t, err)

	e := New(st)
	_, err = e.ComputeTurnover(ctx, d)
	require.NoError(t, err)
	_, err = e.ComputeTurnover(ctx, d)
	require.NoError(t, err)

	got, err := st.TurnoversByDate(ctx, d)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].DebetAmount.Equal(dec("30")), "re-run must not double-count: %s", got[1].DebetAmount)
}

func TestComputeTurnover_EmptyDayWritesNothing(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	d := model.MustDate("2018-01-09")

	e := New(st)
	rows, err := e.ComputeTurnover(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	got, err := st.TurnoversByDate(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, got)
}
