package bank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestStore_Accounts(t *testing.T) {
	s := NewStore()

	accounts := s.Accounts("C001")
	require.Len(t, accounts, 3)
	assert.Equal(t, []string{"A001", "A002", "A003"}, []string{accounts[0].ID, accounts[1].ID, accounts[2].ID})
	assert.Empty(t, s.Accounts("C999"))

	savings := s.AccountsOfType("C002", "SAVINGS")
	require.Len(t, savings, 1)
	assert.Equal(t, "A005", savings[0].ID)

	acc, ok := s.Account("A006")
	require.True(t, ok)
	assert.Equal(t, "C003", acc.CustomerID)
	_, ok = s.Account("A999")
	assert.False(t, ok)
}

func TestStore_AccountsOfTypeDoesNotMutate(t *testing.T) {
	s := NewStore()
	_ = s.AccountsOfType("C001", "savings")
	assert.Len(t, s.Accounts("C001"), 3)
	_, ok := s.Account("A003")
	assert.True(t, ok)
}

func TestStore_Transactions(t *testing.T) {
	s := NewStore(WithClock(fixedClock))

	txns := s.Transactions("C001", 2)
	require.Len(t, txns, 2)
	assert.Equal(t, "T001", txns[0].ID)
	assert.Equal(t, fixedNow.AddDate(0, 0, -2), txns[0].Date)
	assert.True(t, txns[1].Credit)

	assert.Len(t, s.Transactions("C001", 10), 4)
	assert.Empty(t, s.Transactions("C001", 0))
	assert.Empty(t, s.Transactions("C999", 5))
}

func TestStore_TotalBalance(t *testing.T) {
	s := NewStore()
	assert.InDelta(t, 69060.75, s.TotalBalance("C001"), 0.001)
	assert.Zero(t, s.TotalBalance("C999"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5,420.50", money(5420.5))
	assert.Equal(t, "69,060.75", money(69060.75))
	assert.Equal(t, "3,410,000,000,000", wholeMoney(3.41e12))
	assert.Equal(t, "48,213,900", grouped(48213900))
	assert.Equal(t, "+2.35", signed(2.35))
	assert.Equal(t, "-2.65", signed(-2.65))
	assert.Equal(t, "Investment", title("investment"))
	assert.Equal(t, "0.0", rate(0))
	assert.Equal(t, "2.5", rate(2.5))
}
