package bank

import (
	"slices"
	"strings"
	"time"
)

// Customer is a bank customer.
type Customer struct {
	ID         string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	JoinedDate string `json:"joined_date"`
}

// Account is a customer account.
type Account struct {
	ID           string  `json:"account_id"`
	CustomerID   string  `json:"customer_id"`
	Type         string  `json:"account_type"`
	Number       string  `json:"account_number"`
	Balance      float64 `json:"balance"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
	OpeningDate  string  `json:"opening_date"`
	InterestRate float64 `json:"interest_rate"`
}

// Transaction is a booked account movement.
type Transaction struct {
	ID           string    `json:"transaction_id"`
	AccountID    string    `json:"account_id"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Credit       bool      `json:"credit"`
	BalanceAfter float64   `json:"balance_after"`
}

// transaction is the stored form; dates are relative to the store clock.
type transaction struct {
	id           string
	accountID    string
	daysAgo      int
	description  string
	amount       float64
	credit       bool
	balanceAfter float64
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Clock returns the current time. Transaction dates are derived from it.
	Clock func() time.Time
}

// WithClock sets the store clock.
func WithClock(clock func() time.Time) func(o *StoreOptions) {
	return func(o *StoreOptions) { o.Clock = clock }
}

// Store is a read-only in-memory bank. It is safe for concurrent use.
type Store struct {
	customers    map[string]Customer
	accounts     []Account
	transactions map[string][]transaction
	clock        func() time.Time
}

// NewStore returns a store seeded with the demo customers C001 to C003.
func NewStore(optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		customers: map[string]Customer{
			"C001": {ID: "C001", Name: "John Doe", Email: "john.doe@example.com", Phone: "+1-555-0101", Status: "active", JoinedDate: "2020-01-15"},
			"C002": {ID: "C002", Name: "Jane Smith", Email: "jane.smith@example.com", Phone: "+1-555-0102", Status: "active", JoinedDate: "2019-06-20"},
			"C003": {ID: "C003", Name: "Bob Johnson", Email: "bob.johnson@example.com", Phone: "+1-555-0103", Status: "active", JoinedDate: "2021-03-10"},
		},
		accounts: []Account{
			{ID: "A001", CustomerID: "C001", Type: "checking", Number: "****1234", Balance: 5420.50, Currency: "USD", Status: "active", OpeningDate: "2020-01-15", InterestRate: 0.5},
			{ID: "A002", CustomerID: "C001", Type: "savings", Number: "****5678", Balance: 15750.00, Currency: "USD", Status: "active", OpeningDate: "2020-02-20", InterestRate: 2.5},
			{ID: "A003", CustomerID: "C001", Type: "investment", Number: "****9012", Balance: 47890.25, Currency: "USD", Status: "active", OpeningDate: "2021-05-10", InterestRate: 0.0},
			{ID: "A004", CustomerID: "C002", Type: "checking", Number: "****3456", Balance: 3280.75, Currency: "USD", Status: "active", OpeningDate: "2019-06-20", InterestRate: 0.5},
			{ID: "A005", CustomerID: "C002", Type: "savings", Number: "****7890", Balance: 22500.00, Currency: "USD", Status: "active", OpeningDate: "2019-07-01", InterestRate: 2.5},
			{ID: "A006", CustomerID: "C003", Type: "checking", Number: "****2468", Balance: 1875.30, Currency: "USD", Status: "active", OpeningDate: "2021-03-10", InterestRate: 0.5},
		},
		transactions: map[string][]transaction{
			"C001": {
				{id: "T001", accountID: "A001", daysAgo: 2, description: "Grocery Store", amount: -85.50, balanceAfter: 5420.50},
				{id: "T002", accountID: "A001", daysAgo: 5, description: "Salary Deposit", amount: 3500.00, credit: true, balanceAfter: 5506.00},
				{id: "T003", accountID: "A002", daysAgo: 30, description: "Interest Credit", amount: 32.85, credit: true, balanceAfter: 15750.00},
				{id: "T004", accountID: "A003", daysAgo: 1, description: "Stock Purchase - AAPL", amount: -2500.00, balanceAfter: 47890.25},
			},
			"C002": {
				{id: "T005", accountID: "A004", daysAgo: 1, description: "Electric Bill", amount: -125.50, balanceAfter: 3280.75},
				{id: "T006", accountID: "A004", daysAgo: 3, description: "ATM Withdrawal", amount: -200.00, balanceAfter: 3406.25},
			},
			"C003": {
				{id: "T007", accountID: "A006", daysAgo: 2, description: "Restaurant", amount: -45.80, balanceAfter: 1875.30},
			},
		},
		clock: opts.Clock,
	}
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.clock() }

// Customer looks up a customer by id.
func (s *Store) Customer(id string) (Customer, bool) {
	c, ok := s.customers[id]
	return c, ok
}

// Accounts returns the accounts of a customer in account id order.
func (s *Store) Accounts(customerID string) []Account {
	var out []Account
	for _, a := range s.accounts {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out
}

// AccountsOfType returns the customer's accounts of the given type
// (case-insensitive).
func (s *Store) AccountsOfType(customerID, accountType string) []Account {
	return slices.DeleteFunc(s.Accounts(customerID), func(a Account) bool {
		return !strings.EqualFold(a.Type, accountType)
	})
}

// Account looks up an account by id.
func (s *Store) Account(id string) (Account, bool) {
	i := slices.IndexFunc(s.accounts, func(a Account) bool { return a.ID == id })
	if i < 0 {
		return Account{}, false
	}
	return s.accounts[i], true
}

// Transactions returns at most limit transactions of a customer in booking
// order. A non-positive limit returns none.
func (s *Store) Transactions(customerID string, limit int) []Transaction {
	stored := s.transactions[customerID]
	if limit < len(stored) {
		stored = stored[:max(limit, 0)]
	}

	now := s.clock()
	out := make([]Transaction, 0, len(stored))
	for _, t := range stored {
		out = append(out, Transaction{
			ID:           t.id,
			AccountID:    t.accountID,
			Date:         now.AddDate(0, 0, -t.daysAgo),
			Description:  t.description,
			Amount:       t.amount,
			Credit:       t.credit,
			BalanceAfter: t.balanceAfter,
		})
	}
	return out
}

// TotalBalance sums the balances of all accounts of a customer.
func (s *Store) TotalBalance(customerID string) float64 {
	var total float64
	for _, a := range s.Accounts(customerID) {
		total += a.Balance
	}
	return total
}
