package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/tool"
)

func testCatalog(t *testing.T, quotes QuoteSource) *tool.Catalog {
	t.Helper()
	store := NewStore(WithClock(fixedClock))
	if quotes == nil {
		static := NewStaticQuotes()
		static.clock = fixedClock
		quotes = static
	}
	c, err := NewCatalog(store, quotes)
	require.NoError(t, err)
	return c
}

func callText(t *testing.T, c *tool.Catalog, name string, args map[string]any) string {
	t.Helper()
	contents, err := c.Call(context.Background(), name, args)
	require.NoError(t, err)
	return tool.RenderText(contents)
}

func TestCatalog_Names(t *testing.T) {
	c := testCatalog(t, nil)
	assert.Equal(t, []string{
		"get_account_info",
		"get_account_types",
		"check_balance",
		"get_recent_transactions",
		"get_total_portfolio_value",
		"get_stock_price",
		"get_multiple_stock_prices",
		"get_gold_price",
		"get_silver_price",
		"get_precious_metals_prices",
	}, c.Names())
}

func TestCatalog_Schemas(t *testing.T) {
	c := testCatalog(t, nil)

	balance, ok := c.Lookup("check_balance")
	require.True(t, ok)
	params := balance.Parameters()
	assert.Equal(t, []string{"customer_id"}, params["required"])
	props := params["properties"].(map[string]any)
	assert.Equal(t, "all", props["account_type"].(map[string]any)["default"])

	gold, ok := c.Lookup("get_gold_price")
	require.True(t, ok)
	assert.Empty(t, gold.Parameters()["properties"])
	assert.NotContains(t, gold.Parameters(), "required")
}

func TestCheckBalance(t *testing.T) {
	c := testCatalog(t, nil)

	all := callText(t, c, "check_balance", map[string]any{"customer_id": "C001"})
	assert.Equal(t, "**Balance Summary for Customer C001**\n\n"+
		"- Checking: $5,420.50\n"+
		"- Savings: $15,750.00\n"+
		"- Investment: $47,890.25\n"+
		"\n**Total Balance: $69,060.75 USD**", all)

	savings := callText(t, c, "check_balance", map[string]any{"customer_id": "C002", "account_type": "Savings"})
	assert.Equal(t, "**Savings Account Balance**\n- Account Number: ****7890\n- Balance: $22,500.00 USD\n- Status: active", savings)

	assert.Equal(t, "No investment account found for customer C003.",
		callText(t, c, "check_balance", map[string]any{"customer_id": "C003", "account_type": "investment"}))
	assert.Equal(t, "No accounts found for customer C999.",
		callText(t, c, "check_balance", map[string]any{"customer_id": "C999"}))
}

func TestCheckBalance_MissingCustomer(t *testing.T) {
	c := testCatalog(t, nil)
	_, err := c.Call(context.Background(), "check_balance", map[string]any{})

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
}

func TestAccountInfo(t *testing.T) {
	c := testCatalog(t, nil)

	out := callText(t, c, "get_account_info", map[string]any{"customer_id": "C003"})
	assert.Equal(t, "**Customer Information**\n"+
		"- Name: Bob Johnson\n"+
		"- Customer ID: C003\n"+
		"- Email: bob.johnson@example.com\n"+
		"- Phone: +1-555-0103\n"+
		"- Status: active\n"+
		"- Member Since: 2021-03-10\n\n"+
		"**Accounts (1)**\n\n"+
		"### Checking Account\n"+
		"- Account Number: ****2468\n"+
		"- Balance: $1,875.30 USD\n"+
		"- Status: active\n"+
		"- Opening Date: 2021-03-10\n"+
		"- Interest Rate: 0.5%\n\n", out)

	assert.Equal(t, "Error: Customer C999 not found.",
		callText(t, c, "get_account_info", map[string]any{"customer_id": "C999"}))
	assert.Equal(t, "Account types for C001: Checking, Savings, Investment",
		callText(t, c, "get_account_types", map[string]any{"customer_id": "C001"}))
}

func TestRecentTransactions(t *testing.T) {
	c := testCatalog(t, nil)

	// limit arrives as a JSON number from the model
	out := callText(t, c, "get_recent_transactions", map[string]any{"customer_id": "C002", "limit": float64(1)})
	assert.Equal(t, "**Recent Transactions for Customer C002**\n\n"+
		"### 2025-03-13\n"+
		"- Description: Electric Bill\n"+
		"- Amount: -$125.50\n"+
		"- Balance After: $3,280.75\n\n", out)

	all := callText(t, c, "get_recent_transactions", map[string]any{"customer_id": "C001"})
	assert.Contains(t, all, "- Amount: +$3,500.00\n")
	assert.Contains(t, all, "Stock Purchase - AAPL")

	assert.Equal(t, "No recent transactions found for customer C999.",
		callText(t, c, "get_recent_transactions", map[string]any{"customer_id": "C999"}))
}

func TestPortfolioValue(t *testing.T) {
	c := testCatalog(t, nil)
	assert.Equal(t, "**Total Portfolio Value for Customer C002**\n\nTotal Value: $25,780.75 USD\nAccounts: 2\n",
		callText(t, c, "get_total_portfolio_value", map[string]any{"customer_id": "C002"}))
}

func TestStockPrice(t *testing.T) {
	c := testCatalog(t, nil)

	out := callText(t, c, "get_stock_price", map[string]any{"symbol": "aapl"})
	assert.Equal(t, "**Apple Inc. (AAPL)**\n\n"+
		"- Current Price: $229.87\n"+
		"- Previous Close: $227.52\n"+
		"- Change: $+2.35 (+1.03%)\n"+
		"- Market Cap: $3,410,000,000,000\n"+
		"- Volume: 48,213,900\n"+
		"\n*Data as of 2025-03-14 09:30:00*", out)

	assert.Equal(t, "Unable to fetch price for ZZZZ. Please verify the symbol is correct.",
		callText(t, c, "get_stock_price", map[string]any{"symbol": "ZZZZ"}))
}

func TestStockPrice_SourceError(t *testing.T) {
	failing := QuoteFunc(func(context.Context, string) (Quote, error) {
		return Quote{}, errors.New("timeout")
	})
	c := testCatalog(t, failing)

	assert.Equal(t, "Error fetching stock price for MSFT: timeout",
		callText(t, c, "get_stock_price", map[string]any{"symbol": "MSFT"}))
	assert.Equal(t, "Error fetching gold price: timeout", callText(t, c, "get_gold_price", nil))
}

func TestMultipleStockPrices(t *testing.T) {
	c := testCatalog(t, nil)

	out := callText(t, c, "get_multiple_stock_prices", map[string]any{"symbols": "msft, zzzz,NVDA"})
	assert.Equal(t, "**Stock Prices for 3 Symbols**\n\n"+
		"### MSFT\n- Price: $514.45\n- Change: $-2.65 (-0.51%)\n\n"+
		"### ZZZZ\n- Unable to fetch price\n\n"+
		"### NVDA\n- Price: $177.99\n- Change: $+2.35 (+1.34%)\n\n"+
		"*Data as of 2025-03-14 09:30:00*", out)
}

func TestMetalPrices(t *testing.T) {
	c := testCatalog(t, nil)

	gold := callText(t, c, "get_gold_price", nil)
	assert.Equal(t, "**Gold Spot Price**\n\n"+
		"- Current Price: $3,412.80 per troy ounce\n"+
		"- Previous Close: $3,398.10\n"+
		"- Change: $+14.70 (+0.43%)\n"+
		"\n*Data as of 2025-03-14 09:30:00*", gold)

	silver := callText(t, c, "get_silver_price", map[string]any{})
	assert.Contains(t, silver, "**Silver Spot Price**")
	assert.Contains(t, silver, "- Change: $-0.23 (-0.59%)")

	both := callText(t, c, "get_precious_metals_prices", nil)
	assert.Equal(t, "**Precious Metals Prices**\n\n"+
		"### Gold (per troy oz)\n- Price: $3,412.80\n- Change: $+14.70 (+0.43%)\n\n"+
		"### Silver (per troy oz)\n- Price: $38.92\n- Change: $-0.23 (-0.59%)\n\n"+
		"*Data as of 2025-03-14 09:30:00*", both)
}

func TestMetalPrices_Unavailable(t *testing.T) {
	c := testCatalog(t, NewStaticQuotes(Quote{Symbol: "AAPL", Price: 1}))

	assert.Equal(t, "Unable to fetch silver price at this time.", callText(t, c, "get_silver_price", nil))
	both := callText(t, c, "get_precious_metals_prices", nil)
	assert.Contains(t, both, "### Gold\n- Unable to fetch price\n\n### Silver\n- Unable to fetch price\n\n")
}
