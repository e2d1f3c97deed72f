package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
)

// ToolOptions configures the banking tools.
type ToolOptions struct {
	Logger logging.Logger
	// QuoteParallelism bounds concurrent quote fetches of one tool call.
	QuoteParallelism int
}

// WithLogger sets the tool logger.
func WithLogger(l logging.Logger) func(o *ToolOptions) {
	return func(o *ToolOptions) { o.Logger = l }
}

// WithQuoteParallelism sets the concurrent quote fetch limit.
func WithQuoteParallelism(n int) func(o *ToolOptions) {
	return func(o *ToolOptions) { o.QuoteParallelism = n }
}

type customerArgs struct {
	CustomerID string `json:"customer_id" description:"The customer ID (e.g., C001)"`
}

type balanceArgs struct {
	CustomerID  string `json:"customer_id" description:"The customer ID (e.g., C001)"`
	AccountType string `json:"account_type" description:"Type of account (checking, savings, investment, or all)" default:"all"`
}

type transactionsArgs struct {
	CustomerID string `json:"customer_id" description:"The customer ID (e.g., C001)"`
	Limit      int    `json:"limit" description:"Number of recent transactions to retrieve (default: 5)" default:"5"`
}

type symbolArgs struct {
	Symbol string `json:"symbol" description:"Stock ticker symbol (e.g., AAPL, GOOGL, MSFT)"`
}

type symbolsArgs struct {
	Symbols string `json:"symbols" description:"Comma-separated stock ticker symbols (e.g., \"AAPL,GOOGL,MSFT\")"`
}

type noArgs struct{}

// toolset binds the tools to their collaborators.
type toolset struct {
	store  *Store
	quotes QuoteSource
	opts   ToolOptions
}

// Tools returns the banking tools in catalog order.
func Tools(store *Store, quotes QuoteSource, optFns ...func(o *ToolOptions)) []tool.Tool {
	opts := ToolOptions{QuoteParallelism: 4}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if quotes == nil {
		quotes = NewStaticQuotes()
	}

	ts := &toolset{store: store, quotes: quotes, opts: opts}
	toolOpts := func(o *tool.FunctionToolOptions) { o.Logger = opts.Logger }

	return []tool.Tool{
		newTextTool(ts, "get_account_info", "Get comprehensive account information for a customer, including all accounts.", ts.accountInfo, toolOpts),
		newTextTool(ts, "get_account_types", "Get a list of account types for a customer.", ts.accountTypes, toolOpts),
		newTextTool(ts, "check_balance", "Check account balance for a customer.", ts.checkBalance, toolOpts),
		newTextTool(ts, "get_recent_transactions", "Get recent transactions for a customer.", ts.recentTransactions, toolOpts),
		newTextTool(ts, "get_total_portfolio_value", "Get total portfolio value across all accounts for a customer.", ts.portfolioValue, toolOpts),
		newTextTool(ts, "get_stock_price", "Get current stock price for a given symbol.", ts.stockPrice, toolOpts),
		newTextTool(ts, "get_multiple_stock_prices", "Get current prices for multiple stocks.", ts.multipleStockPrices, toolOpts),
		newTextTool(ts, "get_gold_price", "Get current gold spot price.", ts.goldPrice, toolOpts),
		newTextTool(ts, "get_silver_price", "Get current silver spot price.", ts.silverPrice, toolOpts),
		newTextTool(ts, "get_precious_metals_prices", "Get current prices for both gold and silver.", ts.preciousMetals, toolOpts),
	}
}

// NewCatalog returns the banking tool catalog.
func NewCatalog(store *Store, quotes QuoteSource, optFns ...func(o *ToolOptions)) (*tool.Catalog, error) {
	return tool.NewCatalog(Tools(store, quotes, optFns...)...)
}

// newTextTool builds a function tool whose schema is derived from A and whose
// handler returns Markdown text.
func newTextTool[A any](ts *toolset, name, description string, fn func(ctx context.Context, args A) string, optFns ...func(o *tool.FunctionToolOptions)) tool.Tool {
	var zero A
	return tool.NewFunctionToolFromStruct(name, description, zero, func(ctx context.Context, raw map[string]any) ([]tool.Content, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		ts.opts.Logger.Info("bank.tool.used", "tool", name, "args", raw)
		return []tool.Content{tool.TextContent(fn(ctx, args))}, nil
	}, optFns...)
}

func decodeArgs(raw map[string]any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func (ts *toolset) asOf() string {
	return "*Data as of " + ts.store.Now().Format(timestampLayout) + "*"
}

// -------------------- Accounts --------------------

func (ts *toolset) accountInfo(_ context.Context, args customerArgs) string {
	customer, ok := ts.store.Customer(args.CustomerID)
	if !ok {
		return fmt.Sprintf("Error: Customer %s not found.", args.CustomerID)
	}
	accounts := ts.store.Accounts(args.CustomerID)
	if len(accounts) == 0 {
		return fmt.Sprintf("No accounts found for customer %s.", args.CustomerID)
	}

	var b strings.Builder
	b.WriteString("**Customer Information**\n")
	fmt.Fprintf(&b, "- Name: %s\n", customer.Name)
	fmt.Fprintf(&b, "- Customer ID: %s\n", customer.ID)
	fmt.Fprintf(&b, "- Email: %s\n", customer.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", customer.Phone)
	fmt.Fprintf(&b, "- Status: %s\n", customer.Status)
	fmt.Fprintf(&b, "- Member Since: %s\n\n", customer.JoinedDate)

	fmt.Fprintf(&b, "**Accounts (%d)**\n\n", len(accounts))
	for _, acc := range accounts {
		fmt.Fprintf(&b, "### %s Account\n", title(acc.Type))
		fmt.Fprintf(&b, "- Account Number: %s\n", acc.Number)
		fmt.Fprintf(&b, "- Balance: $%s %s\n", money(acc.Balance), acc.Currency)
		fmt.Fprintf(&b, "- Status: %s\n", acc.Status)
		fmt.Fprintf(&b, "- Opening Date: %s\n", acc.OpeningDate)
		fmt.Fprintf(&b, "- Interest Rate: %s%%\n\n", rate(acc.InterestRate))
	}
	return b.String()
}

func (ts *toolset) accountTypes(_ context.Context, args customerArgs) string {
	accounts := ts.store.Accounts(args.CustomerID)
	if len(accounts) == 0 {
		return fmt.Sprintf("No accounts found for customer %s.", args.CustomerID)
	}
	types := make([]string, len(accounts))
	for i, acc := range accounts {
		types[i] = title(acc.Type)
	}
	return fmt.Sprintf("Account types for %s: %s", args.CustomerID, strings.Join(types, ", "))
}

func (ts *toolset) checkBalance(_ context.Context, args balanceArgs) string {
	accounts := ts.store.Accounts(args.CustomerID)
	if len(accounts) == 0 {
		return fmt.Sprintf("No accounts found for customer %s.", args.CustomerID)
	}

	if strings.EqualFold(args.AccountType, "all") || args.AccountType == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "**Balance Summary for Customer %s**\n\n", args.CustomerID)
		var total float64
		for _, acc := range accounts {
			fmt.Fprintf(&b, "- %s: $%s\n", title(acc.Type), money(acc.Balance))
			total += acc.Balance
		}
		fmt.Fprintf(&b, "\n**Total Balance: $%s USD**", money(total))
		return b.String()
	}

	matching := ts.store.AccountsOfType(args.CustomerID, args.AccountType)
	if len(matching) == 0 {
		return fmt.Sprintf("No %s account found for customer %s.", args.AccountType, args.CustomerID)
	}
	acc := matching[0]
	var b strings.Builder
	fmt.Fprintf(&b, "**%s Account Balance**\n", title(acc.Type))
	fmt.Fprintf(&b, "- Account Number: %s\n", acc.Number)
	fmt.Fprintf(&b, "- Balance: $%s %s\n", money(acc.Balance), acc.Currency)
	fmt.Fprintf(&b, "- Status: %s", acc.Status)
	return b.String()
}

func (ts *toolset) recentTransactions(_ context.Context, args transactionsArgs) string {
	txns := ts.store.Transactions(args.CustomerID, args.Limit)
	if len(txns) == 0 {
		return fmt.Sprintf("No recent transactions found for customer %s.", args.CustomerID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Recent Transactions for Customer %s**\n\n", args.CustomerID)
	for _, t := range txns {
		sign := "-"
		if t.Credit {
			sign = "+"
		}
		amount := t.Amount
		if amount < 0 {
			amount = -amount
		}
		fmt.Fprintf(&b, "### %s\n", t.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, "- Description: %s\n", t.Description)
		fmt.Fprintf(&b, "- Amount: %s$%s\n", sign, money(amount))
		fmt.Fprintf(&b, "- Balance After: $%s\n\n", money(t.BalanceAfter))
	}
	return b.String()
}

func (ts *toolset) portfolioValue(_ context.Context, args customerArgs) string {
	total := ts.store.TotalBalance(args.CustomerID)
	if total == 0 {
		return fmt.Sprintf("No accounts found for customer %s.", args.CustomerID)
	}
	accounts := ts.store.Accounts(args.CustomerID)

	var b strings.Builder
	fmt.Fprintf(&b, "**Total Portfolio Value for Customer %s**\n\n", args.CustomerID)
	fmt.Fprintf(&b, "Total Value: $%s USD\n", money(total))
	fmt.Fprintf(&b, "Accounts: %d\n", len(accounts))
	return b.String()
}

// -------------------- Quotes --------------------

func (ts *toolset) stockPrice(ctx context.Context, args symbolArgs) string {
	symbol := strings.ToUpper(strings.TrimSpace(args.Symbol))
	q, err := ts.quotes.Quote(ctx, symbol)
	if errors.Is(err, ErrNoPrice) {
		return fmt.Sprintf("Unable to fetch price for %s. Please verify the symbol is correct.", args.Symbol)
	}
	if err != nil {
		ts.opts.Logger.Error("bank.quote.error", "symbol", symbol, "error", err)
		return fmt.Sprintf("Error fetching stock price for %s: %v", args.Symbol, err)
	}

	name := q.Name
	if name == "" {
		name = args.Symbol
	}
	change, pct := q.Change()

	var b strings.Builder
	fmt.Fprintf(&b, "**%s (%s)**\n\n", name, symbol)
	fmt.Fprintf(&b, "- Current Price: $%.2f\n", q.Price)
	fmt.Fprintf(&b, "- Previous Close: $%.2f\n", q.PreviousClose)
	fmt.Fprintf(&b, "- Change: $%s (%s%%)\n", signed(change), signed(pct))
	if q.MarketCap > 0 {
		fmt.Fprintf(&b, "- Market Cap: $%s\n", wholeMoney(q.MarketCap))
	}
	if q.Volume > 0 {
		fmt.Fprintf(&b, "- Volume: %s\n", grouped(q.Volume))
	}
	b.WriteString("\n" + ts.asOf())
	return b.String()
}

type quoteResult struct {
	quote Quote
	err   error
}

// fetchAll fetches quotes concurrently and returns them in symbol order.
func (ts *toolset) fetchAll(ctx context.Context, symbols []string) []quoteResult {
	results := make([]quoteResult, len(symbols))
	var g errgroup.Group
	g.SetLimit(max(ts.opts.QuoteParallelism, 1))
	for i, s := range symbols {
		g.Go(func() error {
			q, err := ts.quotes.Quote(ctx, s)
			results[i] = quoteResult{quote: q, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (ts *toolset) multipleStockPrices(ctx context.Context, args symbolsArgs) string {
	var symbols []string
	for _, s := range strings.Split(args.Symbols, ",") {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Stock Prices for %d Symbols**\n\n", len(symbols))
	for i, r := range ts.fetchAll(ctx, symbols) {
		symbol := symbols[i]
		switch {
		case errors.Is(r.err, ErrNoPrice):
			fmt.Fprintf(&b, "### %s\n- Unable to fetch price\n\n", symbol)
		case r.err != nil:
			ts.opts.Logger.Error("bank.quote.error", "symbol", symbol, "error", r.err)
			fmt.Fprintf(&b, "### %s\n- Error: %v\n\n", symbol, r.err)
		default:
			change, pct := r.quote.Change()
			fmt.Fprintf(&b, "### %s\n", symbol)
			fmt.Fprintf(&b, "- Price: $%.2f\n", r.quote.Price)
			fmt.Fprintf(&b, "- Change: $%s (%s%%)\n\n", signed(change), signed(pct))
		}
	}
	b.WriteString(ts.asOf())
	return b.String()
}

func (ts *toolset) metalSpot(ctx context.Context, metal, symbol string) string {
	q, err := ts.quotes.Quote(ctx, symbol)
	if errors.Is(err, ErrNoPrice) {
		return fmt.Sprintf("Unable to fetch %s price at this time.", strings.ToLower(metal))
	}
	if err != nil {
		ts.opts.Logger.Error("bank.quote.error", "symbol", symbol, "error", err)
		return fmt.Sprintf("Error fetching %s price: %v", strings.ToLower(metal), err)
	}

	change, pct := q.Change()
	var b strings.Builder
	fmt.Fprintf(&b, "**%s Spot Price**\n\n", metal)
	fmt.Fprintf(&b, "- Current Price: $%s per troy ounce\n", money(q.Price))
	fmt.Fprintf(&b, "- Previous Close: $%s\n", money(q.PreviousClose))
	fmt.Fprintf(&b, "- Change: $%s (%s%%)\n", signed(change), signed(pct))
	b.WriteString("\n" + ts.asOf())
	return b.String()
}

func (ts *toolset) goldPrice(ctx context.Context, _ noArgs) string {
	return ts.metalSpot(ctx, "Gold", GoldSymbol)
}

func (ts *toolset) silverPrice(ctx context.Context, _ noArgs) string {
	return ts.metalSpot(ctx, "Silver", SilverSymbol)
}

func (ts *toolset) preciousMetals(ctx context.Context, _ noArgs) string {
	metals := []string{"Gold", "Silver"}

	var b strings.Builder
	b.WriteString("**Precious Metals Prices**\n\n")
	for i, r := range ts.fetchAll(ctx, []string{GoldSymbol, SilverSymbol}) {
		metal := metals[i]
		switch {
		case errors.Is(r.err, ErrNoPrice):
			fmt.Fprintf(&b, "### %s\n- Unable to fetch price\n\n", metal)
		case r.err != nil:
			ts.opts.Logger.Error("bank.quote.error", "metal", metal, "error", r.err)
			fmt.Fprintf(&b, "### %s\n- Error: %v\n\n", metal, r.err)
		default:
			change, pct := r.quote.Change()
			fmt.Fprintf(&b, "### %s (per troy oz)\n", metal)
			fmt.Fprintf(&b, "- Price: $%s\n", money(r.quote.Price))
			fmt.Fprintf(&b, "- Change: $%s (%s%%)\n\n", signed(change), signed(pct))
		}
	}
	b.WriteString(ts.asOf())
	return b.String()
}
