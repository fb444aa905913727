// Command ledgerctl operates the ledger directly against the configured
// store, bypassing HTTP. Intended for operators and local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/amirasaad/payledger/infra"
	"github.com/amirasaad/payledger/infra/initializer"
	"github.com/amirasaad/payledger/internal/migrations"
	"github.com/amirasaad/payledger/pkg/app"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/amirasaad/payledger/pkg/service/ledger"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/term"
)

const usage = `Usage: ledgerctl <command> [arguments]
Commands:
  migrate                          apply database migrations
  open <account_id>                open an account with the default balance
  verify <account_id> [true|false] set the verification flag
  deposit <account_id> <amount>    deposit from the external source
  transfer <from> <to> <amount>    transfer between accounts
  balance <account_id>             show balance and counters
  history <account_id> [limit]     show ledger entries, newest first
  token <account_id> [admin]       mint a bearer token`

var errUsage = errors.New("invalid arguments")

func main() {
	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err) //nolint:errcheck
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage) //nolint:errcheck
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// keep operator output readable
	cfg.Log.Level = 8

	if args[0] == "migrate" {
		return migrate(cfg, out)
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()

	a, err := app.New(deps, cfg)
	if err != nil {
		return err
	}
	return (&cli{app: a, out: out}).exec(ctx, args)
}

func migrate(cfg *config.App, out io.Writer) error {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck

	if err := migrations.Up(sqlDB); err != nil {
		return err
	}
	version, dirty, err := migrations.Version(sqlDB)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(out, "Schema at version %d (dirty=%t)\n", version, dirty) //nolint:errcheck
	return nil
}

type cli struct {
	app *app.App
	out io.Writer
}

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	labelColor = color.New(color.FgCyan)
	sentColor  = color.New(color.FgRed)
	recvColor  = color.New(color.FgGreen)
)

func (c *cli) exec(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "open":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		acc, err := c.app.AccountService.Open(ctx, id)
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "Account opened: %s\n", acc.ID) //nolint:errcheck
		c.printAccount(acc)
	case "verify":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		verified := true
		if len(rest) > 1 {
			if verified, err = strconv.ParseBool(rest[1]); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
		}
		acc, err := c.app.AccountService.SetVerified(ctx, id, verified)
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "Account %s verified=%t\n", acc.ID, acc.IsVerified) //nolint:errcheck
	case "deposit":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		amount, err := argAmount(rest, 1)
		if err != nil {
			return err
		}
		entry, err := c.app.LedgerService.Deposit(ctx, ledger.DepositInput{AccountID: id, Amount: amount})
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "Deposited %s to %s (code %s)\n", entry.Amount, id, entry.Code) //nolint:errcheck
	case "transfer":
		from, err := argID(rest, 0)
		if err != nil {
			return err
		}
		to, err := argID(rest, 1)
		if err != nil {
			return err
		}
		amount, err := argAmount(rest, 2)
		if err != nil {
			return err
		}
		entry, err := c.app.LedgerService.Transfer(ctx, ledger.TransferInput{
			SenderID:   from,
			ReceiverID: to,
			Amount:     amount,
		})
		if err != nil {
			return err
		}
		okColor.Fprintf(c.out, "Transferred %s from %s to %s (code %s)\n", //nolint:errcheck
			entry.Amount, from, to, entry.Code)
	case "balance":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		acc, err := c.app.AccountService.Get(ctx, id)
		if err != nil {
			return err
		}
		c.printAccount(acc)
	case "history":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		page := repository.Page{}
		if len(rest) > 1 {
			if page.Limit, err = strconv.Atoi(rest[1]); err != nil {
				return fmt.Errorf("%w: limit: %v", errUsage, err)
			}
		}
		entries, err := c.app.LedgerService.History(ctx, id, page)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(c.out, "No transactions") //nolint:errcheck
		}
		for _, e := range entries {
			c.printEntry(e, id)
		}
	case "token":
		id, err := argID(rest, 0)
		if err != nil {
			return err
		}
		admin := len(rest) > 1 && rest[1] == "admin"
		token, err := c.app.AuthService.GenerateToken(ctx, auth.Principal{ID: id, Admin: admin})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, token) //nolint:errcheck
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func (c *cli) printAccount(acc *account.Account) {
	rows := []struct{ label, value string }{
		{"Account", acc.ID.String()},
		{"Balance", acc.Balance.String()},
		{"Limit", acc.TransactionLimit.String()},
		{"Verified", strconv.FormatBool(acc.IsVerified)},
		{"Sent", strconv.FormatInt(acc.MoneySentCount, 10)},
		{"Received", strconv.FormatInt(acc.MoneyReceivedCount, 10)},
		{"Requests", strconv.FormatInt(acc.RequestsReceivedCount, 10)},
	}
	for _, r := range rows {
		labelColor.Fprintf(c.out, "%-9s", r.label) //nolint:errcheck
		fmt.Fprintln(c.out, r.value)               //nolint:errcheck
	}
}

func (c *cli) printEntry(e *account.Entry, viewer uuid.UUID) {
	direction := e.DirectionFor(viewer)
	sign, paint := "+", recvColor
	if direction == "sent" {
		sign, paint = "-", sentColor
	}
	fmt.Fprintf(c.out, "%s  %s  ", e.CreatedAt.Format("2006-01-02 15:04:05.000000"), e.Code) //nolint:errcheck
	paint.Fprintf(c.out, "%s%s", sign, e.Amount)                                          //nolint:errcheck
	fmt.Fprintf(c.out, "  %-8s %s\n", e.Kind, e.Reference)                                //nolint:errcheck
}

func argID(args []string, i int) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("%w: missing account id", errUsage)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: account id: %v", errUsage, err)
	}
	return id, nil
}

func argAmount(args []string, i int) (money.Amount, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing amount", errUsage)
	}
	return money.Parse(args[i])
}
