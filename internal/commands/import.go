package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/banking"
	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/firefly"
	"github.com/bankfeed-dev/bankfeed/internal/importer"
	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/ofx"
)

type importOptions struct {
	configPath string
	iban       string
	all        bool
	months     int
	startDate  string
	endDate    string
	file       string
	yes        bool
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank transactions into the configured ledger accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "account config file (YAML)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&opts.iban, "iban", "", "import a single configured account by IBAN")
	cmd.Flags().BoolVar(&opts.all, "all", false, "import every configured account")
	cmd.Flags().IntVar(&opts.months, "months", 0, fmt.Sprintf("number of past months to fetch (default %d)", defaultMonths))
	cmd.Flags().StringVar(&opts.startDate, "start-date", "", "fetch from this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.endDate, "end-date", "", "fetch up to this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.file, "file", "", "import from an OFX statement file instead of the bank")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "run non-interactively, skipping all prompts")
	cmd.MarkFlagsMutuallyExclusive("iban", "all")
	cmd.MarkFlagsOneRequired("iban", "all")

	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	if opts.all && opts.file != "" {
		return errors.New("--file imports into a single account, select it with --iban")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	from, to, err := dateWindow(time.Now(), opts.months, opts.startDate, opts.endDate)
	if err != nil {
		return err
	}

	profiles := cfg.Accounts
	if !opts.all {
		p, err := cfg.ForIBAN(opts.iban)
		if err != nil {
			return err
		}
		profiles = []config.Account{p}
	}

	runner := &importer.Runner{
		NewLedger: func(p config.Account) importer.Ledger {
			return firefly.New(p.FireflyURL, p.FireflyToken)
		},
		Fetch:  newFetcher(opts),
		Events: &consoleEvents{interactive: !opts.yes},
	}

	return report(runner.RunAll(ctx, profiles, from, to))
}

// newFetcher wires the statement source for either acquisition path.
func newFetcher(opts importOptions) importer.Fetcher {
	return func(ctx context.Context, profile config.Account, from, to time.Time) ([]model.Transaction, error) {
		source := &banking.Source{Decoder: ofx.Decoder{}}
		if !opts.yes {
			source.PromptCode = promptTAN
			source.PickAccount = pickAccount
		}

		if opts.file != "" {
			fmt.Printf("loading transactions from %s\n", opts.file)
			return source.FromFile(opts.file)
		}

		fmt.Printf("fetching transactions from bank (%s)\n", profile.BankCode)
		session := ofx.Dial(ofx.DialConfig{
			URL:      profile.BankURL,
			Org:      profile.BankOrg,
			FID:      profile.BankFID,
			BankID:   profile.BankCode,
			UserID:   profile.BankUsername,
			Password: profile.BankPassword,
		})
		return source.Fetch(ctx, session, profile.BankIBAN, from, to)
	}
}

// report prints one line per account and decides the process outcome. An
// operator abort is not a failure.
func report(results []importer.AccountResult) error {
	bold := color.New(color.Bold).SprintFunc()
	failed := 0
	for _, r := range results {
		switch {
		case errors.Is(r.Err, importer.ErrAborted):
			color.Blue("import aborted")
		case r.Err != nil:
			failed++
			color.New(color.FgRed, color.Bold).Printf("%s: ", r.Profile.Name)
			fmt.Println(r.Err)
			var ledgerErr *firefly.LedgerError
			if errors.As(r.Err, &ledgerErr) && ledgerErr.Tx != nil {
				if dump, err := json.MarshalIndent(ledgerErr.Tx, "", "  "); err == nil {
					fmt.Println(string(dump))
				}
			}
		case r.Result.Total == 0:
			fmt.Printf("%s: no transactions found\n", r.Profile.Name)
		default:
			fmt.Println(bold(r.Profile.Name+": ") +
				fmt.Sprintf("%d new, %d duplicated", r.Result.New, r.Result.Duplicate))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d accounts failed", failed, len(results))
	}
	return nil
}
