package commands

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/bankfeed-dev/bankfeed/internal/banking"
	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/firefly"
	"github.com/bankfeed-dev/bankfeed/internal/iban"
)

// promptTAN shows the bank's challenge text and asks for the one-time code.
// Numeric validation happens in the statement source.
func promptTAN(prompt string) (string, error) {
	color.New(color.FgBlue).Println(prompt)
	var code string
	err := survey.AskOne(&survey.Input{Message: "One-time code (TAN):"}, &code, survey.WithValidator(survey.Required))
	return code, err
}

// pickAccount lets the operator choose between the session's accounts when
// no configured IBAN narrows the list down.
func pickAccount(accounts []banking.Account) (int, error) {
	options := make([]string, len(accounts))
	for i, a := range accounts {
		options[i] = iban.Format(a.IBAN)
	}
	var idx int
	err := survey.AskOne(&survey.Select{Message: "Select a bank account:", Options: options}, &idx)
	return idx, err
}

// consoleEvents renders the per-account header, asks for confirmation and
// drives the progress bar during submission.
type consoleEvents struct {
	interactive bool
	bar         *progressbar.ProgressBar
}

func (e *consoleEvents) AccountResolved(profile config.Account, account firefly.Account) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Println(bold("         Config: ") + profile.Name)
	fmt.Println(bold("           IBAN: ") + iban.Format(profile.BankIBAN))
	fmt.Println(bold(" Ledger account: ") + fmt.Sprintf("%s (%d)", account.Name, account.ID))
	fmt.Println(bold("  Ledger server: ") + profile.FireflyURL)
}

func (e *consoleEvents) Confirm(count int, first, last time.Time) (bool, error) {
	fmt.Printf("found %d transactions (%s - %s)\n",
		count, first.Format(dateFormat), last.Format(dateFormat))

	ok := true
	if e.interactive {
		if err := survey.AskOne(&survey.Confirm{Message: "Execute import?", Default: true}, &ok); err != nil {
			return false, err
		}
	}
	if ok {
		e.bar = progressbar.Default(int64(count), "importing")
	}
	return ok, nil
}

func (e *consoleEvents) Submitted(done, total int) {
	if e.bar != nil {
		_ = e.bar.Add(1)
	}
}
