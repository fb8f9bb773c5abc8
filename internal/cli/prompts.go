package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/MomentumGo/consts"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

const (
	modeStep    = "Single step (one model call)"
	modeAnalyze = "Full analysis (run tools until the report is written)"
)

func validateTicker(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("invalid ticker input")
	}
	str = strings.TrimSpace(strings.ToUpper(str))
	if len(str) == 0 {
		return fmt.Errorf("ticker symbol cannot be empty")
	}
	if len(str) > 10 {
		return fmt.Errorf("ticker symbol too long (max 10 characters)")
	}
	if !tickerPattern.MatchString(str) {
		return fmt.Errorf("invalid ticker format (use letters, numbers, dots, and hyphens only)")
	}
	return nil
}

// analysisDateValidator accepts empty input (today) and dates between five
// years ago and tomorrow.
func analysisDateValidator(now time.Time) survey.Validator {
	return func(val interface{}) error {
		str, _ := val.(string)
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		parsedDate, err := time.Parse(consts.DateLayout, str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsedDate.After(now.AddDate(0, 0, 1)) {
			return fmt.Errorf("analysis date cannot be more than 1 day in the future")
		}
		if parsedDate.Before(now.AddDate(-5, 0, 0)) {
			return fmt.Errorf("analysis date cannot be more than 5 years in the past")
		}
		return nil
	}
}

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "Please enter a valid stock ticker symbol for momentum analysis",
	}
	if err := survey.AskOne(prompt, &ticker, survey.WithValidator(validateTicker)); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAnalysisDate returns the chosen date as YYYY-MM-DD.
func PromptForAnalysisDate() (string, error) {
	now := time.Now()
	var dateStr string
	prompt := &survey.Input{
		Message: "Enter the analysis date (YYYY-MM-DD) or press Enter for today:",
		Help:    "Format: YYYY-MM-DD (e.g., 2024-01-15). Leave empty for today's date.",
		Default: now.Format(consts.DateLayout),
	}
	if err := survey.AskOne(prompt, &dateStr, survey.WithValidator(analysisDateValidator(now))); err != nil {
		return "", err
	}
	if strings.TrimSpace(dateStr) == "" {
		return now.Format(consts.DateLayout), nil
	}
	return strings.TrimSpace(dateStr), nil
}

// PromptForMode asks whether to run one step or the full tool loop. The full
// loop is only offered when a data service is configured.
func PromptForMode(canAnalyze bool) (string, error) {
	if !canAnalyze {
		return modeStep, nil
	}
	var choice string
	prompt := &survey.Select{
		Message: "How should the momentum analyst run?",
		Options: []string{modeStep, modeAnalyze},
		Default: modeAnalyze,
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}

func PromptForSave() (bool, error) {
	var save bool
	prompt := &survey.Confirm{
		Message: "Save the report to the results directory?",
		Default: false,
	}
	err := survey.AskOne(prompt, &save)
	return save, err
}

// PromptForRestartOrExit prompts user when analysis completes
func PromptForRestartOrExit() (bool, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Analysis completed! What would you like to do next?",
		Options: []string{
			"Start a new analysis",
			"Exit MomentumGo",
		},
		Default: "Exit MomentumGo",
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return false, err
	}
	return choice == "Start a new analysis", nil
}
