package ui

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
)

// PromptInput asks for a free-form value with a default
func PromptInput(message, def string) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return value, nil
}

// PromptInt asks for a positive integer
func PromptInt(message string, def int) (int, error) {
	var raw string
	prompt := &survey.Input{
		Message: message,
		Default: strconv.Itoa(def),
	}

	if err := survey.AskOne(prompt, &raw, survey.WithValidator(positiveInt)); err != nil {
		return 0, err
	}

	return strconv.Atoi(raw)
}

// positiveInt is a survey validator for PromptInt
func positiveInt(ans interface{}) error {
	s, _ := ans.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

// PromptSelect asks the user to pick one of options
func PromptSelect(message string, options []string, def string) (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: def,
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}

	return choice, nil
}

// PromptYesNo asks a yes/no question
func PromptYesNo(message string, def bool) (bool, error) {
	answer := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}

	return answer, nil
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("! %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}

// ShowSection prints a bold section header
func ShowSection(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n%s\n", title)
}
