package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mailtriage/internal/service"
)

const (
	sampleSender  = "customer@example.com"
	sampleSubject = "Issue with my recent order"
	sampleContent = "Hi, I ordered a product last week but it hasn't arrived yet. " +
		"The tracking shows it's been stuck in transit for 3 days. " +
		"Can you help me figure out what's going on? " +
		"This is really frustrating as I needed this for an important meeting."
)

var (
	processSender  string
	processSubject string
	processContent string
	processFile    string
	processOutput  string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Triage a single email and print the result",
	Long: `Run one email through the triage pipeline: urgency, query type, department,
drafted response and follow-up decision.

Without --sender/--subject/--content/--file a built-in sample email is used.
--file reads the body from a file, or from stdin when set to "-".`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processSender, "sender", "", "Sender address")
	processCmd.Flags().StringVar(&processSubject, "subject", "", "Subject line")
	processCmd.Flags().StringVar(&processContent, "content", "", "Email body")
	processCmd.Flags().StringVar(&processFile, "file", "", "Read the email body from a file (\"-\" for stdin)")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "text", "Output format: text or json")
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if processOutput != "text" && processOutput != "json" {
		return fmt.Errorf("invalid --output %q: must be text or json", processOutput)
	}

	sender, subject, content, err := processInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return err
	}
	defer a.Close()

	result, err := a.triage.TriageMessage(ctx, sender, subject, content, time.Now())
	if err != nil {
		logger.Error("Failed to triage email", zap.Error(err))
		return err
	}

	if processOutput == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

// processInput resolves the email fields from flags, falling back to the
// sample email when none are given.
func processInput(stdin io.Reader) (sender, subject, content string, err error) {
	if processSender == "" && processSubject == "" && processContent == "" && processFile == "" {
		return sampleSender, sampleSubject, sampleContent, nil
	}

	content = processContent
	if processFile != "" {
		var data []byte
		if processFile == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(processFile)
		}
		if err != nil {
			return "", "", "", fmt.Errorf("failed to read email body: %w", err)
		}
		content = string(data)
	}
	return processSender, processSubject, content, nil
}

func printResult(w io.Writer, result *service.TriageResult) {
	email := result.Email
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "EMAIL PROCESSING RESULTS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "From: %s\n", email.Sender)
	fmt.Fprintf(w, "Subject: %s\n", email.Subject)
	fmt.Fprintf(w, "Classification: %s\n", email.UrgencyValue())
	fmt.Fprintf(w, "Query Type: %s\n", email.QueryTypeValue())
	fmt.Fprintf(w, "Department: %s\n", email.DepartmentValue())
	fmt.Fprintf(w, "Needs Follow-up: %t\n", email.NeedsFollowup)
	fmt.Fprintln(w, "\nGenerated Response:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintln(w, email.ResponseValue())

	if fallbacks := result.Trace.Fallbacks(); len(fallbacks) > 0 {
		fmt.Fprintln(w, "\nFallbacks:")
		for _, o := range fallbacks {
			fmt.Fprintf(w, "  %s: %s (%s)\n", o.Step, o.Value, o.Reason)
		}
	}
	fmt.Fprintln(w, rule)
}
