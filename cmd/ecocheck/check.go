package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/report"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

var (
	fromFile      bool
	waitForPage   bool
	jsonOutput    bool
	showBreakdown bool
	textOnly      bool
)

// addFetchFlags registers the flags shared by commands that read a page.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&fromFile, "file", false, "treat the argument as a saved HTML file")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page fetcher: http, browser, file")
	cmd.Flags().BoolVar(&waitForPage, "wait", false, "watch the rendered page until product content appears (browser fetcher)")
}

// checkCmd creates the "check" subcommand.
func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url]",
		Short: "Scrape a product page and analyze it",
		Long:  "Fetch the page, extract the product signals, send them to the LLM and print the environmental rating.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	addFetchFlags(cmd)
	cmd.Flags().BoolVarP(&showBreakdown, "breakdown", "b", false, "show the detailed breakdown")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full report as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := resolveTarget(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signalContext(a.logger)
	defer stop()

	a.logger.Info("starting check",
		"url", target,
		"fetcher", a.fetcher.Type(),
		"provider", a.cfg.AI.Provider,
		"storage", a.store.Name(),
	)

	rep, err := a.checker.Check(ctx, target)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, rep)
	}

	fmt.Fprintf(out, "\n🌿 %s\n", rep.URL)
	if !rep.ProductPage {
		fmt.Fprintln(out, "   ⚠️  This does not look like a product page")
	}
	if rep.Challenge != "" {
		fmt.Fprintf(out, "   ⚠️  Bot challenge on page: %s\n", rep.Challenge)
	}
	if err := report.RenderText(out, rep.Analysis, showBreakdown); err != nil {
		return err
	}
	if !rep.Saved {
		fmt.Fprintln(out, "\n   (result was not saved)")
	}
	fmt.Fprintf(out, "\n⏱️  %s\n", rep.Duration.Round(time.Millisecond))
	return nil
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Extract product signals without analysis",
		Long:  "Fetch the page and print the extracted product record and the cleaned text that would be sent for analysis.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScrape,
	}
	addFetchFlags(cmd)
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the cleaned text")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := resolveTarget(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signalContext(a.logger)
	defer stop()

	insp, err := a.checker.Inspect(ctx, target)
	if err != nil {
		return userError(err)
	}
	if textOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), insp.Scrape.CleanedText)
		return err
	}
	return writeJSON(cmd.OutOrStdout(), insp)
}

// detectCmd creates the "detect" subcommand.
func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [url]",
		Short: "Report whether a page looks like a product page",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect,
	}
	addFetchFlags(cmd)
	return cmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := resolveTarget(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signalContext(a.logger)
	defer stop()

	insp, err := a.checker.Inspect(ctx, target)
	if insp == nil || (err != nil && !errors.Is(err, types.ErrNoProductInfo)) {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if insp.ProductPage {
		fmt.Fprintf(out, "✅ product page (matched %q)\n", insp.Matched)
	} else {
		fmt.Fprintln(out, "❌ not a product page")
	}
	if insp.Challenge != "" {
		fmt.Fprintf(out, "⚠️  bot challenge: %s\n", insp.Challenge)
	}
	return nil
}

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze product text directly",
		Long:  "Send product text to the LLM. The text is taken from the arguments, or from stdin when none are given.",
		RunE:  runAnalyze,
	}
	cmd.Flags().BoolVarP(&showBreakdown, "breakdown", "b", false, "show the detailed breakdown")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext(a.logger)
	defer stop()

	result, err := a.checker.Analyze(ctx, text)
	if err != nil {
		return userError(err)
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return report.RenderText(cmd.OutOrStdout(), result, showBreakdown)
}

// resolveTarget checks the target unless it names a local file.
func resolveTarget(target string) (string, error) {
	if fromFile {
		return target, nil
	}
	if err := config.ValidateURL(target); err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	return target, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// userError turns err into the message shown to the user.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(types.UserMessage(err))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
