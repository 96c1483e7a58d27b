// cmd/tools/catalog-inspect/main.go
//
// Operational helper for the model pricing catalog: look up what a turn
// on a given model would cost without running the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"interview-agent/internal/catalog"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/usage"
)

func main() {
	lookupCmd := flag.NewFlagSet("lookup", flag.ExitOnError)
	lookupURL := lookupCmd.String("url", "https://models.dev/api.json", "Catalog URL")
	lookupModel := lookupCmd.String("model", "", "Model id (e.g. deepseek-chat or deepseek/deepseek-chat)")

	estimateCmd := flag.NewFlagSet("estimate", flag.ExitOnError)
	estimateURL := estimateCmd.String("url", "https://models.dev/api.json", "Catalog URL")
	estimateModel := estimateCmd.String("model", "", "Model id")
	inputTokens := estimateCmd.Int("input", 0, "Input tokens")
	outputTokens := estimateCmd.Int("output", 0, "Output tokens")
	reasoningTokens := estimateCmd.Int("reasoning", 0, "Reasoning tokens")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	log := logger.NewNoOpLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "lookup":
		lookupCmd.Parse(os.Args[2:])
		if *lookupModel == "" {
			fmt.Println("Error: -model is required for lookup.")
			lookupCmd.Usage()
			os.Exit(1)
		}
		client := catalog.NewClient(*lookupURL, 10*time.Second, time.Hour, log)
		cost, ok := client.Lookup(ctx, *lookupModel)
		if !ok {
			fmt.Printf("Model %q not found in catalog.\n", *lookupModel)
			os.Exit(1)
		}
		fmt.Printf("Model:     %s\n", *lookupModel)
		fmt.Printf("Input:     $%.4f / MTok\n", cost.InputPerMTok)
		fmt.Printf("Output:    $%.4f / MTok\n", cost.OutputPerMTok)
		if cost.ReasoningPerMTok > 0 {
			fmt.Printf("Reasoning: $%.4f / MTok\n", cost.ReasoningPerMTok)
		}

	case "estimate":
		estimateCmd.Parse(os.Args[2:])
		if *estimateModel == "" {
			fmt.Println("Error: -model is required for estimate.")
			estimateCmd.Usage()
			os.Exit(1)
		}
		client := catalog.NewClient(*estimateURL, 10*time.Second, time.Hour, log)
		normalizer := usage.NewNormalizer(client, log)
		summary := normalizer.Normalize(ctx, usage.Raw{
			InputTokens:     *inputTokens,
			OutputTokens:    *outputTokens,
			ReasoningTokens: *reasoningTokens,
			TotalTokens:     *inputTokens + *outputTokens + *reasoningTokens,
		}, *estimateModel)
		if !summary.Enriched {
			fmt.Printf("Model %q not found in catalog; no cost estimate possible.\n", *estimateModel)
			os.Exit(1)
		}
		fmt.Printf("Input cost:  $%.6f\n", summary.InputCostUSD)
		fmt.Printf("Output cost: $%.6f\n", summary.OutputCostUSD)
		fmt.Printf("Total cost:  $%.6f\n", summary.TotalCostUSD)

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: catalog-inspect <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  lookup    Show per-MTok pricing for a model")
	fmt.Println("  estimate  Estimate the USD cost of a turn's token usage")
}
