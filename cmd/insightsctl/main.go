package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/cmd/insightsctl/cmd"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
