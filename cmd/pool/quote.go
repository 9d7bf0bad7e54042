package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPool/internal/amm"
	"liquidityPool/internal/config"
)

// quoteResult is printed by the quote command.
type quoteResult struct {
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	ReserveIn    string `json:"reserve_in"`
	ReserveOut   string `json:"reserve_out"`
	Price        string `json:"price,omitempty"`
	PricePrecise string `json:"price_precise,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	result, err := quote(cfg)
	if err != nil {
		return err
	}
	logger.Debug("quote",
		zap.String("amount_in", result.AmountIn),
		zap.String("amount_out", result.AmountOut),
		zap.Bool("exact_out", cfg.ExactOut),
	)
	return printJSON(cmd.OutOrStdout(), result)
}

func quote(cfg config.QuoteConfig) (quoteResult, error) {
	amount, err := amm.ParseAmount(cfg.Amount)
	if err != nil {
		return quoteResult{}, fmt.Errorf("amount-in: %w", err)
	}
	reserveIn, err := amm.ParseAmount(cfg.ReserveIn)
	if err != nil {
		return quoteResult{}, fmt.Errorf("reserve-in: %w", err)
	}
	reserveOut, err := amm.ParseAmount(cfg.ReserveOut)
	if err != nil {
		return quoteResult{}, fmt.Errorf("reserve-out: %w", err)
	}

	result := quoteResult{ReserveIn: reserveIn.Dec(), ReserveOut: reserveOut.Dec()}
	if cfg.ExactOut {
		amountIn, err := amm.GetAmountIn(amount, reserveIn, reserveOut)
		if err != nil {
			return quoteResult{}, err
		}
		result.AmountIn, result.AmountOut = amountIn.Dec(), amount.Dec()
	} else {
		amountOut, err := amm.GetAmountOut(amount, reserveIn, reserveOut)
		if err != nil {
			return quoteResult{}, err
		}
		result.AmountIn, result.AmountOut = amount.Dec(), amountOut.Dec()
	}

	if cfg.Price {
		result.Price = amm.Price(reserveIn, reserveOut).Dec()
		result.PricePrecise = amm.FormatRat(amm.PriceRat(reserveIn, reserveOut), cfg.Precision)
	}
	return result, nil
}
