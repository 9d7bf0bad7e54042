package config

import (
	"github.com/spf13/pflag"
)

// QuoteConfig holds the inputs of a stateless quote.
type QuoteConfig struct {
	Amount     string
	ReserveIn  string
	ReserveOut string
	ExactOut   bool
	Price      bool
	Precision  int
	LogLevel   string
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"precision": 18,
		"log-level": "warn",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Amount:     v.GetString("amount-in"),
		ReserveIn:  v.GetString("reserve-in"),
		ReserveOut: v.GetString("reserve-out"),
		ExactOut:   v.GetBool("exact-out"),
		Price:      v.GetBool("price"),
		Precision:  v.GetInt("precision"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
