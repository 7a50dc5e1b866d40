package main

import (
	"fmt"
	"os"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/authutil"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/logging"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type options struct {
	Operator string        `long:"operator" description:"Operator id recorded in the ledger journal" required:"true"`
	TTL      time.Duration `long:"ttl" description:"Token lifetime" default:"24h"`
}

// token prints an operator JWT for the admin endpoints of the api.
func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	config.SetupCommon()
	viper.MustBindEnv("api_jwt_secret")
	logging.Init()

	cfg := config.New()
	token, err := authutil.IssueOperatorToken(cfg.APIJWTSecret, opts.Operator, opts.TTL)
	if err != nil {
		logrus.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
