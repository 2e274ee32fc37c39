package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/civixvote/console/apiclient"
	"github.com/civixvote/console/log"
	"github.com/civixvote/console/metrics"
)

var (
	apiURL      string
	authToken   string
	debug       bool
	metricsAddr string

	metricsAgent *metrics.Agent
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&apiURL, "url", "u", "https://api.civix.vote/v1", "election platform API URL")
	RootCmd.PersistentFlags().StringVarP(&authToken, "token", "t", "", "bearer token of the voter/admin session")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "prints additional information")
	RootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics", "", "expose prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	viper.BindPFlag("url", RootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("token", RootCmd.PersistentFlags().Lookup("token"))
	viper.SetEnvPrefix("concli")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	RootCmd.AddCommand(electionsCmd)
	RootCmd.AddCommand(voteCmd)
	RootCmd.AddCommand(resultsCmd)
	electionsCmd.AddCommand(electionsListCmd)
	electionsCmd.AddCommand(electionsInfoCmd)
	electionsCmd.AddCommand(electionsActivateCmd)
	electionsCmd.AddCommand(electionsDeactivateCmd)
	electionsCmd.AddCommand(electionsDeployCmd)
	electionsCmd.AddCommand(electionsDeleteCmd)
}

// RootCmd is the concli entry point.
var RootCmd = &cobra.Command{
	Use:   "concli",
	Short: "concli is the command line console for the Civix election platform",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.Init("debug", "stderr")
		} else {
			log.Init("error", "stderr")
		}
		if metricsAddr != "" {
			metricsAgent = metrics.NewAgent("/metrics", metricsAddr)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsAgent != nil {
			metricsAgent.Close()
		}
	},
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds the API client from the persistent flags and their viper
// env/config overrides.
func newClient() (*apiclient.HTTPclient, error) {
	addr, err := url.Parse(viper.GetString("url"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	var token *uuid.UUID
	if s := viper.GetString("token"); s != "" {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bearer token: %w", err)
		}
		token = &u
	}
	return apiclient.New(addr, token)
}
