// crm-sandbox serves the mock CRM backend over the real REST surface so the
// SDK (or the front-end) can be exercised without the Flask services.
// Latency and failure injection make it useful for testing the retry path.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajhb/crm_sdk_go/internal/devseed"
	"github.com/ajhb/crm_sdk_go/pkg/crm/mock"
)

const (
	cfgKeyAddr     = "addr"
	cfgKeyLatency  = "latency"
	cfgKeyFailRate = "fail_rate"
	cfgKeyFailCode = "fail_code"
)

var (
	flagConfig   string
	flagAddr     string
	flagSeed     string
	flagLatency  time.Duration
	flagFailRate float64
	flagFailCode int
)

var rootCmd = &cobra.Command{
	Use:   "crm-sandbox",
	Short: "Local mock CRM backend with latency and failure injection",
	Long: `crm-sandbox serves an in-memory CRM backend on the same REST surface as the
real Flask services (/api/{table}, /api/stats/dashboard, /api/health).

Example:
  crm-sandbox --seed testdata/clientes.yaml
  crm-sandbox --fail-rate 0.5 --fail-code 503 --latency 200ms`,
	RunE: runServe,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "optional config file (yaml)")
	rootCmd.Flags().StringVar(&flagAddr, "addr", ":5000", "listen address")
	rootCmd.Flags().StringVar(&flagSeed, "seed", "", "path to YAML/JSON seed for the mock tables")
	rootCmd.Flags().DurationVar(&flagLatency, "latency", 0, "artificial latency to inject per request")
	rootCmd.Flags().Float64Var(&flagFailRate, "fail-rate", 0, "probability [0,1] of injecting a failure response")
	rootCmd.Flags().IntVar(&flagFailCode, "fail-code", 503, "HTTP status used for injected failures")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := mock.New()
	if flagSeed != "" {
		tables, err := devseed.LoadTables(flagSeed)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		if err := store.Seed(tables); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	srv := newServer(store, serverConfig{
		latency:  cfg.GetDuration(cfgKeyLatency),
		failRate: cfg.GetFloat64(cfgKeyFailRate),
		failCode: cfg.GetInt(cfgKeyFailCode),
	})

	addr := cfg.GetString(cfgKeyAddr)
	fmt.Printf("crm-sandbox listening on %s\n", addr)
	fmt.Println()
	fmt.Println("export CRM_RUNTIME_MODE=http")
	fmt.Printf("export CRM_API_URL=http://%s\n", hostFor(addr))
	fmt.Println()

	return srv.listenAndServe(addr)
}

// loadConfig merges the optional config file under the command-line flags.
// Flags win; the file supplies defaults for anything left unset.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyAddr, ":5000")
	v.SetDefault(cfgKeyLatency, time.Duration(0))
	v.SetDefault(cfgKeyFailRate, 0.0)
	v.SetDefault(cfgKeyFailCode, 503)

	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", flagConfig, err)
		}
	}

	if cmd.Flags().Changed("addr") {
		v.Set(cfgKeyAddr, flagAddr)
	}
	if cmd.Flags().Changed("latency") {
		v.Set(cfgKeyLatency, flagLatency)
	}
	if cmd.Flags().Changed("fail-rate") {
		v.Set(cfgKeyFailRate, flagFailRate)
	}
	if cmd.Flags().Changed("fail-code") {
		v.Set(cfgKeyFailCode, flagFailCode)
	}
	return v, nil
}

func hostFor(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
