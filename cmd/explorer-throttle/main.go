// explorer-throttle hammers an explorer API from many workers through one shared Governor and
// prints the governor's metrics once every worker is done. It is the quickest way to watch
// admission, backoff and caching against a real free-tier key.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	requestgovernor "github.com/opengovern/request-governor"
	"github.com/opengovern/request-governor/adapters"
)

func main() {
	var (
		workers    = pflag.Int("workers", 5, "number of concurrent workers")
		requests   = pflag.Int("requests", 10, "lookups per worker")
		addresses  = pflag.StringSlice("address", []string{"0x0000000000000000000000000000000000001004"}, "addresses to look up, cycled by the workers")
		configPath = pflag.String("config", "", "optional YAML governor config")
		baseURL    = pflag.String("base-url", adapters.BSCScanBaseURL, "explorer API base URL")
		debug      = pflag.Bool("debug", false, "log every admission decision")
	)
	pflag.Parse()

	logger := logrus.New()
	log := logger.WithField("component", "explorer-throttle")

	apiKey := os.Getenv("EXPLORER_API_KEY")
	if apiKey == "" {
		log.Warn("EXPLORER_API_KEY not set, using the anonymous rate limit")
	}

	cfg := requestgovernor.DefaultConfig()
	if *configPath != "" {
		loaded, err := requestgovernor.LoadConfig(*configPath)
		if err != nil {
			log.WithError(err).Fatal("Loading governor config")
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv("GOVERNOR"); err != nil {
		log.WithError(err).Fatal("Applying governor environment overrides")
	}

	gov, err := requestgovernor.New(cfg, requestgovernor.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("Creating governor")
	}
	gov.SetDebug(*debug)
	defer gov.Close()

	explorer := adapters.NewBSCScanAdapter(apiKey)
	explorer.BaseURL = *baseURL

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		workerID := w
		go func() {
			defer wg.Done()
			for attempt := 1; attempt <= *requests; attempt++ {
				if ctx.Err() != nil {
					return
				}
				// Introduce variability in timing
				time.Sleep(time.Duration(rand.IntN(200)) * time.Millisecond)

				address := (*addresses)[(workerID+attempt)%len(*addresses)]
				txs, err := explorer.TxList(ctx, gov, address)
				wlog := log.WithFields(logrus.Fields{"worker": workerID, "attempt": attempt, "address": address})
				if err != nil {
					wlog.WithError(err).Error("Lookup failed after retries")
					return
				}
				wlog.WithField("transactions", len(txs)).Info("Lookup finished")
			}
		}()
	}
	wg.Wait()

	out, err := json.MarshalIndent(gov.GetMetrics(), "", "  ")
	if err != nil {
		log.WithError(err).Fatal("Encoding metrics")
	}
	fmt.Println(string(out))
}
