package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentinel/internal/config"
	"sentinel/internal/detect"
	"sentinel/internal/exchange"
	"sentinel/internal/gate"
	"sentinel/internal/journal"
	"sentinel/internal/metrics"
	"sentinel/internal/notify"
	"sentinel/internal/scanner"
	"sentinel/internal/universe"
)

func main() {
	cfg := config.Load()

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	srv := metrics.NewServer(cfg.HTTPAddr)
	srv.Start()

	var jrnl *journal.Journal
	if cfg.DatabaseURL != "" {
		jrnl, err = journal.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("journal unavailable, alerts will not be persisted")
			jrnl = nil
		} else {
			defer jrnl.Close()
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set, alert journal disabled")
	}

	notifier := notify.FromCredentials(cfg.TelegramToken, cfg.TelegramChatID)
	market := exchange.New("", cfg.RequestTimeout)
	filter := &universe.Filter{
		QuoteAsset:     cfg.QuoteAsset,
		MinQuoteVolume: cfg.MinQuoteVolume,
		JunkSubstrings: cfg.JunkSubstrings,
	}

	// Candle loop: drop-base-turn bottoms, oversold flushes and trend
	// confluence. The trend detector needs the book, so DepthLimit stays on.
	marketScanner := scanner.New(
		scanner.Options{
			Name:          "market",
			Interval:      cfg.Interval,
			KlineLimit:    cfg.KlineLimit,
			DepthLimit:    cfg.DepthLimit,
			ScanEvery:     cfg.ScanInterval,
			UniverseRetry: cfg.UniverseRetry,
		},
		market, notifier, gate.New(cfg.Cooldown),
		[]detect.Detector{
			detect.NewBottom(detect.BottomConfig{
				DropLookback:        cfg.DropLookback,
				DropMinPct:          cfg.DropMinPct,
				SidewaysLookback:    cfg.SidewaysLookback,
				SidewaysMaxRangePct: cfg.SidewaysMaxRangePct,
				TurnMinGreen:        cfg.TurnMinGreen,
				VolMAWindow:         cfg.VolMAWindow,
				VolMinFactor:        cfg.VolMinFactor,
			}),
			detect.NewOversold(detect.OversoldConfig{
				RSIPeriod: cfg.RSIPeriod,
				RSIMax:    cfg.RSIMax,
				BBPeriod:  cfg.BBPeriod,
				BBStdDev:  cfg.BBStdDev,
			}),
			detect.NewTrend(trendConfig(cfg)),
		},
		filter, jrnl, m,
	)

	// Book loop: liquidity clusters only, on a faster cadence with its own
	// cooldown gate.
	heatmapScanner := scanner.New(
		scanner.Options{
			Name:          "heatmap",
			Interval:      cfg.Interval,
			KlineLimit:    2, // clusters only need a price reference
			DepthLimit:    cfg.ClusterDepthLevels,
			ScanEvery:     cfg.HeatmapInterval,
			UniverseRetry: cfg.UniverseRetry,
		},
		market, notifier, gate.New(cfg.HeatmapCooldown),
		[]detect.Detector{
			detect.NewCluster(detect.ClusterConfig{
				DepthLevels:    cfg.ClusterDepthLevels,
				MaxDistancePct: cfg.ClusterMaxDistancePct,
				MinNotional:    cfg.ClusterMinNotional,
				DominanceRatio: cfg.ClusterDominanceRatio,
				DoubleConfirm:  cfg.ClusterDoubleConfirm,
			}),
		},
		filter, jrnl, m,
	)

	loops := []*scanner.Scanner{marketScanner, heatmapScanner}

	// Higher-timeframe oversold loops: one scanner per timeframe, each with
	// its own RSI cutoff and cooldown gate.
	timeframes := []struct {
		interval string
		rsiMax   float64
		cooldown time.Duration
	}{
		{"1h", cfg.RSIMax1h, cfg.Cooldown1h},
		{"4h", cfg.RSIMax4h, cfg.Cooldown4h},
		{"1d", cfg.RSIMax1d, cfg.Cooldown1d},
	}
	for _, tf := range timeframes {
		loops = append(loops, scanner.New(
			scanner.Options{
				Name:          "oversold-" + tf.interval,
				Interval:      tf.interval,
				KlineLimit:    cfg.OversoldKlineLimit,
				ScanEvery:     cfg.ScanInterval,
				UniverseRetry: cfg.UniverseRetry,
			},
			market, notifier, gate.New(tf.cooldown),
			[]detect.Detector{
				detect.NewOversold(detect.OversoldConfig{
					RSIPeriod: cfg.RSIPeriod,
					RSIMax:    tf.rsiMax,
					BBPeriod:  cfg.BBPeriod,
					BBStdDev:  cfg.BBStdDev,
				}),
			},
			filter, jrnl, m,
		))
	}

	log.Info().
		Str("quote", cfg.QuoteAsset).
		Int("loops", len(loops)).
		Dur("scan_interval", cfg.ScanInterval).
		Dur("heatmap_interval", cfg.HeatmapInterval).
		Msg("sentinel starting")

	var wg sync.WaitGroup
	for _, s := range loops {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Run(ctx)
		}()
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)
	log.Info().Msg("sentinel stopped")
}

func trendConfig(cfg *config.Config) detect.TrendConfig {
	tc := detect.DefaultTrendConfig()
	tc.RSIPeriod = cfg.RSIPeriod
	tc.MinScore = cfg.TrendMinScore
	tc.BookRatioMin = cfg.TrendBookRatioMin
	return tc
}
