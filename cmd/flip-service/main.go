package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/coinflip-platform-poc/internal/flip-service/flip"
	fhttp "github.com/radieske/coinflip-platform-poc/internal/flip-service/http"
	"github.com/radieske/coinflip-platform-poc/internal/flip-service/ledger"
	kpub "github.com/radieske/coinflip-platform-poc/internal/flip-service/producer"
	"github.com/radieske/coinflip-platform-poc/internal/flip-service/store"
	"github.com/radieske/coinflip-platform-poc/internal/shared/config"
	"github.com/radieske/coinflip-platform-poc/internal/shared/kafka"
	"github.com/radieske/coinflip-platform-poc/internal/shared/logger"
	"github.com/radieske/coinflip-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka writers: eventos do ciclo de vida e alertas de reconciliação
	eventsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFlipEvents)
	defer eventsWriter.Close()
	alertsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFlipAlerts)
	defer alertsWriter.Close()

	// deps
	lcli := ledger.New(cfg.WalletURL) // wallet-service
	snap := store.NewSnapshot(cfg.Flip.SnapshotPath)
	publ := kpub.NewKafkaPublisher(eventsWriter, alertsWriter)

	mgr := flip.NewManager(log, flip.Params{
		MaxPerPlayer: cfg.Flip.MaxPerPlayer,
		Timeout:      cfg.Flip.Timeout,
		Presentation: cfg.Flip.Presentation,
		FeePercent:   cfg.Flip.FeePercent,
		FeeOverrides: cfg.Flip.FeeOverrides,
		Aliases:      cfg.Flip.CurrencyAliases,
	}, lcli, snap, publ)

	// Recupera flips deixados por um processo anterior: viram reembolso
	// pendente, pago no próximo connect de cada jogador
	if err := mgr.Recover(); err != nil {
		log.Fatal("snapshot recover", zap.Error(err))
	}

	// Métricas Prometheus do ciclo de vida
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_created_total", Help: "flips criados"})
	joined := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_joined_total", Help: "flips com segundo participante"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_cancelled_total", Help: "flips cancelados pelo criador"})
	timedOut := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_timed_out_total", Help: "flips expirados sem participante"})
	resolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_resolved_total", Help: "flips resolvidos"})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_refunded_total", Help: "reembolsos pagos"})
	payoutFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_payout_failures_total", Help: "depósitos de pagamento que falharam"})
	prometheus.MustRegister(created, joined, cancelled, timedOut, resolved, refunded, payoutFail)

	mgr.OnCreated = func() { created.Inc() }
	mgr.OnJoined = func() { joined.Inc() }
	mgr.OnCancelled = func() { cancelled.Inc() }
	mgr.OnTimedOut = func() { timedOut.Inc() }
	mgr.OnResolved = func() { resolved.Inc() }
	mgr.OnRefunded = func() { refunded.Inc() }
	mgr.OnPayoutFailure = func() { payoutFail.Inc() }

	// HTTP público
	api := fhttp.NewServer(log, mgr)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })
	defer metricsSrv.Close()
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	go func() {
		log.Info("flip-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	// Shutdown ordenado: para de aceitar comandos, para os timers e
	// grava o snapshot final antes de sair
	<-ctx.Done()
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutCtx)

	mgr.Shutdown()
	log.Info("snapshot flushed, bye")
}
