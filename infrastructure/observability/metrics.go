package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"helios/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// counterSpecs lists every counter the bot reports
var counterSpecs = map[string]string{
	MessagesReadTotal:         "Discord messages and interactions read",
	LedgerTransactionsTotal:   "Ledger entries written",
	EffectsAppliedTotal:       "Effects applied",
	EffectsRemovedTotal:       "Effects removed",
	VoiceChannelsCreatedTotal: "Dynamic voice channels created",
	VoiceChannelsDeletedTotal: "Dynamic voice channels deleted",
	SchedulerSlotsFiredTotal:  "Scheduler slots started",
	BlackjackGamesTotal:       "Blackjack games finished",
}

// MetricsProvider reports bot activity through OpenTelemetry. A provider
// that is nil, disabled or not yet initialized drops every record.
type MetricsProvider struct {
	config *config.Config

	mu            sync.RWMutex
	meterProvider *sdkmetric.MeterProvider
	counters      map[string]metric.Int64Counter
	activeEffects metric.Int64UpDownCounter
}

// NewMetricsProvider creates a provider; call Initialize before recording
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize builds the exporter named by the config and registers the
// instruments. Disabled metrics and the "none" exporter leave it a no-op.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	exporter, err := newExporter(ctx, mp.config)
	if err != nil || exporter == nil {
		return err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(mp.config.OTelServiceName),
		attribute.String("environment", mp.config.Environment),
	))
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	if err := mp.register(provider); err != nil {
		return err
	}
	log.WithField("exporter", mp.config.OTelExporterType).Info("Metrics provider initialized")
	return nil
}

// InitializeWithReader registers the instruments against reader, for tests
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	return mp.register(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
}

func newExporter(ctx context.Context, cfg *config.Config) (sdkmetric.Exporter, error) {
	switch cfg.OTelExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		return exporter, nil
	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", cfg.OTelOTLPEndpoint, err)
		}
		return exporter, nil
	case "none":
		log.Info("Metrics export disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.OTelExporterType)
	}
}

func (mp *MetricsProvider) register(provider *sdkmetric.MeterProvider) error {
	meter := provider.Meter(MetricPrefix)

	counters := make(map[string]metric.Int64Counter, len(counterSpecs))
	for name, description := range counterSpecs {
		counter, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("1"))
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		counters[name] = counter
	}
	active, err := meter.Int64UpDownCounter(EffectsActive,
		metric.WithDescription("Effects currently live"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s gauge: %w", EffectsActive, err)
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.meterProvider = provider
	mp.counters = counters
	mp.activeEffects = active
	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.RLock()
	provider := mp.meterProvider
	mp.mu.RUnlock()
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// add increments a counter; it is a no-op until register has run
func (mp *MetricsProvider) add(name string, n int64, attrs ...attribute.KeyValue) {
	if mp == nil || n == 0 {
		return
	}
	mp.mu.RLock()
	counter, ok := mp.counters[name]
	mp.mu.RUnlock()
	if ok {
		counter.Add(context.Background(), n, metric.WithAttributes(attrs...))
	}
}

func (mp *MetricsProvider) addActive(kind string, n int64) {
	if mp == nil {
		return
	}
	mp.mu.RLock()
	active := mp.activeEffects
	mp.mu.RUnlock()
	if active != nil {
		active.Add(context.Background(), n, metric.WithAttributes(attribute.String(LabelKind, kind)))
	}
}

// RecordMessageRead counts a Discord message or interaction
func (mp *MetricsProvider) RecordMessageRead(messageType string) {
	mp.add(MessagesReadTotal, 1, attribute.String(LabelType, messageType))
}

// RecordLedgerTransaction counts one ledger entry
func (mp *MetricsProvider) RecordLedgerTransaction(transactionType string) {
	mp.add(LedgerTransactionsTotal, 1, attribute.String(LabelType, transactionType))
}

// RecordEffectApplied counts an effect starting
func (mp *MetricsProvider) RecordEffectApplied(kind string) {
	mp.add(EffectsAppliedTotal, 1, attribute.String(LabelKind, kind))
	mp.addActive(kind, 1)
}

// RecordEffectRemoved counts an effect ending
func (mp *MetricsProvider) RecordEffectRemoved(kind string) {
	mp.add(EffectsRemovedTotal, 1, attribute.String(LabelKind, kind))
	mp.addActive(kind, -1)
}

// RecordVoiceReshape counts the channels one shape pass created and deleted
func (mp *MetricsProvider) RecordVoiceReshape(created, deleted int) {
	mp.add(VoiceChannelsCreatedTotal, int64(created))
	mp.add(VoiceChannelsDeletedTotal, int64(deleted))
}

// RecordSlotFired counts a scheduler slot starting
func (mp *MetricsProvider) RecordSlotFired(slotType string) {
	mp.add(SchedulerSlotsFiredTotal, 1, attribute.String(LabelType, slotType))
}

// RecordBlackjackGame counts a finished game
func (mp *MetricsProvider) RecordBlackjackGame(outcome string) {
	mp.add(BlackjackGamesTotal, 1, attribute.String(LabelOutcome, outcome))
}

var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics sets up the process-wide provider once
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the process-wide provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics flushes the process-wide provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
