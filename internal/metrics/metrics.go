package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the interface services use to record application metrics.
// Implementations are Metrics (Prometheus-based) and NoopMetrics.
type Recorder interface {
	// Authorization flow
	RecordLogin(provider string, success bool)
	RecordAuthorizationCodeIssued()

	// Token endpoint
	RecordTokenExchange(result string, duration time.Duration)
	RecordTokenVerification(mode, result string)

	// Origin policy
	RecordOriginDecision(allowed bool)
	RecordOriginSnapshotRebuild(size int)

	// Gauge setters (periodic updates)
	SetActiveAccessTokens(count int)
	SetActiveClients(count int)
	SetActiveUsers(count int)

	// Database operations
	RecordStoreQueryError(operation string)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authorization Flow Metrics
	LoginAttemptsTotal            *prometheus.CounterVec
	AuthorizationCodesIssuedTotal prometheus.Counter

	// Token Metrics
	TokenExchangesTotal     *prometheus.CounterVec
	TokenExchangeDuration   prometheus.Histogram
	TokenVerificationsTotal *prometheus.CounterVec
	AccessTokensActive      prometheus.Gauge

	// Origin Policy Metrics
	OriginDecisionsTotal        *prometheus.CounterVec
	OriginSnapshotRebuildsTotal prometheus.Counter
	OriginsAllowed              prometheus.Gauge

	// Registry Gauges
	ClientsActive prometheus.Gauge
	UsersActive   prometheus.Gauge

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	StoreQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		// Authorization Flow Metrics
		LoginAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_login_attempts_total",
				Help: "Total number of credential submissions on the authorize page",
			},
			[]string{
				"provider",
				"result",
			}, // provider: local, http_api; result: success, failure
		),
		AuthorizationCodesIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sso_authorization_codes_issued_total",
				Help: "Total number of single-use authorization codes issued",
			},
		),

		// Token Metrics
		TokenExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_token_exchanges_total",
				Help: "Total number of authorization-code exchanges at the token endpoint",
			},
			[]string{
				"result",
			}, // success, invalid_client, invalid_grant, unsupported_grant_type, invalid_request, error
		),
		TokenExchangeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sso_token_exchange_duration_seconds",
				Help:    "Time taken to redeem an authorization code for tokens",
				Buckets: prometheus.DefBuckets,
			},
		),
		TokenVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_token_verifications_total",
				Help: "Total number of bearer token verifications",
			},
			[]string{
				"mode",
				"result",
			}, // mode: strict, signature; result: valid, not_live, bad_signature
		),
		AccessTokensActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sso_access_tokens_active",
				Help: "Current number of live rows in the access-token ledger",
			},
		),

		// Origin Policy Metrics
		OriginDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_origin_decisions_total",
				Help: "Total number of CORS origin allow-list decisions",
			},
			[]string{"result"}, // allowed, denied
		),
		OriginSnapshotRebuildsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sso_origin_snapshot_rebuilds_total",
				Help: "Total number of origin allow-list snapshot rebuilds",
			},
		),
		OriginsAllowed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sso_origins_allowed",
				Help: "Number of origins in the most recently built snapshot",
			},
		),

		// Registry Gauges
		ClientsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sso_clients_active",
				Help: "Current number of active registered clients",
			},
		),
		UsersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sso_users_active",
				Help: "Current number of active user accounts",
			},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		// Database Query Metrics
		StoreQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_access_tokens, count_clients, count_users
		),
	}

	return m
}
