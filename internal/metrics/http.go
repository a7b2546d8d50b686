package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultAllowed = "allowed"
	resultDenied  = "denied"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// Type assert to concrete Metrics for Prometheus access. NoopMetrics and
	// any unknown implementation get a pass-through middleware.
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // route pattern, not the raw path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/api/admin/users/:id") or "unknown" for
// requests that matched no route
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordLogin records a credential submission outcome
func (m *Metrics) RecordLogin(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.LoginAttemptsTotal.WithLabelValues(provider, result).Inc()
}

// RecordAuthorizationCodeIssued records a freshly issued authorization code
func (m *Metrics) RecordAuthorizationCodeIssued() {
	m.AuthorizationCodesIssuedTotal.Inc()
}

// RecordTokenExchange records a token endpoint exchange attempt
func (m *Metrics) RecordTokenExchange(result string, duration time.Duration) {
	m.TokenExchangesTotal.WithLabelValues(result).Inc()
	m.TokenExchangeDuration.Observe(duration.Seconds())
}

// RecordTokenVerification records a bearer token verification
func (m *Metrics) RecordTokenVerification(mode, result string) {
	// mode: strict, signature; result: valid, not_live, bad_signature
	m.TokenVerificationsTotal.WithLabelValues(mode, result).Inc()
}

// RecordOriginDecision records a CORS allow-list decision
func (m *Metrics) RecordOriginDecision(allowed bool) {
	result := resultAllowed
	if !allowed {
		result = resultDenied
	}
	m.OriginDecisionsTotal.WithLabelValues(result).Inc()
}

// RecordOriginSnapshotRebuild records a snapshot rebuild and its size
func (m *Metrics) RecordOriginSnapshotRebuild(size int) {
	m.OriginSnapshotRebuildsTotal.Inc()
	m.OriginsAllowed.Set(float64(size))
}

// SetActiveAccessTokens sets the live access-token ledger count (for periodic updates)
func (m *Metrics) SetActiveAccessTokens(count int) {
	m.AccessTokensActive.Set(float64(count))
}

// SetActiveClients sets the active client count (for periodic updates)
func (m *Metrics) SetActiveClients(count int) {
	m.ClientsActive.Set(float64(count))
}

// SetActiveUsers sets the active user count (for periodic updates)
func (m *Metrics) SetActiveUsers(count int) {
	m.UsersActive.Set(float64(count))
}

// RecordStoreQueryError records a database query error during metric collection
func (m *Metrics) RecordStoreQueryError(operation string) {
	m.StoreQueryErrorsTotal.WithLabelValues(operation).Inc()
}
