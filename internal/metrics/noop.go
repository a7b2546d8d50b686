package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

// Authorization flow - noop implementations
func (n *NoopMetrics) RecordLogin(provider string, success bool) {}
func (n *NoopMetrics) RecordAuthorizationCodeIssued()            {}

// Token endpoint - noop implementations
func (n *NoopMetrics) RecordTokenExchange(result string, duration time.Duration) {}
func (n *NoopMetrics) RecordTokenVerification(mode, result string)               {}

// Origin policy - noop implementations
func (n *NoopMetrics) RecordOriginDecision(allowed bool)     {}
func (n *NoopMetrics) RecordOriginSnapshotRebuild(size int)  {}

// Gauge setters - noop implementations
func (n *NoopMetrics) SetActiveAccessTokens(count int) {}
func (n *NoopMetrics) SetActiveClients(count int)      {}
func (n *NoopMetrics) SetActiveUsers(count int)        {}

// Database operations - noop implementations
func (n *NoopMetrics) RecordStoreQueryError(operation string) {}
