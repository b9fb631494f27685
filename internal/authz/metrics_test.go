// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package authz

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision_Allowed(t *testing.T) {
	decisions := AuthzDecisionsTotal.WithLabelValues("user", "videos", "read", "allowed")
	hits := AuthzCacheHitsTotal

	decisionsBefore := testutil.ToFloat64(decisions)
	hitsBefore := testutil.ToFloat64(hits)

	RecordDecision("user", "videos", "read", true, 50*time.Microsecond, true)

	if got := testutil.ToFloat64(decisions); got != decisionsBefore+1 {
		t.Errorf("AuthzDecisionsTotal{allowed} = %v, want %v", got, decisionsBefore+1)
	}
	if got := testutil.ToFloat64(hits); got != hitsBefore+1 {
		t.Errorf("AuthzCacheHitsTotal = %v, want %v", got, hitsBefore+1)
	}
}

func TestRecordDecision_Denied(t *testing.T) {
	decisions := AuthzDecisionsTotal.WithLabelValues("user", "admin", "write", "denied")
	denied := AuthzDeniedTotal.WithLabelValues("user", "admin", "write")
	misses := AuthzCacheMissesTotal

	decisionsBefore := testutil.ToFloat64(decisions)
	deniedBefore := testutil.ToFloat64(denied)
	missesBefore := testutil.ToFloat64(misses)

	RecordDecision("user", "admin", "write", false, 200*time.Microsecond, false)

	if got := testutil.ToFloat64(decisions); got != decisionsBefore+1 {
		t.Errorf("AuthzDecisionsTotal{denied} = %v, want %v", got, decisionsBefore+1)
	}
	if got := testutil.ToFloat64(denied); got != deniedBefore+1 {
		t.Errorf("AuthzDeniedTotal = %v, want %v", got, deniedBefore+1)
	}
	if got := testutil.ToFloat64(misses); got != missesBefore+1 {
		t.Errorf("AuthzCacheMissesTotal = %v, want %v", got, missesBefore+1)
	}
}

func TestCacheMetrics(t *testing.T) {
	evictionsBefore := testutil.ToFloat64(AuthzCacheEvictionsTotal)
	RecordAuthzCacheEviction()
	if got := testutil.ToFloat64(AuthzCacheEvictionsTotal); got != evictionsBefore+1 {
		t.Errorf("AuthzCacheEvictionsTotal = %v, want %v", got, evictionsBefore+1)
	}

	invalidations := AuthzCacheInvalidationsTotal.WithLabelValues("role_change")
	invalidationsBefore := testutil.ToFloat64(invalidations)
	RecordAuthzCacheInvalidation("role_change")
	if got := testutil.ToFloat64(invalidations); got != invalidationsBefore+1 {
		t.Errorf("AuthzCacheInvalidationsTotal = %v, want %v", got, invalidationsBefore+1)
	}

	UpdateAuthzCacheSize(17)
	if got := testutil.ToFloat64(AuthzCacheSize); got != 17 {
		t.Errorf("AuthzCacheSize = %v, want 17", got)
	}
	UpdateAuthzCacheSize(0)
	if got := testutil.ToFloat64(AuthzCacheSize); got != 0 {
		t.Errorf("AuthzCacheSize = %v, want 0", got)
	}
}

func TestRecordRoleChange(t *testing.T) {
	changes := AuthzRoleChangesTotal.WithLabelValues("staff", "admin")
	before := testutil.ToFloat64(changes)

	RecordRoleChange("staff", "admin")

	if got := testutil.ToFloat64(changes); got != before+1 {
		t.Errorf("AuthzRoleChangesTotal = %v, want %v", got, before+1)
	}
}

func TestRecordPolicyReload(t *testing.T) {
	success := AuthzPolicyReloadsTotal.WithLabelValues("success")
	failure := AuthzPolicyReloadsTotal.WithLabelValues("failure")

	successBefore := testutil.ToFloat64(success)
	failureBefore := testutil.ToFloat64(failure)

	RecordPolicyReload(true)
	RecordPolicyReload(false)

	if got := testutil.ToFloat64(success); got != successBefore+1 {
		t.Errorf("AuthzPolicyReloadsTotal{success} = %v, want %v", got, successBefore+1)
	}
	if got := testutil.ToFloat64(failure); got != failureBefore+1 {
		t.Errorf("AuthzPolicyReloadsTotal{failure} = %v, want %v", got, failureBefore+1)
	}
}

func TestUpdatePolicyStats(t *testing.T) {
	UpdatePolicyStats(14, 2)

	if got := testutil.ToFloat64(AuthzPolicyRulesTotal); got != 14 {
		t.Errorf("AuthzPolicyRulesTotal = %v, want 14", got)
	}
	if got := testutil.ToFloat64(AuthzGroupingRulesTotal); got != 2 {
		t.Errorf("AuthzGroupingRulesTotal = %v, want 2", got)
	}
}

func TestRecordAuthzError(t *testing.T) {
	errs := AuthzErrorsTotal.WithLabelValues("role_lookup_error")
	before := testutil.ToFloat64(errs)

	RecordAuthzError("role_lookup_error")

	if got := testutil.ToFloat64(errs); got != before+1 {
		t.Errorf("AuthzErrorsTotal = %v, want %v", got, before+1)
	}
}

// TestMetricsCollectable guards against registration mistakes: every
// metric must produce output without panicking.
func TestMetricsCollectable(t *testing.T) {
	RecordDecision("staff", "reservations:all", "read", true, time.Millisecond, false)

	collectors := []prometheus.Collector{
		AuthzDecisionsTotal,
		AuthzDecisionDuration,
		AuthzDeniedTotal,
		AuthzCacheHitsTotal,
		AuthzCacheMissesTotal,
		AuthzCacheSize,
		AuthzCacheEvictionsTotal,
		AuthzCacheInvalidationsTotal,
		AuthzRoleChangesTotal,
		AuthzPolicyReloadsTotal,
		AuthzPolicyRulesTotal,
		AuthzGroupingRulesTotal,
		AuthzErrorsTotal,
	}

	for _, collector := range collectors {
		ch := make(chan prometheus.Metric, 64)
		collector.Collect(ch)
		close(ch)
	}
}
