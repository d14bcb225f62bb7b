package translate

import (
	"net/http"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusInternalServerError, KindNetwork},
		{http.StatusBadGateway, KindNetwork},
		{http.StatusBadRequest, KindProtocol},
		{http.StatusNotFound, KindProtocol},
	}
	for _, tt := range tests {
		if got := classifyStatus("fake", tt.status, "body").Kind; got != tt.want {
			t.Errorf("status %d classified as %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestClassifyStatusTruncatesBody(t *testing.T) {
	err := classifyStatus("fake", 500, strings.Repeat("x", 1000))
	if len(err.Message) > 400 {
		t.Fatalf("message not truncated: %d chars", len(err.Message))
	}
}

func TestRetryPolicyCoversTaxonomy(t *testing.T) {
	kinds := []ErrorKind{KindAuth, KindRateLimit, KindNetwork, KindTimeout, KindProtocol}
	for _, k := range kinds {
		if _, ok := retryPolicy[k]; !ok {
			t.Errorf("no retry action for %s", k)
		}
	}
	if retryPolicy[KindAuth] != retryNone {
		t.Error("auth errors must not be retried")
	}
	if retryPolicy[KindProtocol] != retrySplit {
		t.Error("protocol errors must split")
	}
}
