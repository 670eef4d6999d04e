package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"revoked", fmt.Errorf("refresh: %w", ErrRevoked), KindAuth},
		{"api 401", &APIError{StatusCode: http.StatusUnauthorized}, KindAuth},
		{"api 403", &APIError{StatusCode: http.StatusForbidden}, KindAuth},
		{"api 404", &APIError{StatusCode: http.StatusNotFound}, KindNotFound},
		{"api 429", &APIError{StatusCode: http.StatusTooManyRequests}, KindRateLimit},
		{"api 500", &APIError{StatusCode: http.StatusInternalServerError}, KindServer},
		{"api 503", &APIError{StatusCode: http.StatusServiceUnavailable}, KindServer},
		{"api 418", &APIError{StatusCode: http.StatusTeapot}, KindUnknown},
		{"wrapped api error", fmt.Errorf("list: %w", &APIError{StatusCode: 500}), KindServer},
		{"net error", &net.OpError{Op: "dial", Err: timeoutErr{}}, KindNetwork},
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"oauth server error", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 500}}, KindServer},
		{"oauth no response", &oauth2.RetrieveError{}, KindAuth},
		{"plain error", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "provider returned status 500",
		(&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "provider returned status 403: quota exceeded",
		(&APIError{StatusCode: 403, Message: "quota exceeded"}).Error())
}
