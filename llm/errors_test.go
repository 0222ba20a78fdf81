package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	pe := ProviderError{ClientError: ClientError{Message: "x"}}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"authentication", &AuthenticationError{pe}, false},
		{"access denied", &AccessDeniedError{pe}, false},
		{"not found", &NotFoundError{pe}, false},
		{"invalid request", &InvalidRequestError{pe}, false},
		{"context length", &ContextLengthError{pe}, false},
		{"configuration", &ConfigurationError{ClientError{Message: "x"}}, false},
		{"rate limit", &RateLimitError{pe}, true},
		{"server", &ServerError{pe}, true},
		{"network", &NetworkError{ClientError{Message: "x"}}, true},
		{"timeout", &RequestTimeoutError{ClientError{Message: "x"}}, true},
		{"provider retryable", &ProviderError{ClientError: ClientError{Message: "x"}, Retryable: true}, true},
		{"provider not retryable", &ProviderError{ClientError: ClientError{Message: "x"}}, false},
		{"unknown", fmt.Errorf("something else"), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := &ClientError{Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap must expose the cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("message should include the cause: %q", err.Error())
	}
}

func TestProviderErrorFormat(t *testing.T) {
	err := &ProviderError{
		ClientError: ClientError{Message: "overloaded"},
		Provider:    "openai",
		StatusCode:  500,
		Retryable:   true,
	}
	msg := err.Error()
	for _, want := range []string{"openai", "overloaded", "500"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q: %q", want, msg)
		}
	}
}
