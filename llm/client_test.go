package llm

import (
	"context"
	"testing"
)

// mockAdapter is a scriptable ProviderAdapter for client tests.
type mockAdapter struct {
	name     string
	calls    int
	failures int // Complete fails this many times before succeeding
	err      error
	closed   bool
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Complete(_ context.Context, req Request) (*Response, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, m.err
	}
	return &Response{
		Provider:     m.name,
		Message:      AssistantMessage("from " + m.name),
		FinishReason: FinishStop,
	}, nil
}

func (m *mockAdapter) Stream(_ context.Context, req Request) (<-chan StreamEvent, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: StreamFinish, Response: &Response{Provider: m.name}}
	close(ch)
	return ch, nil
}

func (m *mockAdapter) Close() error {
	m.closed = true
	return nil
}

func noDelayPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries}
}

func TestCompleteRoutesToNamedProvider(t *testing.T) {
	a := &mockAdapter{name: "alpha"}
	b := &mockAdapter{name: "beta"}
	c := NewClient(WithProvider("alpha", a), WithProvider("beta", b))

	resp, err := c.Complete(context.Background(), Request{Provider: "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "beta" || b.calls != 1 || a.calls != 0 {
		t.Errorf("request routed to wrong provider: %+v", resp)
	}
}

func TestCompleteSingleProviderIsDefault(t *testing.T) {
	a := &mockAdapter{name: "alpha"}
	c := NewClient(WithProvider("alpha", a))

	resp, err := c.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "alpha" {
		t.Errorf("sole provider should be the default: %+v", resp)
	}
}

func TestCompleteUnknownProvider(t *testing.T) {
	c := NewClient(WithProvider("alpha", &mockAdapter{name: "alpha"}))
	_, err := c.Complete(context.Background(), Request{Provider: "missing"})
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestCompleteNoProviders(t *testing.T) {
	c := NewClient()
	if _, err := c.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error with no providers registered")
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	a := &mockAdapter{
		name:     "alpha",
		failures: 2,
		err:      &ServerError{ProviderError{ClientError: ClientError{Message: "boom"}, StatusCode: 500, Retryable: true}},
	}
	c := NewClient(WithProvider("alpha", a), WithRetryPolicy(noDelayPolicy(2)))

	resp, err := c.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("retries should have recovered: %v", err)
	}
	if a.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", a.calls)
	}
	if resp.Text() != "from alpha" {
		t.Errorf("unexpected response: %q", resp.Text())
	}
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	a := &mockAdapter{
		name:     "alpha",
		failures: 5,
		err:      &AuthenticationError{ProviderError{ClientError: ClientError{Message: "bad key"}, StatusCode: 401}},
	}
	c := NewClient(WithProvider("alpha", a), WithRetryPolicy(noDelayPolicy(3)))

	if _, err := c.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected auth error")
	}
	if a.calls != 1 {
		t.Errorf("auth errors must not be retried, got %d attempts", a.calls)
	}
}

func TestStreamIsNotRetried(t *testing.T) {
	a := &mockAdapter{
		name: "alpha",
		err:  &ServerError{ProviderError{ClientError: ClientError{Message: "boom"}, Retryable: true}},
	}
	c := NewClient(WithProvider("alpha", a), WithRetryPolicy(noDelayPolicy(3)))

	if _, err := c.Stream(context.Background(), Request{}); err == nil {
		t.Fatal("expected stream error")
	}
	if a.calls != 1 {
		t.Errorf("streams must not be retried, got %d attempts", a.calls)
	}
}

func TestCloseClosesAdapters(t *testing.T) {
	a := &mockAdapter{name: "alpha"}
	c := NewClient(WithProvider("alpha", a))
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed {
		t.Error("adapter not closed")
	}
}
