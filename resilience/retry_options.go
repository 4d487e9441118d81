package resilience

import "time"

// RetryOption configures NewRetryFromOptions.
type RetryOption func(*retryOptions)

type retryOptions struct {
	policy    *RetryPolicy
	params    RetryPolicy
	policySet bool
	paramsSet bool

	onRetry func(attempt int, err error)
	sink    Sink
}

// WithPolicy supplies a complete policy. It conflicts with the individual
// parameter options.
func WithPolicy(p *RetryPolicy) RetryOption {
	return func(o *retryOptions) {
		o.policy = p
		o.policySet = true
	}
}

// WithMaxAttempts sets the attempt budget, including the first call.
func WithMaxAttempts(n int) RetryOption {
	return func(o *retryOptions) {
		o.params.MaxAttempts = n
		o.paramsSet = true
	}
}

// WithBackoff sets the backoff strategy.
func WithBackoff(s BackoffStrategy) RetryOption {
	return func(o *retryOptions) {
		o.params.Backoff = s
		o.paramsSet = true
	}
}

// WithBaseDelay sets the delay unit the backoff strategy scales.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(o *retryOptions) {
		o.params.BaseDelay = d
		o.paramsSet = true
	}
}

// WithMaxDelay caps the computed delay.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(o *retryOptions) {
		o.params.MaxDelay = d
		o.paramsSet = true
	}
}

// WithJitter toggles randomized delay scaling.
func WithJitter(on bool) RetryOption {
	return func(o *retryOptions) {
		o.params.Jitter = on
		o.paramsSet = true
	}
}

// WithRetryableErrors restricts retries to failures matching one of the
// given errors.
func WithRetryableErrors(errs ...error) RetryOption {
	return func(o *retryOptions) {
		o.params.RetryableErrors = errs
		o.paramsSet = true
	}
}

// WithOnRetry sets the retry observer callback.
func WithOnRetry(fn func(attempt int, err error)) RetryOption {
	return func(o *retryOptions) {
		o.onRetry = fn
	}
}

// WithSink sets the diagnostic event sink.
func WithSink(s Sink) RetryOption {
	return func(o *retryOptions) {
		o.sink = s
	}
}

// NewRetryFromOptions builds a retry executor from the wrapper-form
// options. Supplying both a full policy and individual parameter options
// is ambiguous and rejected as a configuration error rather than
// silently resolved.
func NewRetryFromOptions(opts ...RetryOption) (*Retry, error) {
	var o retryOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.policySet && o.paramsSet {
		return nil, configErrorf("cannot specify both a retry policy and individual retry parameters")
	}

	policy := o.policy
	if !o.policySet {
		var err error
		policy, err = NewRetryPolicy(o.params)
		if err != nil {
			return nil, err
		}
	} else if policy == nil {
		return nil, configErrorf("retry policy must not be nil")
	}

	return NewRetry(RetryConfig{
		Policy:  policy,
		OnRetry: o.onRetry,
		Sink:    o.sink,
	}), nil
}
