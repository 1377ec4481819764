package logger

import "log/slog"

// Error records err under "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID identifies the account a record concerns.
func AccountID(id string) slog.Attr {
	return slog.String("account_id", id)
}

// TeamID identifies the School team a record concerns.
func TeamID(id string) slog.Attr {
	return slog.String("team_id", id)
}

// RequestID carries the per-request correlation id.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// Operation names the engine operation a record belongs to.
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// RetryCount reports how many optimistic retries an operation took.
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component tags records emitted by a subsystem.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names a webhook or lifecycle event.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Provider names an external collaborator such as a payment gateway.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Plan records a plan identifier.
func Plan(id string) slog.Attr {
	return slog.String("plan_id", id)
}

// ClientIP records the resolved caller address.
func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}
