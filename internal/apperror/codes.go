package apperror

// Code identifies one failure class from the error handling design. Codes
// are stable strings so log queries and alerts can key on them.
type Code string

const (
	// CodeConfigError covers malformed or incomplete startup configuration:
	// unknown exchange id, missing endpoint or subscription template, empty
	// pair. Always fatal; the process aborts with a diagnostic.
	CodeConfigError Code = "CONFIG_ERROR"

	// CodeConnectError is a dial or transport handshake failure for an
	// exchange feed. Retried indefinitely on the fixed reconnect cadence.
	CodeConnectError Code = "CONNECT_ERROR"

	// CodeSubscribeError covers a failed subscribe send or a subscription
	// reply that fails validation. Retried; the feed owes an empty update
	// before its next attempt.
	CodeSubscribeError Code = "SUBSCRIBE_ERROR"

	// CodeParseError is a malformed or unparseable exchange update frame.
	// Drops the current connection so state resynchronizes on reconnect.
	CodeParseError Code = "PARSE_ERROR"

	// CodeChannelSendError is a failed send from an exchange feed onto the
	// aggregator's ingress channel, only possible during shutdown.
	CodeChannelSendError Code = "CHANNEL_SEND_ERROR"

	// CodeEgressSendError is a failed publish from the aggregator onto the
	// broadcast-latest egress slot. The slot cannot reject a write, so
	// nothing in this tree raises it; the code exists so the full policy
	// table stays addressable in logs and alerts.
	CodeEgressSendError Code = "EGRESS_SEND_ERROR"

	// CodeClientSendError is a failed send to one gRPC streaming client; it
	// terminates that client's stream without affecting others.
	CodeClientSendError Code = "CLIENT_SEND_ERROR"

	// CodeUnknownError is what GetCode reports for plain errors that never
	// went through this package.
	CodeUnknownError Code = "UNKNOWN_ERROR"
)
