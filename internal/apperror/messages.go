package apperror

// messages maps error codes to their default human-readable messages.
var messages = map[Code]string{
	CodeConfigError:      "Invalid exchange configuration",
	CodeConnectError:     "Failed to connect to exchange websocket",
	CodeSubscribeError:   "Exchange subscription failed",
	CodeParseError:       "Failed to parse exchange update",
	CodeChannelSendError: "Failed to forward update to aggregator",
	CodeEgressSendError:  "Failed to publish summary to egress slot",
	CodeClientSendError:  "Failed to send summary to streaming client",
	CodeUnknownError:     "An unknown error occurred",
}
