package domain

// ExchangeConfig is immutable after load. ID distinguishes exchanges in the
// aggregator's merge map and selects the codec implementation.
type ExchangeConfig struct {
	ID                          string
	Endpoint                    string
	SubscriptionMessageTemplate string
}
