package models

// Supported broker identifiers. The broker selects settlement behavior and
// which reconstruction strategies its exports can drive.
const (
	BrokerSchwab = "schwab"
	BrokerMorgan = "morgan"
)

func IsSupportedBroker(broker string) bool {
	switch broker {
	case BrokerSchwab, BrokerMorgan:
		return true
	}
	return false
}

// SingleFileAuthoritative reports whether one export file from this broker
// is known to contain a full lifetime record.
func SingleFileAuthoritative(broker string) bool {
	return broker == BrokerMorgan
}
