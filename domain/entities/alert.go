package entities

// ChannelKind identifies a notification transport.
type ChannelKind string

const (
	ChannelSMS   ChannelKind = "sms"
	ChannelEmail ChannelKind = "email"
)

// DefaultLowCoinThreshold is applied to every denomination until settings
// are saved for the first time.
const DefaultLowCoinThreshold = 10

// AlertSettings is the notification configuration: per-denomination minimum
// acceptable coin counts, channel enable flags, and channel targets. The
// whole struct is replaced atomically on update.
type AlertSettings struct {
	Thresholds     map[Denomination]int64 `json:"thresholds"`
	SMSEnabled     bool                   `json:"sms_enabled"`
	EmailEnabled   bool                   `json:"email_enabled"`
	PhoneNumbers   []string               `json:"phone_numbers"`
	EmailAddresses []string               `json:"email_addresses"`
}

// DefaultAlertSettings returns the configuration used before any settings
// have been persisted: alerts evaluated but no channel enabled.
func DefaultAlertSettings() AlertSettings {
	thresholds := make(map[Denomination]int64, len(Denominations))
	for _, d := range Denominations {
		thresholds[d] = DefaultLowCoinThreshold
	}
	return AlertSettings{Thresholds: thresholds}
}

// Threshold returns the minimum acceptable count for a denomination,
// falling back to the default when unset.
func (s AlertSettings) Threshold(d Denomination) int64 {
	if t, ok := s.Thresholds[d]; ok {
		return t
	}
	return DefaultLowCoinThreshold
}

// AlertSend records the outcome of one send attempt to one target.
type AlertSend struct {
	Channel ChannelKind `json:"channel"`
	Target  string      `json:"target"`
	Sent    bool        `json:"sent"`
	Error   string      `json:"error,omitempty"`
}

// Alert describes one low-stock condition and the sends it triggered.
type Alert struct {
	Denomination Denomination `json:"denomination"`
	CurrentCount int64        `json:"current_count"`
	Threshold    int64        `json:"threshold"`
	Sends        []AlertSend  `json:"sends,omitempty"`
}
