package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"vbudget/internal/core"
)

// AlertMessage announces that a notification rule fired for a user. It is
// self-contained so the worker never has to call back into the API.
type AlertMessage struct {
	RuleID     int64            `json:"rule_id"`
	OwnerID    int64            `json:"owner_id"`
	OwnerName  string           `json:"owner_name"`
	AlertType  core.AlertType   `json:"alert_type"`
	Threshold  core.Amount      `json:"threshold"`
	Value      core.Amount      `json:"value"`
	Channels   []core.Channel   `json:"channels"`
	Recipients []core.Recipient `json:"recipients"`
	// Day is the owner's local date the alert was raised on.
	Day       string    `json:"day"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlertMessage builds the message for rule firing at value on day.
func NewAlertMessage(owner core.User, rule core.NotificationRule, value core.Amount, day string) *AlertMessage {
	return &AlertMessage{
		RuleID:     rule.ID,
		OwnerID:    owner.ID,
		OwnerName:  owner.Name,
		AlertType:  rule.AlertType,
		Threshold:  rule.Threshold,
		Value:      value,
		Channels:   append([]core.Channel(nil), rule.Channels...),
		Recipients: append([]core.Recipient(nil), rule.Recipients...),
		Day:        day,
		Timestamp:  time.Now(),
	}
}

// DedupeKey identifies an alert for once-per-day delivery.
func (m *AlertMessage) DedupeKey() string {
	return fmt.Sprintf("%d:%d:%s", m.OwnerID, m.RuleID, m.Day)
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON creates a message from JSON bytes
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RuleID == 0 || !msg.AlertType.Valid() {
		return nil, fmt.Errorf("alert message missing rule id or alert type")
	}
	return &msg, nil
}
