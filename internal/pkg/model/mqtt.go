package model

// RegisterEntity describes a monitored entity in the retained MQTT
// registration message.
type RegisterEntity struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Area         string   `json:"area"`
	Organization string   `json:"organization"`
}

// RegisterMessage is published retained when an entity is first seen so MQTT
// consumers can discover its state topic.
type RegisterMessage struct {
	Tilda      string         `json:"~"`
	Name       string         `json:"name"`
	ID         string         `json:"unique_id"`
	StateTopic string         `json:"state_topic"`
	Entity     RegisterEntity `json:"entity"`
}
