package messages

// Entity is a structured value the intent classifier pulled out of the
// utterance, with its normalized form and the classifier's confidence.
type Entity struct {
	RawText    string  `json:"raw_text"`
	Normalized string  `json:"normalized_value"`
	Confidence float64 `json:"confidence"`
}

// ClientRequest is the original request as forwarded by the bridge that
// captured it: the utterance, the room it was spoken in, and the topic the
// answer has to go back to.
type ClientRequest struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Room        string `json:"room"`
	OutputTopic string `json:"output_topic"`
}

// IntentRequest is the classified request broadcast on the intent-analysis
// topic. Entities are keyed by category ("device", "room").
type IntentRequest struct {
	ID            string              `json:"id"`
	ClientRequest ClientRequest       `json:"client_request"`
	Entities      map[string][]Entity `json:"entities,omitempty"`
}

// Response is the envelope published to a client's output topic.
type Response struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
