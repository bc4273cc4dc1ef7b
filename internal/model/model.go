package model

import (
	"github.com/private-assistant/iot-state-skill/internal/model/messages"
)

// Aliases so services only import internal/model.

type (
	Entity        = messages.Entity
	ClientRequest = messages.ClientRequest
	IntentRequest = messages.IntentRequest
	Response      = messages.Response
)
