package ws

import (
	"encoding/json"
	"fmt"
)

// Message type discriminators carried in the "type" field of every
// envelope, inbound and outbound.
const (
	// Inbound
	TypeAuthenticate = "authenticate"
	TypeAnalyzeImage = "analyze_image"

	// Outbound
	TypeWelcome                 = "welcome"
	TypeAuthenticationResponse  = "authentication_response"
	TypeAnalysisRequestReceived = "analysis_request_received"
	TypeAnalysisProgress        = "analysis_progress"
	TypeAnalysisResults         = "analysis_results"
	TypeError                   = "error"
	TypeEmailOTPSent            = "EMAIL_OTP_SENT"
	TypeOTPVerified             = "OTP_VERIFIED"
)

// Envelope is an inbound message: the payload stays raw until the type
// is known.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEnvelope decodes an inbound frame.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope without type")
	}
	return env, nil
}

// Message is an outbound envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Inbound payloads.

type AuthenticatePayload struct {
	UserID string `json:"userId"`
}

type AnalyzeImagePayload struct {
	ImageID string `json:"imageId"`
	UserID  string `json:"userId,omitempty"`
}

// Outbound payloads.

type WelcomePayload struct {
	Message string `json:"message"`
}

type AuthenticationResponsePayload struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type AnalysisRequestReceivedPayload struct {
	Success    bool   `json:"success"`
	AnalysisID string `json:"analysisId"`
	ImageID    string `json:"imageId"`
	Status     string `json:"status"`
}

type AnalysisProgressPayload struct {
	AnalysisID string `json:"analysisId"`
	ImageID    string `json:"imageId"`
	Progress   int    `json:"progress"`
}

type DetectionPayload struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	Confidence     int    `json:"confidence"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
}

type AnalysisResultsPayload struct {
	AnalysisID     string           `json:"analysisId"`
	ImageID        string           `json:"imageId"`
	Status         string           `json:"status"`
	Detection      DetectionPayload `json:"detection"`
	Treatments     []string         `json:"treatments"`
	PreventionTips []string         `json:"preventionTips"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Constructors for outbound messages.

func Welcome(message string) Message {
	return Message{Type: TypeWelcome, Data: WelcomePayload{Message: message}}
}

func AuthenticationResponse(userID string) Message {
	return Message{Type: TypeAuthenticationResponse, Data: AuthenticationResponsePayload{
		Success: true,
		UserID:  userID,
	}}
}

func AnalysisRequestReceived(analysisID, imageID string) Message {
	return Message{Type: TypeAnalysisRequestReceived, Data: AnalysisRequestReceivedPayload{
		Success:    true,
		AnalysisID: analysisID,
		ImageID:    imageID,
		Status:     "pending",
	}}
}

func AnalysisProgress(analysisID, imageID string, progress int) Message {
	return Message{Type: TypeAnalysisProgress, Data: AnalysisProgressPayload{
		AnalysisID: analysisID,
		ImageID:    imageID,
		Progress:   progress,
	}}
}

func ErrorMessage(message string) Message {
	return Message{Type: TypeError, Data: ErrorPayload{Message: message}}
}
