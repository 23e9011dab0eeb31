package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"admission-intake/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MsgReceived is the success message attached to every stored application.
const MsgReceived = "Application received successfully."

var ErrInvalidDocument = errors.New("invalid document")

// Response is the reply document. Exactly one of the success or error
// shapes is populated: ApplicationID is set only when Status is success.
type Response struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ApplicationID string `json:"application_id,omitempty"`
}

// Success builds a success reply for applicationID.
func Success(message, applicationID string) Response {
	return Response{Status: StatusSuccess, Message: message, ApplicationID: applicationID}
}

// Failure builds an error reply.
func Failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}

func (r Response) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// EncodeRequest serializes a record as the request document.
func EncodeRequest(rec models.ApplicationRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRequest validates payload against the request schema and decodes it.
func DecodeRequest(payload []byte) (models.ApplicationRecord, error) {
	var rec models.ApplicationRecord
	if !utf8.Valid(payload) {
		return rec, fmt.Errorf("%w: body is not valid UTF-8", ErrInvalidDocument)
	}
	if err := ValidateRequest(payload); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return rec, nil
}

// EncodeResponse serializes a reply.
func EncodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse decodes a reply and checks it is one well-formed variant.
func DecodeResponse(payload []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	switch resp.Status {
	case StatusSuccess:
		if resp.ApplicationID == "" {
			return Response{}, fmt.Errorf("%w: success reply without application_id", ErrInvalidDocument)
		}
	case StatusError:
		resp.ApplicationID = ""
	default:
		return Response{}, fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, resp.Status)
	}
	return resp, nil
}
