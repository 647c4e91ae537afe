package pijaz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// APICommand is a command sent to the API server.
type APICommand struct {
	// Name is appended to the API server URL, e.g. "get-token".
	Name string

	// Parameters are sent as query or form values. The authentication fields
	// app_id, api_key and api_version are added by SendAPICommand.
	Parameters Parameters

	// Method is GET or POST. Empty means GET.
	Method string
}

// APIResponse is the outcome of an API command that completed at the HTTP level.
type APIResponse struct {
	// Success is true when the server answered 200 with result_num 0.
	Success bool

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ResultNum is the server-reported result code.
	ResultNum int

	// Message holds result_text, or the raw body for non-200 responses.
	Message string

	// Info is the info payload of a successful response.
	Info map[string]any
}

type apiEnvelope struct {
	Result *struct {
		ResultNum  json.Number `json:"result_num"`
		ResultText string      `json:"result_text"`
	} `json:"result"`
	Info map[string]any `json:"info"`
}

// parseAPIResponse interprets a reply from the API server.
func parseAPIResponse(command string, reply *httpReply) (*APIResponse, error) {
	if reply.StatusCode != 200 {
		return &APIResponse{
			StatusCode: reply.StatusCode,
			Message:    strings.TrimSpace(string(reply.Body)),
		}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(reply.Body))
	decoder.UseNumber()

	var envelope apiEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return nil, &ProtocolError{Command: command, Reason: "body is not valid JSON", Body: reply.Body, Err: err}
	}
	if envelope.Result == nil || envelope.Result.ResultNum == "" {
		return nil, &ProtocolError{Command: command, Reason: "missing result.result_num", Body: reply.Body}
	}
	resultNum, err := envelope.Result.ResultNum.Int64()
	if err != nil {
		return nil, &ProtocolError{Command: command, Reason: "result.result_num is not an integer", Body: reply.Body, Err: err}
	}

	response := &APIResponse{
		StatusCode: reply.StatusCode,
		ResultNum:  int(resultNum),
	}
	if resultNum != 0 {
		response.Message = envelope.Result.ResultText
		return response, nil
	}
	if envelope.Info == nil {
		return nil, &ProtocolError{Command: command, Reason: "missing info in successful response", Body: reply.Body}
	}

	response.Success = true
	response.Info = envelope.Info
	return response, nil
}

// tokenFromInfo builds an AccessToken from a get-token info payload. The
// lifetime field is consumed; every other field becomes an access parameter.
func tokenFromInfo(info map[string]any, workflow string, issuedAt time.Time) (*AccessToken, error) {
	raw, ok := info["lifetime"]
	if !ok {
		return nil, &ProtocolError{Command: commandGetToken, Reason: "info has no lifetime"}
	}
	seconds, err := toSeconds(raw)
	if err != nil {
		return nil, &ProtocolError{Command: commandGetToken, Reason: "info.lifetime is not a number", Err: err}
	}

	params := make(Parameters, len(info))
	for key, value := range info {
		if key == "lifetime" {
			continue
		}
		params[key] = stringify(value)
	}

	return &AccessToken{
		IssuedAt:         issuedAt,
		Lifetime:         time.Duration(seconds) * time.Second,
		Workflow:         workflow,
		AccessParameters: params,
	}, nil
}

func toSeconds(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// stringify renders an info value as a query parameter value.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
