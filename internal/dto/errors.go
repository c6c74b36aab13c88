package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// ErrorMessage extracts a human readable message from an error response.
func ErrorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if body[0] == '{' {
		var eb ErrorBody
		if err := json.Unmarshal(body, &eb); err == nil {
			if m := firstNonEmpty(eb.Message, eb.Error); m != "" {
				return m
			}
		}
	}
	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return s
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
