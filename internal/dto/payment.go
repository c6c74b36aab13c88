package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

type PaymentRequest struct {
	OrderID ID `json:"orderId"`
}

type PaymentResponse struct {
	OrderID       ID     `json:"orderId"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId"`
	Timestamp     Time   `json:"timestamp"`
}

// PaymentStatus decodes GET /api/payments/status/{orderId}, which answers
// with a JSON string, plain text or an object carrying a status field.
func PaymentStatus(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return strings.TrimSpace(s)
		}
	case '{':
		var obj struct {
			Status        string `json:"status"`
			PaymentStatus string `json:"paymentStatus"`
		}
		if err := json.Unmarshal(body, &obj); err == nil {
			return firstNonEmpty(obj.PaymentStatus, obj.Status)
		}
	}
	return strings.TrimSpace(string(body))
}
