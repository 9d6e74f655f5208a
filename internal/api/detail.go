package api

import (
	"strings"

	"github.com/tidwall/gjson"
)

// maxRawDetail bounds how much of an unstructured body is surfaced.
const maxRawDetail = 200

// ExtractDetail normalizes a backend error body into one human-readable
// string. The backend emits detail in several shapes:
//
//	{"detail": "plain message"}
//	{"detail": {"msg": "..."}} or {"detail": {"message": "..."}}
//	{"detail": [{"msg": "..."}, "plain", ...]}
//
// Anything else falls back to a truncated copy of the raw body.
func ExtractDetail(body []byte) string {
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsObject():
		if s := objectMessage(detail); s != "" {
			return s
		}
	case detail.IsArray():
		var parts []string
		detail.ForEach(func(_, item gjson.Result) bool {
			switch {
			case item.Type == gjson.String:
				parts = append(parts, item.String())
			case item.IsObject():
				if s := objectMessage(item); s != "" {
					parts = append(parts, s)
				}
			}
			return true
		})
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "no error detail provided"
	}
	if len(raw) > maxRawDetail {
		raw = raw[:maxRawDetail] + "..."
	}
	return raw
}

// objectMessage pulls msg or message out of a detail object.
func objectMessage(obj gjson.Result) string {
	if msg := obj.Get("msg"); msg.Exists() {
		return msg.String()
	}
	if msg := obj.Get("message"); msg.Exists() {
		return msg.String()
	}
	return ""
}
