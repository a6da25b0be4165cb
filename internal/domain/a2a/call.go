package a2a

import "strings"

// CallContext carries transport-level details of an inbound protocol call:
// who connected, from where, and with which headers and caller metadata.
// It is read-only from the enforcement layer's perspective.
type CallContext struct {
	// RemoteAddr is the network address of the caller.
	RemoteAddr string
	// UserAgent is the caller's User-Agent header, if any.
	UserAgent string
	// Headers are the transport headers of the call.
	Headers map[string]string
	// Metadata holds caller-supplied metadata decoded from the request.
	Metadata map[string]any
}

// Header returns the value of the named header, matched case-insensitively.
// Returns "" when the header is absent or the context is nil.
func (c *CallContext) Header(name string) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Headers[name]; ok {
		return v
	}
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// MetadataString returns the named metadata entry when it is a string.
func (c *CallContext) MetadataString(key string) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}
