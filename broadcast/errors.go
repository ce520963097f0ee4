package broadcast

import "errors"

// ErrConnectionFailed indicates the HTTP request to the broadcast
// service itself could not complete (DNS, TCP, TLS, timeout).
var ErrConnectionFailed = errors.New("broadcast: connection failed")
