package audit

import (
	"net"
	"net/http"
	"strings"
)

// MetaFromRequest extracts the requester details recorded on every ledger
// entry. X-Forwarded-For wins over the socket address when present, since
// deployments sit behind a reverse proxy.
func MetaFromRequest(r *http.Request) RequestMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		parts := strings.Split(ip, ",")
		ip = strings.TrimSpace(parts[0])
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}

	return RequestMeta{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}
