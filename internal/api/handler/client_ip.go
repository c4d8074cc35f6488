package handler

import (
	"net"

	"github.com/labstack/echo/v4"
)

// ClientIPExtractor resolves the client address for c.RealIP. Without
// trusted proxies the socket peer is the client and X-Forwarded-For is
// ignored. With them, the nearest untrusted X-Forwarded-For hop wins.
func ClientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func clientIP(c echo.Context) string {
	return c.RealIP()
}
