package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardedForHeader names the proxy chain header honoured from trusted peers.
const forwardedForHeader = "X-Forwarded-For"

// trustedProxies is the set of peers allowed to report the client address.
type trustedProxies []netip.Prefix

// parseTrustedProxies accepts single addresses and CIDR blocks.
func parseTrustedProxies(entries []string) (trustedProxies, error) {
	var out trustedProxies
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: not an IP or CIDR", e)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (t trustedProxies) contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range t {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the address a request is attributed to for rate limiting
// and hashing. It is the peer address unless the peer is a trusted proxy; then
// X-Forwarded-For is read right to left and the first untrusted hop wins.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if len(s.proxies) == 0 {
		return peer
	}
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !s.proxies.contains(peerAddr) {
		return peer
	}

	var hops []string
	for _, v := range r.Header.Values(forwardedForHeader) {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hops = append(hops, h)
			}
		}
	}

	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(hops[i])
		if err != nil {
			break
		}
		client = addr.Unmap().String()
		if !s.proxies.contains(addr) {
			break
		}
	}
	return client
}

// remoteHost returns the host part of RemoteAddr.
func remoteHost(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
