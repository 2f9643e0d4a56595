package apiclient

import "context"

// ForwardedForHeader carries the end-user address on requests made on a
// visitor's behalf.
const ForwardedForHeader = "X-Forwarded-For"

type clientIPKey struct{}

// WithClientIP marks ctx as acting for the visitor at ip. Requests made with
// the returned context send it in X-Forwarded-For so the API can tell
// visitors apart.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the visitor address set by WithClientIP.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
