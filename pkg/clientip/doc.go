// Package clientip resolves the originating client address of a request
// served behind reverse proxies.
//
// Proxy headers are only honored when the resolver is told to trust them;
// otherwise the TCP peer address is used:
//
//	res := clientip.New(clientip.TrustProxyHeaders())
//	r.Use(clientip.Middleware(res))
//
//	ip := clientip.FromContext(r.Context())
package clientip
