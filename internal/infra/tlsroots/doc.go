// Package tlsroots loads certificates for the HTTP transport.
//
// The server side serves a certificate and key pair through CertReloader,
// which picks up replaced files without a restart. The client side starts
// from the system roots and may add private CA bundles, which is how the
// CLI trusts a server with a self-signed certificate.
package tlsroots
