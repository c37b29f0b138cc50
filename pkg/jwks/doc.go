// Package jwks holds the server's RSA signing key and publishes its public
// half as a JSON Web Key Set (RFC 7517).
//
// A SigningKey lives for the whole process. Its kid is either configured or
// derived from the RFC 7638 thumbprint of the public key, and is written into
// the header of every token it signs so verifiers can pick the matching JWK.
//
//	key, err := jwks.LoadSigningKey(cfg.JWKS, env)
//	signed, err := key.Sign(claims)
//	r.Method(http.MethodGet, "/.well-known/jwks.json", jwks.NewHandler(key))
//
// The JWK type only has public RSA members (kty, use, kid, alg, n, e), so
// private material cannot be serialised by accident.
package jwks
