// Package auth implements a token lifecycle engine for session authentication:
// credential verification, signed JWT issuance with identity and role claims,
// and a rotating refresh-token mechanism with revocation.
//
// Session tokens:
//   - TokenSigner mints HMAC-SHA256 JWTs carrying subject, email, uid, roles,
//     and custom metadata claims. Verification is stateless; signature, issuer,
//     audience, and expiry are enforced with zero clock-skew tolerance. Signing
//     keys shorter than MinSigningKeySize are rejected at construction so a
//     misconfigured service never starts issuing tokens.
//
// Refresh tokens:
//   - RefreshTokenStore manages the per-user token collection. Tokens are
//     opaque 256-bit random values, rotated on use (the old token is revoked
//     together with issuing its replacement) and retained after revocation as
//     an append-only audit trail. Presenting a revoked token is surfaced
//     distinctly from an unknown token so callers can alert on reuse.
//
// AuthEngine composes both against the user and role repositories and exposes
// Register, Login, Refresh, Revoke, and AddRole. Every mutation of a user's
// refresh tokens runs as a single read-modify-write transaction through
// RepositoryManager.RunInTx.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the engine to
//     describe login, refresh rotation, reuse detection, revocation, and role
//     assignment events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may enrich
//     extension fields such as metadata while protected claims (sub, iss, aud,
//     exp, etc.) remain immutable.
package auth
