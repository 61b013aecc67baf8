// Package account implements the credential and session core of a user
// account service: Argon2id password hashing, nested sign-then-encrypt
// bearer tokens, and the account lifecycle (register, login, update,
// soft/hard delete, restore).
//
// Tokens:
//   - TokenService signs a claim set as a compact JWS (HS512) and wraps the
//     signed artifact in a compact JWE (RSA-OAEP-512 + A256GCM). The private
//     key is required before signature verification can even start, so
//     authenticity is bound to confidentiality. All verification failures
//     collapse into ErrTokenInvalid so callers cannot use the service as an
//     oracle.
//   - KeyPairProvider loads the RSA key pair lazily, exactly once per
//     process, and caches the result for the process lifetime.
//
// Accounts:
//   - AccountManager orchestrates the lifecycle against a UserStore. Policy
//     checks (password length, terms acceptance) run before any hashing or
//     store work. Store-level uniqueness violations surface as ErrEmailTaken;
//     authentication failures always surface as the generic
//     ErrInvalidCredentials to avoid account enumeration.
//   - Users is the Bun-backed store. Soft deletes use the deleted_at column;
//     soft-deleted rows are invisible to every normal query until restored.
package account
