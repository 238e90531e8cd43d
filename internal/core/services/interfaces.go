package services

import "context"

// CredentialService is the external credential provider consumed by the
// lifecycle and auth services. A credential is tied 1:1 to a directory record
// through its opaque identity token; the provider never sees directory data.
//
// VerifyCredential fails distinctly for an unknown identity
// (domain.ErrUnknownIdentity) and a wrong secret (domain.ErrWrongSecret);
// login normalizes both into one generic message so callers cannot enumerate
// registered emails.
type CredentialService interface {
	CreateCredential(ctx context.Context, email, secret string) (string, error)
	VerifyCredential(ctx context.Context, email, secret string) (string, error)
	DeleteCredential(ctx context.Context, identityToken string) error
	SignOut(ctx context.Context, identityToken string) error
	SendResetEmail(ctx context.Context, email string) error
	CurrentSession(ctx context.Context) (string, error)
}

// ImageStorage is the external profile image store. Upload failures are
// non-fatal to account creation; delete failures on image replacement are
// logged, not surfaced.
type ImageStorage interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
	Delete(ctx context.Context, url string) error
}

// CardReader is the physical card transport consumed by the kiosk scan loop.
// Read blocks until a tag is presented or ctx is cancelled; a read may come
// back empty when the transport delivers a placeholder frame.
type CardReader interface {
	Read(ctx context.Context) (*ScanInput, error)
}
