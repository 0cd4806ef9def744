package model

// UploadCredential is a short-lived, signed value scoped to one direct
// upload into the object store. It lives only in process memory and must
// never be persisted or reused after expiry.
type UploadCredential struct {
	// Token is the one-time upload id; it also names the object key prefix.
	Token string
	// Signature is the object store's signature over the presigned request.
	Signature string
	// Expire is the unix timestamp after which the store rejects the upload.
	Expire int64
	// UploadURL is the presigned PUT target the client streams the file to.
	UploadURL string
	// Key is the object key the upload lands on.
	Key string
}
