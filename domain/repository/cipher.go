package repository

// ICipher encrypts stored credentials. Implementations must be safe for concurrent use.
type ICipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
