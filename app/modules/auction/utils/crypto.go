package auctionutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// BidCipher seals and opens bid amounts. Bids are stored sealed and
// opened only by the settlement engine after round close.
type BidCipher interface {
	Encrypt(amount decimal.Decimal) ([]byte, error)
	Decrypt(ciphertext []byte) (decimal.Decimal, error)
}

// AESBidCipher is an AES-GCM BidCipher. The ciphertext layout is
// nonce || sealed(amount.String()).
type AESBidCipher struct {
	aead cipher.AEAD
}

// NewAESBidCipher builds a cipher from a 16, 24, or 32 byte key.
func NewAESBidCipher(key []byte) (*AESBidCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bid cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &AESBidCipher{aead: aead}, nil
}

func (c *AESBidCipher) Encrypt(amount decimal.Decimal) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(amount.String()), nil), nil
}

func (c *AESBidCipher) Decrypt(ciphertext []byte) (decimal.Decimal, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return decimal.Zero, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to open sealed bid: %w", err)
	}
	amount, err := decimal.NewFromString(string(plain))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sealed bid is not a valid amount: %w", err)
	}
	return amount, nil
}
