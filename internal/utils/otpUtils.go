package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const otpDigits = "0123456789"

// GenerateSecureOTP returns a numeric code of the given length. Every digit
// is drawn uniformly from crypto/rand, so leading zeros are possible.
func GenerateSecureOTP(length int) (string, error) {
	buffer := make([]byte, length)
	max := big.NewInt(int64(len(otpDigits)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buffer[i] = otpDigits[n.Int64()]
	}
	return string(buffer), nil
}

func HashOTP(code string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckOTP(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
