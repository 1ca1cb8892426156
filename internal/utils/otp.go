package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// GenerateOTP returns a uniformly random 6-digit verification code in the
// range 100000-999999, so the code never starts with a zero.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails if the platform source is broken;
		// there is no sensible recovery at this level.
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}
