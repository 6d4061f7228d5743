package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Prefixes for generated identifiers.
const (
	UserIDPrefix     = "usr"
	GroupIDPrefix    = "grp"
	RewardIDPrefix   = "rwd"
	ActivityIDPrefix = "act"
	MessageIDPrefix  = "msg"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateUserID validates the user ID format
func ValidateUserID(userID string) bool {
	return strings.HasPrefix(userID, UserIDPrefix+"-")
}

// ValidateGroupID validates the group ID format
func ValidateGroupID(groupID string) bool {
	return strings.HasPrefix(groupID, GroupIDPrefix+"-")
}
