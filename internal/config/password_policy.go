// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines requirements for password strength.
// Follows NIST SP 800-63B guidelines for password security.
type PasswordPolicy struct {
	// MinLength is the minimum password length
	MinLength int

	// RequireUppercase requires at least one uppercase letter
	RequireUppercase bool

	// RequireLowercase requires at least one lowercase letter
	RequireLowercase bool

	// RequireDigit requires at least one digit
	RequireDigit bool

	// RequireSpecial requires at least one special character
	RequireSpecial bool

	// MaxConsecutiveRepeats is the maximum allowed consecutive repeated characters (0 = disabled)
	MaxConsecutiveRepeats int

	// ForbidCommonPasswords blocks common/breached passwords
	ForbidCommonPasswords bool

	// ForbidEmailSimilarity prevents passwords too similar to the account email
	ForbidEmailSimilarity bool
}

// DefaultPasswordPolicy returns the policy applied to visitor registration
// and password resets. Accounts are self-service, so the policy favors
// usability over the stricter rules an operator account would need.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:             8,
		RequireUppercase:      false,
		RequireLowercase:      true,
		RequireDigit:          true,
		RequireSpecial:        false,
		MaxConsecutiveRepeats: 4,
		ForbidCommonPasswords: true,
		ForbidEmailSimilarity: true,
	}
}

// PasswordValidationResult contains details about password validation.
type PasswordValidationResult struct {
	Valid  bool
	Errors []string
}

// charClasses holds the results of character class analysis.
type charClasses struct {
	hasUpper   bool
	hasLower   bool
	hasDigit   bool
	hasSpecial bool
}

// analyzeCharClasses examines a password and returns which character classes are present.
func analyzeCharClasses(password string) charClasses {
	var cc charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			cc.hasUpper = true
		case unicode.IsLower(r):
			cc.hasLower = true
		case unicode.IsDigit(r):
			cc.hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			cc.hasSpecial = true
		}
	}
	return cc
}

// maxConsecutiveRepeats returns the maximum number of consecutive repeated characters.
func maxConsecutiveRepeats(password string) int {
	if len(password) == 0 {
		return 0
	}
	maxRepeats := 1
	currentRepeats := 1
	var lastRune rune
	for i, r := range password {
		if i > 0 && r == lastRune {
			currentRepeats++
			if currentRepeats > maxRepeats {
				maxRepeats = currentRepeats
			}
		} else {
			currentRepeats = 1
		}
		lastRune = r
	}
	return maxRepeats
}

// Validate checks if a password meets the policy requirements.
// Returns a detailed validation result with all errors.
func (p PasswordPolicy) Validate(password string, email string) PasswordValidationResult {
	result := PasswordValidationResult{
		Valid:  true,
		Errors: make([]string, 0),
	}

	// Check minimum length
	if len(password) < p.MinLength {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("password must be at least %d characters (got %d)", p.MinLength, len(password)))
	}

	// Analyze character classes
	cc := analyzeCharClasses(password)
	p.validateCharClasses(&result, cc)

	// Check consecutive repeated characters
	if p.MaxConsecutiveRepeats > 0 && maxConsecutiveRepeats(password) > p.MaxConsecutiveRepeats {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("password cannot have more than %d consecutive repeated characters", p.MaxConsecutiveRepeats))
	}

	// Check common passwords
	if p.ForbidCommonPasswords && isCommonPassword(password) {
		result.Valid = false
		result.Errors = append(result.Errors, "password is too common and easily guessable")
	}

	// Check similarity to the account email
	if p.ForbidEmailSimilarity && email != "" && isSimilarToEmail(password, email) {
		result.Valid = false
		result.Errors = append(result.Errors, "password is too similar to your email address")
	}

	return result
}

// validateCharClasses checks character class requirements and adds errors to result.
func (p PasswordPolicy) validateCharClasses(result *PasswordValidationResult, cc charClasses) {
	if p.RequireUppercase && !cc.hasUpper {
		result.Valid = false
		result.Errors = append(result.Errors, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !cc.hasLower {
		result.Valid = false
		result.Errors = append(result.Errors, "password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !cc.hasDigit {
		result.Valid = false
		result.Errors = append(result.Errors, "password must contain at least one digit")
	}
	if p.RequireSpecial && !cc.hasSpecial {
		result.Valid = false
		result.Errors = append(result.Errors, "password must contain at least one special character (!@#$%^&*...)")
	}
}

// ValidateWithError is a convenience method that returns an error if validation fails.
func (p PasswordPolicy) ValidateWithError(password string, email string) error {
	result := p.Validate(password, email)
	if !result.Valid {
		return errors.New(strings.Join(result.Errors, "; "))
	}
	return nil
}

// isCommonPassword checks if the password is in a list of common passwords.
// This list includes top breached passwords plus values a visitor to the
// platform is likely to try.
func isCommonPassword(password string) bool {
	lower := strings.ToLower(password)
	commonPasswords := map[string]bool{
		"123456":      true,
		"password":    true,
		"123456789":   true,
		"12345678":    true,
		"1234567":     true,
		"1234567890":  true,
		"qwerty":      true,
		"abc123":      true,
		"password1":   true,
		"password123": true,
		"admin":       true,
		"admin123":    true,
		"letmein":     true,
		"welcome":     true,
		"welcome1":    true,
		"welcome123":  true,
		"iloveyou":    true,
		"sunshine":    true,
		"trustno1":    true,
		"111111":      true,
		"000000":      true,
		"654321":      true,
		"superman":    true,
		"football":    true,
		"baseball":    true,
		"shadow":      true,
		"secret":      true,
		"changeme":    true,
		"default":     true,
		"test":        true,
		"test123":     true,
		"testing":     true,
		"testing123":  true,
		"guest":       true,
		"root":        true,
		"pass":        true,
		"temp":        true,
		"passw0rd":    true,
		"p@ssw0rd":    true,
		"p@ssword":    true,
		"pa55word":    true,
		"passw0rd!":   true,
		"password1!":  true,
		"qwertyuiop":  true,
		"asdfghjkl":   true,
		"zxcvbnm":     true,
		"1qaz2wsx":    true,
		"qazwsx":      true,
		"abcd1234":    true,
		"1q2w3e4r":    true,
		"987654321":   true,
		"123qwe":      true,
		"123abc":      true,
		"123321":      true,
		"123123":      true,
		"112233":      true,
		"aaaaaa":      true,
		"11111111":    true,
		"00000000":    true,
		// Values visitors to this platform are likely to try
		"nazca360":      true,
		"nazca":         true,
		"nasca":         true,
		"nascalines":    true,
		"lineasdenazca": true,
		"peru":          true,
		"peru123":       true,
		"lima":          true,
		"cusco":         true,
		"machupicchu":   true,
		"turismo":       true,
		"turista":       true,
		"virtual":       true,
		"vrtour":        true,
		"palpa":         true,
	}
	return commonPasswords[lower]
}

// isSimilarToEmail checks if the password is too similar to the account email.
// Comparison uses the local part of the address (before the @).
func isSimilarToEmail(password, email string) bool {
	local := strings.ToLower(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if len(local) < 4 {
		return false
	}
	lowerPass := strings.ToLower(password)

	// Direct match or substring
	if strings.Contains(lowerPass, local) || strings.Contains(local, lowerPass) {
		return true
	}

	// Reverse of the local part
	if strings.Contains(lowerPass, reverseString(local)) {
		return true
	}

	// Local part with common substitutions
	substitutions := map[rune]rune{
		'a': '@', 'e': '3', 'i': '1', 'o': '0', 's': '$', 't': '7',
	}
	substituted := strings.Map(func(r rune) rune {
		if sub, ok := substitutions[r]; ok {
			return sub
		}
		return r
	}, local)
	return strings.Contains(lowerPass, substituted)
}

// reverseString reverses a string.
func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
