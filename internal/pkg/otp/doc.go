// Package otp provides helpers for generating and verifying one-time
// passcodes delivered out of band (for example by email).
//
// Codes are short-lived numeric secrets: generate a code, store only its
// digest, then verify user input against the digest in constant time.
package otp
