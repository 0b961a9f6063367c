package handler

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	msgMissingFingerprint = "Missing fingerprint_id in request"
	msgInvalidFingerprint = "Invalid fingerprint_id format (must be integer)"
)

var errInvalidFingerprint = errors.New(msgInvalidFingerprint)

// FingerprintID accepts a JSON number or a numeric string. Numbers with an
// integral value such as 7.0 are accepted since some firmware sends floats;
// strings must be plain digits.
type FingerprintID int

func (f *FingerprintID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	quoted := false
	if unq, err := strconv.Unquote(s); err == nil {
		s, quoted = strings.TrimSpace(unq), true
	}
	n, err := strconv.Atoi(s)
	if err != nil && !quoted {
		n, err = integralFloat(s)
	}
	if err != nil || n < 0 {
		return errInvalidFingerprint
	}
	*f = FingerprintID(n)
	return nil
}

func integralFloat(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, errInvalidFingerprint
	}
	return int(v), nil
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type identityRequest struct {
	Name       string `json:"name" form:"name"`
	Department string `json:"department" form:"department"`
}

type fingerprintRequest struct {
	FingerprintID *FingerprintID `json:"fingerprint_id"`
	Name          string         `json:"name"`
	Department    string         `json:"department"`
}

// id validates presence; the second return is the message for a 400.
func (r fingerprintRequest) id() (int, string) {
	if r.FingerprintID == nil {
		return 0, msgMissingFingerprint
	}
	return int(*r.FingerprintID), ""
}

type deviceRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// bindError picks the display message for a failed JSON bind.
func bindError(err error, fallback string) string {
	if errors.Is(err, errInvalidFingerprint) {
		return msgInvalidFingerprint
	}
	return fallback
}
