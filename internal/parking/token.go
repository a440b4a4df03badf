package parking

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/blake2b"
)

// Token layout (before base64url):
//
//	version(1) | booking id(16) | lot id(16) | plate len(1) | plate(n) |
//	start unix(8) | end unix(8) | status(1) | mac(16)
const (
	tokenVersion = 1
	macSize      = 16
	fixedSize    = 1 + 16 + 16 + 1 + 8 + 8 + 1
)

var statusCodes = []entity.BookingStatus{
	entity.BookingStatusBooked,
	entity.BookingStatusInUse,
	entity.BookingStatusCompleted,
	entity.BookingStatusCancelled,
	entity.BookingStatusNoShow,
}

// TokenClaims is what a validation token says about its booking at the time
// it was issued. It is never trusted without the live record.
type TokenClaims struct {
	BookingID     uuid.UUID
	LotID         uuid.UUID
	VehicleNumber string
	StartTime     time.Time
	EndTime       time.Time
	Status        entity.BookingStatus
}

// TokenCodec mints and verifies validation tokens with a keyed BLAKE2b MAC.
type TokenCodec struct {
	key []byte
}

func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	// blake2b keys are at most 64 bytes; hash the secret to a fixed size
	key := blake2b.Sum256([]byte(secret))
	return &TokenCodec{key: key[:]}, nil
}

func (c *TokenCodec) Encode(booking *entity.Booking) (string, error) {
	plate := []byte(booking.VehicleNumber)
	if len(plate) > 255 {
		return "", fmt.Errorf("vehicle number too long for token: %w", apperror.ErrValidation)
	}
	status := statusCode(booking.Status)
	if status < 0 {
		return "", fmt.Errorf("unknown booking status %q", booking.Status)
	}

	buf := make([]byte, 0, fixedSize+len(plate)+macSize)
	buf = append(buf, tokenVersion)
	buf = append(buf, booking.ID[:]...)
	buf = append(buf, booking.ParkingLotID[:]...)
	buf = append(buf, byte(len(plate)))
	buf = append(buf, plate...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(booking.StartTime.Unix()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(booking.EndTime.Unix()))
	buf = append(buf, byte(status))

	mac, err := c.mac(buf)
	if err != nil {
		return "", err
	}
	buf = append(buf, mac...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Decode verifies and parses a token. Every failure is ErrMalformedToken.
func (c *TokenCodec) Decode(token string) (*TokenClaims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", apperror.ErrMalformedToken)
	}
	if len(raw) < fixedSize+macSize || raw[0] != tokenVersion {
		return nil, fmt.Errorf("token frame: %w", apperror.ErrMalformedToken)
	}

	body, sum := raw[:len(raw)-macSize], raw[len(raw)-macSize:]
	want, err := c.mac(body)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(sum, want) != 1 {
		return nil, fmt.Errorf("token signature: %w", apperror.ErrMalformedToken)
	}

	plateLen := int(body[33])
	if len(body) != fixedSize+plateLen {
		return nil, fmt.Errorf("token length: %w", apperror.ErrMalformedToken)
	}

	claims := &TokenClaims{}
	copy(claims.BookingID[:], body[1:17])
	copy(claims.LotID[:], body[17:33])
	off := 34
	claims.VehicleNumber = string(body[off : off+plateLen])
	off += plateLen
	claims.StartTime = time.Unix(int64(binary.BigEndian.Uint64(body[off:off+8])), 0).UTC()
	off += 8
	claims.EndTime = time.Unix(int64(binary.BigEndian.Uint64(body[off:off+8])), 0).UTC()
	off += 8

	code := int(body[off])
	if code >= len(statusCodes) {
		return nil, fmt.Errorf("token status: %w", apperror.ErrMalformedToken)
	}
	claims.Status = statusCodes[code]

	return claims, nil
}

func (c *TokenCodec) mac(data []byte) ([]byte, error) {
	h, err := blake2b.New(macSize, c.key)
	if err != nil {
		return nil, fmt.Errorf("init token mac: %w", err)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func statusCode(s entity.BookingStatus) int {
	for i, st := range statusCodes {
		if st == s {
			return i
		}
	}
	return -1
}

// QRCode renders a validation token as a PNG of size x size pixels.
func QRCode(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
