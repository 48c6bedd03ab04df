package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// recordBody carries either a client-side ciphertext or a plaintext payload
// for the server to encrypt.
type recordBody struct {
	EncryptedData string        `json:"encryptedData"`
	Payload       *core.Payload `json:"payload"`
}

func (s *Server) decodeRecordBody(w http.ResponseWriter, r *http.Request) (recordBody, error) {
	var body recordBody
	if s.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			return body, err
		case errors.Is(err, io.EOF):
			return body, fmt.Errorf("%w: empty body", core.ErrValidation)
		default:
			return body, fmt.Errorf("%w: invalid json", core.ErrValidation)
		}
	}
	if body.Payload != nil && body.EncryptedData != "" {
		return body, fmt.Errorf("%w: send either encryptedData or payload, not both", core.ErrValidation)
	}
	return body, nil
}

// parsePeriod reads the optional month and year query parameters.
func parsePeriod(r *http.Request) (core.Period, error) {
	var p core.Period
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return p, fmt.Errorf("%w: invalid year %q", core.ErrValidation, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, fmt.Errorf("%w: invalid month %q", core.ErrValidation, v)
		}
		p.Month = m
	}
	return p, nil
}
