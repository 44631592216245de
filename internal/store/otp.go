package store

import (
	"encoding/json"
	"fmt"
)

// SaveOTPPin stores the verification code for an email, overwriting any
// prior pin unconditionally. The store enforces no expiry; that is the
// backend's job.
func (s *Store) SaveOTPPin(email, pin string) error {
	mu := s.lock(keyOTPPins)
	mu.Lock()
	defer mu.Unlock()

	pins, err := s.readPins()
	if err != nil {
		return err
	}
	pins[email] = pin
	return s.writePins(pins)
}

// OTPPin returns the stored pin for an email, if any.
func (s *Store) OTPPin(email string) (string, bool, error) {
	pins, err := s.readPins()
	if err != nil {
		return "", false, err
	}
	pin, ok := pins[email]
	return pin, ok, nil
}

func (s *Store) readPins() (map[string]string, error) {
	raw, ok, err := s.kv.Get(keyOTPPins)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", keyOTPPins, err)
	}
	pins := make(map[string]string)
	if !ok {
		return pins, nil
	}
	if err := json.Unmarshal([]byte(raw), &pins); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyOTPPins, err)
	}
	return pins, nil
}

func (s *Store) writePins(pins map[string]string) error {
	raw, err := json.Marshal(pins)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keyOTPPins, err)
	}
	if err := s.kv.Set(keyOTPPins, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", keyOTPPins, err)
	}
	return nil
}
