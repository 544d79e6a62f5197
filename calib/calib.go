// Package calib provides read-only calibration constants keyed by
// (section, key). The camera forwards them to frame generators unchanged.
package calib

import (
	"errors"
	"strconv"
)

var ErrMissing = errors.New("calib: missing key")

// Provider is the calibration lookup the camera consumes.
type Provider interface {
	Get(section, key string) (string, error)
	GetFloat(section, key string) (float64, error)
}

// Map is a Provider backed by nested maps.
type Map map[string]map[string]string

var _ Provider = Map(nil)

func (m Map) Get(section, key string) (string, error) {
	s, ok := m[section]
	if !ok {
		return "", missing(section, key)
	}
	v, ok := s[key]
	if !ok {
		return "", missing(section, key)
	}
	return v, nil
}

func (m Map) GetFloat(section, key string) (float64, error) {
	v, err := m.Get(section, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("calib: " + section + "." + key + " is not a number")
	}
	return f, nil
}

// Set stores a value, creating the section when needed.
func (m Map) Set(section, key, value string) {
	s, ok := m[section]
	if !ok {
		s = make(map[string]string)
		m[section] = s
	}
	s[key] = value
}

func missing(section, key string) error {
	return errors.Join(ErrMissing, errors.New(section+"."+key))
}
